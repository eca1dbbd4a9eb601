package mailer

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/thuanthe81/ecommerce-mailer/internal/domain"
)

// PDFRenderer produces a minimal single-page text invoice. The output is
// a valid PDF 1.4 document with one Helvetica content stream; layout
// sophistication is deliberately out of scope, accounting only needs the
// numbers on paper.
type PDFRenderer struct {
	business *domain.BusinessInfo
}

// NewPDFRenderer creates a renderer with an optional letterhead. A nil
// business info just omits the header lines.
func NewPDFRenderer(business *domain.BusinessInfo) *PDFRenderer {
	return &PDFRenderer{business: business}
}

func (r *PDFRenderer) RenderInvoice(_ context.Context, order *domain.Order) ([]byte, error) {
	if order == nil {
		return nil, fmt.Errorf("render invoice: nil order")
	}

	var lines []string
	if r.business != nil {
		lines = append(lines, r.business.Name, r.business.Address, r.business.Phone, "")
	}
	lines = append(lines,
		fmt.Sprintf("INVOICE - Order #%s", order.Number),
		fmt.Sprintf("Customer: %s <%s>", order.CustomerName, order.CustomerEmail),
		"",
	)

	var total float64
	for _, item := range order.Items {
		price := 0.0
		if item.Price != nil {
			price = *item.Price
		}
		lines = append(lines, fmt.Sprintf("%-40s x%-3d %12.2f", item.ProductName, item.Quantity, price))
		if item.Total != nil {
			total += *item.Total
		}
	}
	lines = append(lines, "", fmt.Sprintf("%-45s %12.2f", "TOTAL", total))

	return buildPDF(lines), nil
}

// buildPDF assembles the document by hand: catalog, page tree, one page,
// a Helvetica font object, and a content stream of Tj text operators.
// Object offsets are tracked for the xref table as objects are emitted.
func buildPDF(lines []string) []byte {
	var content bytes.Buffer
	content.WriteString("BT\n/F1 10 Tf\n50 780 Td\n12 TL\n")
	for _, line := range lines {
		fmt.Fprintf(&content, "(%s) Tj\nT*\n", escapePDFText(line))
	}
	content.WriteString("ET\n")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
	}

	var doc bytes.Buffer
	doc.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = doc.Len()
		fmt.Fprintf(&doc, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xrefStart := doc.Len()
	fmt.Fprintf(&doc, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&doc, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&doc, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefStart)

	return doc.Bytes()
}

// escapePDFText escapes the characters with meaning inside a PDF string
// literal. Non-ASCII text passes through; viewers render what Helvetica's
// standard encoding covers.
func escapePDFText(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return replacer.Replace(s)
}

// compile-time check that PDFRenderer implements InvoiceRenderer
var _ InvoiceRenderer = (*PDFRenderer)(nil)
