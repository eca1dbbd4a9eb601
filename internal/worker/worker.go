package worker

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/thuanthe81/ecommerce-mailer/internal/domain"
	"github.com/thuanthe81/ecommerce-mailer/internal/mailer"
	"github.com/thuanthe81/ecommerce-mailer/internal/orderstore"
	"github.com/thuanthe81/ecommerce-mailer/internal/pricing"
	"github.com/thuanthe81/ecommerce-mailer/internal/ratelimiter"
)

// Outcome is the result of processing one job attempt.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomePermanentFailure
	OutcomeTemporaryFailure
)

// JobState maps the attempt's outcome onto the job lifecycle state.
func (o Outcome) JobState() domain.JobState {
	switch o {
	case OutcomeSuccess:
		return domain.JobStateSent
	case OutcomePermanentFailure:
		return domain.JobStateFailedPerm
	default:
		return domain.JobStateFailedTemp
	}
}

// Worker processes a single job: validates, routes by event kind,
// chooses the content strategy from the order's current pricing state,
// and invokes the mail transport. It holds no broker state; the pool
// owns consumption, retries, and dead-lettering.
type Worker struct {
	store    orderstore.Store
	mail     mailer.Mailer
	renderer mailer.InvoiceRenderer
	limiter  *ratelimiter.Limiter
	logger   *zap.Logger
}

func New(
	store orderstore.Store,
	mail mailer.Mailer,
	renderer mailer.InvoiceRenderer,
	limiter *ratelimiter.Limiter,
	logger *zap.Logger,
) *Worker {
	return &Worker{store: store, mail: mail, renderer: renderer, limiter: limiter, logger: logger}
}

// Process runs one attempt. A permanent outcome terminates the job; a
// temporary one schedules a retry (the pool's job). Structural
// validation failures are permanent and consume no retry.
func (w *Worker) Process(ctx context.Context, job domain.Job) (Outcome, error) {
	// Defense in depth: the publisher validated already, but jobs can
	// arrive from older producers or a poisoned queue.
	if err := job.Event.Validate(); err != nil {
		return OutcomePermanentFailure, fmt.Errorf("malformed %s event: %w", job.Event.Kind(), err)
	}

	var err error
	switch e := job.Event.(type) {
	case domain.OrderConfirmation:
		err = w.handleConfirmation(ctx, e)
	case domain.OrderStatusChanged:
		err = w.handleStatusChanged(ctx, e)
	case domain.OrderCancelled:
		err = w.handleCancelled(ctx, e)
	case domain.AdminNotification:
		err = w.handleAdminNotification(ctx, e)
	case domain.InvoiceResend:
		err = w.handleInvoiceResend(ctx, e)
	case domain.AdminInvoice:
		err = w.handleAdminInvoice(ctx, e)
	default:
		return OutcomePermanentFailure, fmt.Errorf("%w: %T", domain.ErrUnknownEventKind, job.Event)
	}

	if err != nil {
		if Classify(err) == ClassPermanent {
			return OutcomePermanentFailure, err
		}
		return OutcomeTemporaryFailure, err
	}
	return OutcomeSuccess, nil
}

// handleConfirmation picks the content strategy from the order's pricing
// state at this moment, not from anything captured at publish time,
// since prices may have been filled in since the order was placed.
// Fully priced orders get the PDF invoice attached; orders with quote
// items get a plain confirmation and no PDF is attempted.
func (w *Worker) handleConfirmation(ctx context.Context, e domain.OrderConfirmation) error {
	order, err := w.store.GetOrder(ctx, e.OrderID)
	if err != nil {
		return err
	}

	msg := &mailer.Message{
		To:      e.CustomerEmail,
		Subject: mailer.Subject(e.Kind(), e.Locale, e.OrderNumber),
		Locale:  e.Locale,
	}

	if pricing.Compute(order).AllItemsPriced {
		pdf, err := w.renderer.RenderInvoice(ctx, order)
		if err != nil {
			return fmt.Errorf("render invoice for order %s: %w", order.ID, err)
		}
		msg.Attachment = invoiceAttachment(order, pdf)
		msg.Body = w.orderBody(ctx, order, e.Locale, true)
	} else {
		msg.Body = w.orderBody(ctx, order, e.Locale, false)
	}

	return w.send(ctx, msg)
}

func (w *Worker) handleStatusChanged(ctx context.Context, e domain.OrderStatusChanged) error {
	order, err := w.store.GetOrder(ctx, e.OrderID)
	if err != nil {
		return err
	}

	body := fmt.Sprintf("Your order #%s is now: %s.\n\n%s",
		order.Number, e.NewStatus, w.footer(ctx))
	return w.send(ctx, &mailer.Message{
		To:      e.CustomerEmail,
		Subject: mailer.Subject(e.Kind(), e.Locale, e.OrderNumber),
		Body:    body,
		Locale:  e.Locale,
	})
}

func (w *Worker) handleCancelled(ctx context.Context, e domain.OrderCancelled) error {
	order, err := w.store.GetOrder(ctx, e.OrderID)
	if err != nil {
		return err
	}

	body := fmt.Sprintf("Your order #%s has been cancelled.\n\n%s",
		order.Number, w.footer(ctx))
	return w.send(ctx, &mailer.Message{
		To:      e.CustomerEmail,
		Subject: mailer.Subject(e.Kind(), e.Locale, e.OrderNumber),
		Body:    body,
		Locale:  e.Locale,
	})
}

// handleAdminNotification resolves the recipient from business info at
// processing time; the event itself carries no addresses.
func (w *Worker) handleAdminNotification(ctx context.Context, e domain.AdminNotification) error {
	order, err := w.store.GetOrder(ctx, e.OrderID)
	if err != nil {
		return err
	}
	info, err := w.store.GetBusinessInfo(ctx)
	if err != nil {
		return err
	}

	body := fmt.Sprintf("New order #%s from %s (%s), %d item(s).",
		order.Number, order.CustomerName, order.CustomerEmail, len(order.Items))
	return w.send(ctx, &mailer.Message{
		To:      info.AdminEmail,
		Subject: mailer.Subject(e.Kind(), e.Locale, e.OrderNumber),
		Body:    body,
		Locale:  e.Locale,
	})
}

// handleInvoiceResend always attaches the PDF regardless of pricing
// state: the resend is customer-triggered and an admin already
// confirmed the order contents.
func (w *Worker) handleInvoiceResend(ctx context.Context, e domain.InvoiceResend) error {
	order, err := w.store.GetOrder(ctx, e.OrderID)
	if err != nil {
		return err
	}

	pdf, err := w.renderer.RenderInvoice(ctx, order)
	if err != nil {
		return fmt.Errorf("render invoice for order %s: %w", order.ID, err)
	}

	return w.send(ctx, &mailer.Message{
		To:         e.CustomerEmail,
		Subject:    mailer.Subject(e.Kind(), e.Locale, e.OrderNumber),
		Body:       w.orderBody(ctx, order, e.Locale, true),
		Locale:     e.Locale,
		Attachment: invoiceAttachment(order, pdf),
	})
}

// handleAdminInvoice refuses orders that still carry quote items: a
// standalone invoice on incomplete pricing would be silently wrong.
func (w *Worker) handleAdminInvoice(ctx context.Context, e domain.AdminInvoice) error {
	order, err := w.store.GetOrder(ctx, e.OrderID)
	if err != nil {
		return err
	}

	if pricing.HasQuoteItems(order) {
		return fmt.Errorf("%w: order %s", domain.ErrUnpricedItems, order.ID)
	}

	pdf, err := w.renderer.RenderInvoice(ctx, order)
	if err != nil {
		return fmt.Errorf("render invoice for order %s: %w", order.ID, err)
	}

	return w.send(ctx, &mailer.Message{
		To:         e.RecipientEmail,
		Subject:    mailer.Subject(e.Kind(), e.Locale, e.OrderNumber),
		Body:       w.orderBody(ctx, order, e.Locale, true),
		Locale:     e.Locale,
		Attachment: invoiceAttachment(order, pdf),
	})
}

// send waits for a rate-limit token, then invokes the transport.
func (w *Worker) send(ctx context.Context, msg *mailer.Message) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	result, err := w.mail.Send(ctx, msg)
	if err != nil {
		return err
	}
	w.logger.Debug("mail accepted by transport",
		zap.String("to", msg.To),
		zap.String("provider_msg_id", result.ProviderMessageID),
	)
	return nil
}

// orderBody renders the plain-text line-item summary. Unpriced items
// show as pending instead of a zero amount.
func (w *Worker) orderBody(ctx context.Context, order *domain.Order, _ domain.Locale, priced bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order #%s\n\n", order.Number)
	var total float64
	for _, item := range order.Items {
		if item.Price != nil && *item.Price > 0 {
			fmt.Fprintf(&b, "  %s x%d - %.2f\n", item.ProductName, item.Quantity, *item.Price)
			if item.Total != nil {
				total += *item.Total
			}
		} else {
			fmt.Fprintf(&b, "  %s x%d - price pending\n", item.ProductName, item.Quantity)
		}
	}
	if priced {
		fmt.Fprintf(&b, "\nTotal: %.2f\n", total)
	} else {
		b.WriteString("\nWe will send the final invoice once all prices are confirmed.\n")
	}
	b.WriteString("\n")
	b.WriteString(w.footer(ctx))
	return b.String()
}

// footer is best-effort: a missing business-info row degrades the email
// footer, it does not fail the send.
func (w *Worker) footer(ctx context.Context) string {
	info, err := w.store.GetBusinessInfo(ctx)
	if err != nil {
		w.logger.Warn("business info lookup failed, sending without footer", zap.Error(err))
		return ""
	}
	return fmt.Sprintf("%s | %s | %s", info.Name, info.Phone, info.Address)
}

func invoiceAttachment(order *domain.Order, pdf []byte) *mailer.Attachment {
	return &mailer.Attachment{
		Filename:    fmt.Sprintf("invoice-%s.pdf", order.Number),
		ContentType: "application/pdf",
		Data:        pdf,
	}
}
