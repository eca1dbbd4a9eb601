package pricing_test

import (
	"math/rand"
	"testing"

	"github.com/thuanthe81/ecommerce-mailer/internal/domain"
	"github.com/thuanthe81/ecommerce-mailer/internal/pricing"
)

func fp(v float64) *float64 { return &v }

func orderWith(items ...domain.LineItem) *domain.Order {
	return &domain.Order{ID: "o-1", Number: "1001", Items: items}
}

func TestHasQuoteItems(t *testing.T) {
	tests := []struct {
		name  string
		order *domain.Order
		want  bool
	}{
		{"empty order has no quote items", orderWith(), false},
		{"all priced", orderWith(
			domain.LineItem{Price: fp(100), Total: fp(100)},
			domain.LineItem{Price: fp(200), Total: fp(200)},
		), false},
		{"nil price is a quote item", orderWith(
			domain.LineItem{Price: fp(100), Total: fp(100)},
			domain.LineItem{Price: nil},
		), true},
		{"zero price is a quote item", orderWith(
			domain.LineItem{Price: fp(0), Total: fp(0)},
		), true},
		{"single unpriced among many priced", orderWith(
			domain.LineItem{Price: fp(10), Total: fp(10)},
			domain.LineItem{Price: fp(0), Total: fp(0)},
			domain.LineItem{Price: fp(30), Total: fp(30)},
		), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := pricing.HasQuoteItems(tc.order); got != tc.want {
				t.Fatalf("HasQuoteItems = %v, want %v", got, tc.want)
			}
			if got := pricing.AllItemsPriced(tc.order); got != !tc.want {
				t.Fatalf("AllItemsPriced = %v, want %v", got, !tc.want)
			}
		})
	}
}

// CanGeneratePDF must equal !HasQuoteItems for every possible order,
// including the empty one. Checked over a random corpus.
func TestCanGeneratePDF_ComplementInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		n := rng.Intn(6) // 0..5 items
		items := make([]domain.LineItem, n)
		for j := range items {
			switch rng.Intn(3) {
			case 0:
				items[j] = domain.LineItem{Price: nil}
			case 1:
				items[j] = domain.LineItem{Price: fp(0), Total: fp(0)}
			default:
				p := float64(1 + rng.Intn(500))
				items[j] = domain.LineItem{Price: fp(p), Total: fp(p)}
			}
		}
		o := orderWith(items...)

		if pricing.CanGeneratePDF(o) != !pricing.HasQuoteItems(o) {
			t.Fatalf("invariant violated for items %+v", items)
		}
		if pricing.CanChangeOrderStatus(o) != !pricing.HasQuoteItems(o) {
			t.Fatalf("status gate diverged from quote predicate for items %+v", items)
		}
	}
}

func TestCompute(t *testing.T) {
	t.Run("priced order", func(t *testing.T) {
		st := pricing.Compute(orderWith(domain.LineItem{Price: fp(100), Total: fp(100)}))
		if !st.AllItemsPriced || st.HasQuoteItems {
			t.Fatalf("unexpected state %+v", st)
		}
	})

	t.Run("quote order", func(t *testing.T) {
		st := pricing.Compute(orderWith(domain.LineItem{Price: fp(0), Total: fp(0)}))
		if st.AllItemsPriced || !st.HasQuoteItems {
			t.Fatalf("unexpected state %+v", st)
		}
	})

	t.Run("empty order counts as priced", func(t *testing.T) {
		st := pricing.Compute(orderWith())
		if !st.AllItemsPriced || st.HasQuoteItems {
			t.Fatalf("unexpected state %+v", st)
		}
	})
}
