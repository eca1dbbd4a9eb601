package domain_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/thuanthe81/ecommerce-mailer/internal/domain"
)

func confirmation(orderID string) domain.OrderConfirmation {
	return domain.OrderConfirmation{
		OrderID:       orderID,
		OrderNumber:   "1001",
		CustomerEmail: "customer@example.com",
		CustomerName:  "Nguyen Van A",
		Locale:        domain.LocaleVI,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestDedupKey_TimestampIndependent(t *testing.T) {
	e1 := confirmation("o-1")
	e2 := confirmation("o-1")
	e2.CreatedAt = e1.CreatedAt.Add(48 * time.Hour)

	if domain.DedupKey(e1) != domain.DedupKey(e2) {
		t.Fatal("events differing only in timestamp must share a dedup key")
	}
}

func TestDedupKey_IdentityFieldsDiffer(t *testing.T) {
	base := confirmation("o-1")

	variants := []domain.EmailEvent{
		confirmation("o-2"),
		func() domain.EmailEvent { e := base; e.OrderNumber = "1002"; return e }(),
		func() domain.EmailEvent { e := base; e.CustomerEmail = "other@example.com"; return e }(),
	}

	for i, v := range variants {
		if domain.DedupKey(base) == domain.DedupKey(v) {
			t.Fatalf("variant %d: identity change did not change the dedup key", i)
		}
	}
}

func TestDedupKey_KindIsPartOfIdentity(t *testing.T) {
	conf := confirmation("o-1")
	resend := domain.InvoiceResend{
		OrderID:       conf.OrderID,
		OrderNumber:   conf.OrderNumber,
		CustomerEmail: conf.CustomerEmail,
		CustomerName:  conf.CustomerName,
		Locale:        conf.Locale,
		CreatedAt:     conf.CreatedAt,
	}

	if domain.DedupKey(conf) == domain.DedupKey(resend) {
		t.Fatal("different kinds with equal fields must not collide")
	}
}

// A large generated corpus must show no key collisions between events
// with distinct identity fields.
func TestDedupKey_NoCollisionsOverCorpus(t *testing.T) {
	seen := make(map[string]string, 20000)

	for i := 0; i < 10000; i++ {
		c := confirmation(fmt.Sprintf("o-%d", i))
		s := domain.OrderStatusChanged{
			OrderID:       fmt.Sprintf("o-%d", i),
			OrderNumber:   "1001",
			CustomerEmail: "customer@example.com",
			CustomerName:  "Nguyen Van A",
			NewStatus:     "shipped",
			Locale:        domain.LocaleEN,
			CreatedAt:     time.Now(),
		}
		for _, e := range []domain.EmailEvent{c, s} {
			key := domain.DedupKey(e)
			id := string(e.Kind()) + "/" + fmt.Sprintf("o-%d", i)
			if prev, ok := seen[key]; ok && prev != id {
				t.Fatalf("collision: %s and %s share key %s", prev, id, key)
			}
			seen[key] = id
		}
	}
}

func TestDedupKey_FieldBoundaries(t *testing.T) {
	// "ab"+"c" vs "a"+"bc" across the id/number boundary.
	e1 := confirmation("ab")
	e1.OrderNumber = "c"
	e2 := confirmation("a")
	e2.OrderNumber = "bc"

	if domain.DedupKey(e1) == domain.DedupKey(e2) {
		t.Fatal("field concatenation must not be ambiguous")
	}
}
