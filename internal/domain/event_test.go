package domain_test

import (
	"testing"
	"time"

	"github.com/thuanthe81/ecommerce-mailer/internal/domain"
)

func TestOrderConfirmation_Validate(t *testing.T) {
	valid := confirmation("o-1")

	t.Run("valid event passes", func(t *testing.T) {
		if err := valid.Validate(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("invalid locale", func(t *testing.T) {
		e := valid
		e.Locale = "fr"
		if err := e.Validate(); err != domain.ErrInvalidLocale {
			t.Fatalf("expected ErrInvalidLocale, got %v", err)
		}
	})

	t.Run("empty order id", func(t *testing.T) {
		e := valid
		e.OrderID = ""
		if err := e.Validate(); err != domain.ErrMissingOrderID {
			t.Fatalf("expected ErrMissingOrderID, got %v", err)
		}
	})

	t.Run("empty order number", func(t *testing.T) {
		e := valid
		e.OrderNumber = ""
		if err := e.Validate(); err != domain.ErrMissingOrderNum {
			t.Fatalf("expected ErrMissingOrderNum, got %v", err)
		}
	})

	t.Run("malformed email", func(t *testing.T) {
		for _, addr := range []string{"", "plainaddress", "no@tld", "two@@example.com", "spa ce@example.com"} {
			e := valid
			e.CustomerEmail = addr
			if err := e.Validate(); err != domain.ErrInvalidEmail {
				t.Fatalf("address %q: expected ErrInvalidEmail, got %v", addr, err)
			}
		}
	})

	t.Run("empty customer name", func(t *testing.T) {
		e := valid
		e.CustomerName = ""
		if err := e.Validate(); err != domain.ErrMissingCustomer {
			t.Fatalf("expected ErrMissingCustomer, got %v", err)
		}
	})

	t.Run("both locales accepted", func(t *testing.T) {
		for _, l := range []domain.Locale{domain.LocaleEN, domain.LocaleVI} {
			e := valid
			e.Locale = l
			if err := e.Validate(); err != nil {
				t.Fatalf("locale %q: expected no error, got %v", l, err)
			}
		}
	})
}

func TestAdminNotification_Validate(t *testing.T) {
	valid := domain.AdminNotification{
		OrderID:     "o-1",
		OrderNumber: "1001",
		Locale:      domain.LocaleEN,
		CreatedAt:   time.Now().UTC(),
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	e := valid
	e.OrderNumber = ""
	if err := e.Validate(); err != domain.ErrMissingOrderNum {
		t.Fatalf("expected ErrMissingOrderNum, got %v", err)
	}
}

func TestOrderStatusChanged_Validate(t *testing.T) {
	valid := domain.OrderStatusChanged{
		OrderID:       "o-1",
		OrderNumber:   "1001",
		CustomerEmail: "customer@example.com",
		CustomerName:  "Nguyen Van A",
		NewStatus:     "shipped",
		Locale:        domain.LocaleVI,
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	e := valid
	e.NewStatus = ""
	if err := e.Validate(); err != domain.ErrMissingStatus {
		t.Fatalf("expected ErrMissingStatus, got %v", err)
	}
}

func TestAdminInvoice_Validate(t *testing.T) {
	valid := domain.AdminInvoice{
		OrderID:        "o-1",
		OrderNumber:    "1001",
		RecipientEmail: "accounting@example.com",
		Locale:         domain.LocaleEN,
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	e := valid
	e.RecipientEmail = "not-an-address"
	if err := e.Validate(); err != domain.ErrInvalidEmail {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestJobCodec_RoundTrip(t *testing.T) {
	event := domain.OrderStatusChanged{
		OrderID:       "o-77",
		OrderNumber:   "1077",
		CustomerEmail: "customer@example.com",
		CustomerName:  "Tran Thi B",
		NewStatus:     "shipped",
		Locale:        domain.LocaleVI,
		CreatedAt:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	job := domain.NewJob(event)
	job.Attempts = 2

	data, err := domain.EncodeJob(job)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := domain.DecodeJob(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.ID != job.ID || got.Attempts != 2 {
		t.Fatalf("envelope fields lost: %+v", got)
	}
	decoded, ok := got.Event.(domain.OrderStatusChanged)
	if !ok {
		t.Fatalf("expected OrderStatusChanged, got %T", got.Event)
	}
	if decoded != event {
		t.Fatalf("event round-trip mismatch:\n got %+v\nwant %+v", decoded, event)
	}
}

func TestDecodeJob_UnknownKind(t *testing.T) {
	_, err := domain.DecodeJob([]byte(`{"id":"x","kind":"fax_blast","event":{}}`))
	if err == nil {
		t.Fatal("expected an error for an unknown kind")
	}
}

func TestOrderRef(t *testing.T) {
	events := []domain.EmailEvent{
		confirmation("o-9"),
		domain.AdminNotification{OrderID: "o-9", OrderNumber: "1001", Locale: domain.LocaleEN},
		domain.AdminInvoice{OrderID: "o-9", OrderNumber: "1001", RecipientEmail: "a@b.co", Locale: domain.LocaleEN},
	}
	for _, e := range events {
		id, num := domain.OrderRef(e)
		if id != "o-9" || num != "1001" {
			t.Fatalf("%s: OrderRef = (%q, %q)", e.Kind(), id, num)
		}
	}
}
