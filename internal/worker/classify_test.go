package worker_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/thuanthe81/ecommerce-mailer/internal/broker"
	"github.com/thuanthe81/ecommerce-mailer/internal/domain"
	"github.com/thuanthe81/ecommerce-mailer/internal/worker"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want worker.Class
	}{
		{"order not found sentinel", fmt.Errorf("%w: o-1", domain.ErrOrderNotFound), worker.ClassPermanent},
		{"unpriced items sentinel", domain.ErrUnpricedItems, worker.ClassPermanent},
		{"invalid email sentinel", domain.ErrInvalidEmail, worker.ClassPermanent},
		{"unknown kind sentinel", domain.ErrUnknownEventKind, worker.ClassPermanent},
		{"broker closed sentinel", broker.ErrClosed, worker.ClassTemporary},
		{"wrapped broker closed", fmt.Errorf("enqueue: %w", broker.ErrClosed), worker.ClassTemporary},

		{"not found text", errors.New("user not found in directory"), worker.ClassPermanent},
		{"validation text", errors.New("validation failed on field email"), worker.ClassPermanent},
		{"invalid text", errors.New("mail gateway rejected message as invalid: status 422"), worker.ClassPermanent},
		{"recipient blocked", errors.New("recipient blocked by provider"), worker.ClassPermanent},
		{"suppression list", errors.New("address is on the suppression list"), worker.ClassPermanent},
		{"bounced", errors.New("message bounced"), worker.ClassPermanent},

		{"connection refused", errors.New("dial tcp 10.0.0.1:5672: connection refused"), worker.ClassTemporary},
		{"timeout", errors.New("request timed out after 10s"), worker.ClassTemporary},
		{"unavailable", errors.New("mail gateway unavailable: status 503"), worker.ClassTemporary},
		{"temporarily deferred", errors.New("450 temporarily deferred"), worker.ClassTemporary},

		// A transient transport error whose text also mentions something
		// permanent-looking must stay temporary: transport rules win.
		{"connection beats invalid", errors.New("connection reset by peer during invalid frame"), worker.ClassTemporary},

		{"unmatched defaults to temporary", errors.New("quota exceeded on shard 7"), worker.ClassTemporary},
		{"nil error", nil, worker.ClassTemporary},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := worker.Classify(tc.err); got != tc.want {
				t.Fatalf("Classify(%v) = %s, want %s", tc.err, got, tc.want)
			}
		})
	}
}
