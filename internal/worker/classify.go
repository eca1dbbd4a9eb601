package worker

import (
	"errors"
	"strings"

	"github.com/thuanthe81/ecommerce-mailer/internal/broker"
	"github.com/thuanthe81/ecommerce-mailer/internal/domain"
)

// Class decides a failed job's fate: permanent failures terminate
// immediately, temporary ones are retried with backoff.
type Class int

const (
	// ClassTemporary errors are retried; this is also the default for
	// anything unmatched, since a missed retry is worse than an extra
	// attempt.
	ClassTemporary Class = iota
	// ClassPermanent errors will not resolve on retry.
	ClassPermanent
)

func (c Class) String() string {
	if c == ClassPermanent {
		return "permanent"
	}
	return "temporary"
}

type rule struct {
	match func(error) bool
	class Class
}

func sentinel(target error, class Class) rule {
	return rule{match: func(err error) bool { return errors.Is(err, target) }, class: class}
}

// substrings matches case-insensitively against the error text. The
// mail gateway and legacy callers report failures as message text only,
// so text heuristics are the classification of last resort; sentinel
// rules above always win.
func substrings(class Class, patterns ...string) rule {
	return rule{
		match: func(err error) bool {
			msg := strings.ToLower(err.Error())
			for _, p := range patterns {
				if strings.Contains(msg, p) {
					return true
				}
			}
			return false
		},
		class: class,
	}
}

// classificationRules are evaluated in order; the first match wins.
var classificationRules = []rule{
	// Typed errors first.
	sentinel(domain.ErrOrderNotFound, ClassPermanent),
	sentinel(domain.ErrUnpricedItems, ClassPermanent),
	sentinel(domain.ErrUnknownEventKind, ClassPermanent),
	sentinel(domain.ErrInvalidLocale, ClassPermanent),
	sentinel(domain.ErrInvalidEmail, ClassPermanent),
	sentinel(domain.ErrMissingOrderID, ClassPermanent),
	sentinel(domain.ErrMissingOrderNum, ClassPermanent),
	sentinel(domain.ErrMissingCustomer, ClassPermanent),
	sentinel(domain.ErrMissingStatus, ClassPermanent),
	sentinel(domain.ErrBusinessInfoUnset, ClassPermanent),
	sentinel(broker.ErrClosed, ClassTemporary),

	// Transport-level transience before generic text, so a message like
	// "connection refused" is not mistaken for a provider rejection.
	substrings(ClassTemporary,
		"connection", "timeout", "timed out", "unavailable",
		"refused", "no route to host", "temporarily",
	),

	// Known-permanent provider vocabulary.
	substrings(ClassPermanent,
		"not found", "invalid", "validation", "malformed",
		"recipient blocked", "suppression list", "bounced",
	),
}

// Classify maps an error to its retry class. Unmatched errors are
// temporary: fail open toward retrying rather than silently dropping.
func Classify(err error) Class {
	if err == nil {
		return ClassTemporary
	}
	for _, r := range classificationRules {
		if r.match(err) {
			return r.class
		}
	}
	return ClassTemporary
}
