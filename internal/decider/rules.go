package decider

import (
	"fmt"

	"github.com/josh-kwaku/payment-decider/internal/domain"
)

// facts is what the rule table needs to know about a payment. The folding
// decider answers from a State; the replay decider scans the history.
type facts interface {
	created() (amount int64, ok bool)
	authorised() bool
	captured() bool
	cancelled() bool
	refundedAmount() int64
}

// decide is the single rule table shared by both deciders. Preconditions are
// checked in order and the first failure is reported.
func decide(cmd domain.Command, f facts) ([]domain.Event, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	id := cmd.PaymentID()

	switch c := cmd.(type) {
	case domain.CreatePayment:
		if _, ok := f.created(); ok {
			return nil, violation(domain.ReasonAlreadyExists, id, "payment already exists")
		}
		return accept(domain.PaymentCreated{ID: id, Amount: c.Amount})

	case domain.AuthorisePayment:
		if _, ok := f.created(); !ok {
			return nil, violation(domain.ReasonNotCreated, id, "payment not created")
		}
		if f.cancelled() {
			return nil, violation(domain.ReasonCancelled, id, "payment cancelled")
		}
		if f.authorised() {
			return nil, violation(domain.ReasonAlreadyAuthorised, id, "payment already authorised")
		}
		return accept(domain.PaymentAuthorised{ID: id})

	case domain.CapturePayment:
		if !f.authorised() {
			return nil, violation(domain.ReasonNotAuthorised, id, "payment not authorised")
		}
		if f.cancelled() {
			return nil, violation(domain.ReasonCancelled, id, "payment cancelled")
		}
		if f.captured() {
			return nil, violation(domain.ReasonAlreadyCaptured, id, "payment already captured")
		}
		return accept(domain.PaymentCaptured{ID: id})

	case domain.RefundPayment:
		amount, ok := f.created()
		if !ok {
			return nil, violation(domain.ReasonNotCreated, id, "payment not created")
		}
		if !f.captured() {
			return nil, violation(domain.ReasonNotCaptured, id, "payment not captured")
		}
		if f.cancelled() {
			return nil, violation(domain.ReasonCancelled, id, "payment cancelled")
		}
		if remaining := amount - f.refundedAmount(); c.Amount > remaining {
			return nil, violation(domain.ReasonRefundExceedsCaptured, id,
				fmt.Sprintf("refund of %d exceeds remaining captured amount %d", c.Amount, remaining))
		}
		return accept(domain.PaymentRefunded{ID: id, Amount: c.Amount})

	case domain.CancelPayment:
		if _, ok := f.created(); !ok {
			return nil, violation(domain.ReasonNotCreated, id, "payment not created")
		}
		if f.cancelled() {
			return nil, violation(domain.ReasonAlreadyCancelled, id, "payment already cancelled")
		}
		if f.captured() {
			return nil, violation(domain.ReasonAlreadyCaptured, id, "payment already captured")
		}
		if f.refundedAmount() != 0 {
			return nil, violation(domain.ReasonAlreadyCaptured, id, "payment has refunds recorded")
		}
		return accept(domain.PaymentCancelled{ID: id})
	}

	return nil, fmt.Errorf("decide: unsupported command %T: %w", cmd, domain.ErrInvalidCommand)
}

func validate(cmd domain.Command) error {
	if cmd == nil {
		return fmt.Errorf("decide: nil command: %w", domain.ErrInvalidCommand)
	}
	if cmd.PaymentID() == "" {
		return fmt.Errorf("decide: %s: empty payment id: %w", cmd.CommandName(), domain.ErrInvalidCommand)
	}
	switch c := cmd.(type) {
	case domain.CreatePayment:
		if c.Amount <= 0 {
			return fmt.Errorf("decide: create %s: %w", c.ID, domain.ErrInvalidAmount)
		}
	case domain.RefundPayment:
		if c.Amount <= 0 {
			return fmt.Errorf("decide: refund %s: %w", c.ID, domain.ErrInvalidAmount)
		}
	}
	return nil
}

func accept(evt domain.Event) ([]domain.Event, error) {
	return []domain.Event{evt}, nil
}

func violation(reason domain.Reason, id, msg string) error {
	return &domain.RuleViolation{Reason: reason, PaymentID: id, Message: msg}
}
