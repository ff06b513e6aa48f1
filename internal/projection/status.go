// Package projection derives read-only views of payments from their event
// streams. It folds events but never decides, so it cannot reject.
package projection

import (
	"github.com/josh-kwaku/payment-decider/internal/decider"
	"github.com/josh-kwaku/payment-decider/internal/domain"
)

type Status string

const (
	StatusCreated    Status = "created"
	StatusAuthorised Status = "authorised"
	StatusCaptured   Status = "captured"
	StatusRefunded   Status = "refunded"
	StatusCancelled  Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusCreated, StatusAuthorised, StatusCaptured, StatusRefunded, StatusCancelled:
		return true
	}
	return false
}

type PaymentStatus struct {
	ID                        string
	Amount                    int64
	Status                    Status
	RefundedAmount            int64
	RemainingRefundableAmount int64
	// Version is the number of events the summary was built from.
	Version int64
}

// BuildPaymentStatus summarizes the payment id from events. Events for other
// payments are skipped. It returns nil if id was never created.
func BuildPaymentStatus(id string, events []domain.Event) *PaymentStatus {
	own := make([]domain.Event, 0, len(events))
	for _, e := range events {
		if e != nil && e.PaymentID() == id {
			own = append(own, e)
		}
	}

	state := decider.Hydrate(own)
	if !state.Created.Created {
		return nil
	}

	return &PaymentStatus{
		ID:                        id,
		Amount:                    state.Created.Amount,
		Status:                    statusOf(state),
		RefundedAmount:            state.Refunded.Amount,
		RemainingRefundableAmount: state.RemainingRefundable(),
		Version:                   int64(len(own)),
	}
}

func statusOf(s domain.State) Status {
	switch {
	case s.Cancelled.Cancelled:
		return StatusCancelled
	case s.Refunded.Refunded:
		return StatusRefunded
	case s.Captured.Captured:
		return StatusCaptured
	case s.Authorised.Authorised:
		return StatusAuthorised
	default:
		return StatusCreated
	}
}
