package decider

import "github.com/josh-kwaku/payment-decider/internal/domain"

// InitialState is the state of a payment with no events.
func InitialState() domain.State {
	return domain.State{}
}

// Evolve records evt on a copy of state. It never rejects: rules are enforced
// by Decide, the fold only records facts. Each event touches one facet.
func Evolve(state domain.State, evt domain.Event) domain.State {
	switch e := evt.(type) {
	case domain.PaymentCreated:
		if !state.Created.Created {
			state.Created = domain.CreatedFacet{Amount: e.Amount, Created: true}
		}
	case domain.PaymentAuthorised:
		state.Authorised = domain.AuthorisedFacet{Authorised: true}
	case domain.PaymentCaptured:
		state.Captured = domain.CapturedFacet{Captured: true}
	case domain.PaymentRefunded:
		total := state.Refunded.Amount + e.Amount
		state.Refunded = domain.RefundedFacet{
			Amount:   total,
			Refunded: state.Created.Amount > 0 && total == state.Created.Amount,
		}
	case domain.PaymentCancelled:
		state.Cancelled = domain.CancelledFacet{Cancelled: true}
	}
	return state
}
