package domain

// State is the folded view of one payment's stream. Every facet is a value,
// so copying a State copies all of it.
type State struct {
	Created    CreatedFacet
	Authorised AuthorisedFacet
	Captured   CapturedFacet
	Refunded   RefundedFacet
	Cancelled  CancelledFacet
}

type CreatedFacet struct {
	Amount  int64
	Created bool
}

type AuthorisedFacet struct {
	Authorised bool
}

type CapturedFacet struct {
	Captured bool
}

// RefundedFacet accumulates every refund. Refunded is true once the total
// equals a positive created amount.
type RefundedFacet struct {
	Amount   int64
	Refunded bool
}

type CancelledFacet struct {
	Cancelled bool
}

// RemainingRefundable is the amount still available to refund.
func (s State) RemainingRefundable() int64 {
	return s.Created.Amount - s.Refunded.Amount
}
