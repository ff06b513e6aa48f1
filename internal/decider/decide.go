package decider

import "github.com/josh-kwaku/payment-decider/internal/domain"

// Decide returns the events that cmd produces against a folded state, or a
// *domain.RuleViolation. A rejected command never yields events.
func Decide(cmd domain.Command, state domain.State) ([]domain.Event, error) {
	return decide(cmd, stateFacts(state))
}

type stateFacts domain.State

func (s stateFacts) created() (int64, bool) { return s.Created.Amount, s.Created.Created }
func (s stateFacts) authorised() bool       { return s.Authorised.Authorised }
func (s stateFacts) captured() bool         { return s.Captured.Captured }
func (s stateFacts) cancelled() bool        { return s.Cancelled.Cancelled }
func (s stateFacts) refundedAmount() int64  { return s.Refunded.Amount }
