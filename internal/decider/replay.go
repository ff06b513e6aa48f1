package decider

import "github.com/josh-kwaku/payment-decider/internal/domain"

// DecideReplay decides cmd by scanning history directly, with no folded
// state. Events for other payments are ignored, so a shared history may be
// passed. Each rule costs a scan of the history.
func DecideReplay(cmd domain.Command, history []domain.Event) ([]domain.Event, error) {
	if cmd == nil {
		return decide(cmd, nil)
	}
	return decide(cmd, historyFacts{id: cmd.PaymentID(), events: history})
}

type historyFacts struct {
	id     string
	events []domain.Event
}

func (h historyFacts) created() (int64, bool) {
	for _, e := range h.events {
		if c, ok := e.(domain.PaymentCreated); ok && c.ID == h.id {
			return c.Amount, true
		}
	}
	return 0, false
}

func (h historyFacts) authorised() bool {
	return h.has(domain.EventTypePaymentAuthorised)
}

func (h historyFacts) captured() bool {
	return h.has(domain.EventTypePaymentCaptured)
}

func (h historyFacts) cancelled() bool {
	return h.has(domain.EventTypePaymentCancelled)
}

func (h historyFacts) refundedAmount() int64 {
	var total int64
	for _, e := range h.events {
		if r, ok := e.(domain.PaymentRefunded); ok && r.ID == h.id {
			total += r.Amount
		}
	}
	return total
}

func (h historyFacts) has(t domain.EventType) bool {
	for _, e := range h.events {
		if e != nil && e.Type() == t && e.PaymentID() == h.id {
			return true
		}
	}
	return false
}
