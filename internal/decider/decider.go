// Package decider holds the payment decision engine: a pure fold over the
// event stream and a single rule table reachable through two entry points,
// one deciding from folded state and one replaying the raw history.
package decider

import (
	"fmt"

	"github.com/josh-kwaku/payment-decider/internal/domain"
)

// Decider pairs a decision function with the fold that rebuilds its state.
type Decider[C, E, S any] struct {
	Decide  func(C, S) ([]E, error)
	Evolve  func(S, E) S
	Initial func() S
}

// Hydrate folds events, in append order, starting from the initial state.
func (d Decider[C, E, S]) Hydrate(events []E) S {
	state := d.Initial()
	for _, e := range events {
		state = d.Evolve(state, e)
	}
	return state
}

// Process decides cmd against the state hydrated from events.
func (d Decider[C, E, S]) Process(cmd C, events []E) ([]E, error) {
	return d.Decide(cmd, d.Hydrate(events))
}

var Payment = Decider[domain.Command, domain.Event, domain.State]{
	Decide:  Decide,
	Evolve:  Evolve,
	Initial: InitialState,
}

// Hydrate expects the history of a single payment.
func Hydrate(events []domain.Event) domain.State {
	return Payment.Hydrate(events)
}

func ProcessCommand(cmd domain.Command, events []domain.Event) ([]domain.Event, error) {
	return Payment.Process(cmd, events)
}

// Mode selects which entry point decides against a loaded history.
type Mode string

const (
	ModeFold   Mode = "fold"
	ModeReplay Mode = "replay"
)

// Func decides a command against a payment's full history.
type Func func(cmd domain.Command, history []domain.Event) ([]domain.Event, error)

func ForMode(m Mode) (Func, error) {
	switch m {
	case ModeFold:
		return ProcessCommand, nil
	case ModeReplay:
		return DecideReplay, nil
	default:
		return nil, fmt.Errorf("ForMode: unknown decider mode %q", m)
	}
}
