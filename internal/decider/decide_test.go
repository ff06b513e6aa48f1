package decider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/payment-decider/internal/domain"
)

const payID = "pay-1"

var (
	evCreated    = domain.PaymentCreated{ID: payID, Amount: 100}
	evAuthorised = domain.PaymentAuthorised{ID: payID}
	evCaptured   = domain.PaymentCaptured{ID: payID}
	evCancelled  = domain.PaymentCancelled{ID: payID}
)

func refunded(amount int64) domain.Event {
	return domain.PaymentRefunded{ID: payID, Amount: amount}
}

func history(events ...domain.Event) []domain.Event { return events }

// variants runs every case through both entry points.
var variants = []struct {
	name string
	fn   Func
}{
	{name: "fold", fn: ProcessCommand},
	{name: "replay", fn: DecideReplay},
}

func TestDecide_RuleTable(t *testing.T) {
	tests := []struct {
		name    string
		history []domain.Event
		cmd     domain.Command
		want    []domain.Event
		wantErr error
	}{
		{
			name: "create on empty history",
			cmd:  domain.CreatePayment{ID: payID, Amount: 100},
			want: history(domain.PaymentCreated{ID: payID, Amount: 100}),
		},
		{
			name:    "create twice",
			history: history(evCreated),
			cmd:     domain.CreatePayment{ID: payID, Amount: 100},
			wantErr: domain.ErrAlreadyExists,
		},
		{
			name:    "authorise before create",
			cmd:     domain.AuthorisePayment{ID: payID},
			wantErr: domain.ErrNotCreated,
		},
		{
			name:    "authorise created",
			history: history(evCreated),
			cmd:     domain.AuthorisePayment{ID: payID},
			want:    history(evAuthorised),
		},
		{
			name:    "authorise cancelled",
			history: history(evCreated, evCancelled),
			cmd:     domain.AuthorisePayment{ID: payID},
			wantErr: domain.ErrCancelled,
		},
		{
			name:    "authorise twice",
			history: history(evCreated, evAuthorised),
			cmd:     domain.AuthorisePayment{ID: payID},
			wantErr: domain.ErrAlreadyAuthorised,
		},
		{
			name:    "capture before authorise",
			history: history(evCreated),
			cmd:     domain.CapturePayment{ID: payID},
			wantErr: domain.ErrNotAuthorised,
		},
		{
			name:    "capture authorised",
			history: history(evCreated, evAuthorised),
			cmd:     domain.CapturePayment{ID: payID},
			want:    history(evCaptured),
		},
		{
			name:    "capture cancelled",
			history: history(evCreated, evAuthorised, evCancelled),
			cmd:     domain.CapturePayment{ID: payID},
			wantErr: domain.ErrCancelled,
		},
		{
			name:    "capture twice",
			history: history(evCreated, evAuthorised, evCaptured),
			cmd:     domain.CapturePayment{ID: payID},
			wantErr: domain.ErrAlreadyCaptured,
		},
		{
			name:    "refund before create",
			cmd:     domain.RefundPayment{ID: payID, Amount: 10},
			wantErr: domain.ErrNotCreated,
		},
		{
			name:    "refund uncaptured reports not captured before amount",
			history: history(evCreated, evAuthorised),
			cmd:     domain.RefundPayment{ID: payID, Amount: 1000},
			wantErr: domain.ErrNotCaptured,
		},
		{
			name:    "refund part",
			history: history(evCreated, evAuthorised, evCaptured),
			cmd:     domain.RefundPayment{ID: payID, Amount: 50},
			want:    history(refunded(50)),
		},
		{
			name:    "refund exact remainder",
			history: history(evCreated, evAuthorised, evCaptured, refunded(60)),
			cmd:     domain.RefundPayment{ID: payID, Amount: 40},
			want:    history(refunded(40)),
		},
		{
			name:    "refund over remainder",
			history: history(evCreated, evAuthorised, evCaptured, refunded(60)),
			cmd:     domain.RefundPayment{ID: payID, Amount: 41},
			wantErr: domain.ErrRefundExceedsCaptured,
		},
		{
			name:    "refund after full refund",
			history: history(evCreated, evAuthorised, evCaptured, refunded(100)),
			cmd:     domain.RefundPayment{ID: payID, Amount: 1},
			wantErr: domain.ErrRefundExceedsCaptured,
		},
		{
			name:    "cancel before create",
			cmd:     domain.CancelPayment{ID: payID},
			wantErr: domain.ErrNotCreated,
		},
		{
			name:    "cancel created",
			history: history(evCreated),
			cmd:     domain.CancelPayment{ID: payID},
			want:    history(evCancelled),
		},
		{
			name:    "cancel authorised",
			history: history(evCreated, evAuthorised),
			cmd:     domain.CancelPayment{ID: payID},
			want:    history(evCancelled),
		},
		{
			name:    "cancel captured",
			history: history(evCreated, evAuthorised, evCaptured),
			cmd:     domain.CancelPayment{ID: payID},
			wantErr: domain.ErrAlreadyCaptured,
		},
		{
			name:    "cancel twice",
			history: history(evCreated, evCancelled),
			cmd:     domain.CancelPayment{ID: payID},
			wantErr: domain.ErrAlreadyCancelled,
		},
		{
			name:    "cancel with refund recorded",
			history: history(evCreated, refunded(10)),
			cmd:     domain.CancelPayment{ID: payID},
			wantErr: domain.ErrAlreadyCaptured,
		},
		{
			name:    "create with zero amount",
			cmd:     domain.CreatePayment{ID: payID, Amount: 0},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "refund with negative amount",
			history: history(evCreated, evAuthorised, evCaptured),
			cmd:     domain.RefundPayment{ID: payID, Amount: -5},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "empty payment id",
			cmd:     domain.AuthorisePayment{},
			wantErr: domain.ErrInvalidCommand,
		},
		{
			name:    "nil command",
			cmd:     nil,
			wantErr: domain.ErrInvalidCommand,
		},
	}

	for _, v := range variants {
		for _, tc := range tests {
			t.Run(v.name+"/"+tc.name, func(t *testing.T) {
				got, err := v.fn(tc.cmd, tc.history)
				if tc.wantErr != nil {
					require.ErrorIs(t, err, tc.wantErr)
					assert.Nil(t, got)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, tc.want, got)
			})
		}
	}
}

func TestDecide_ViolationCarriesReason(t *testing.T) {
	_, err := Decide(domain.CapturePayment{ID: payID}, InitialState())

	var v *domain.RuleViolation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, domain.ReasonNotAuthorised, v.Reason)
	assert.Equal(t, payID, v.PaymentID)
	assert.ErrorIs(t, err, domain.ErrRuleViolation)
}

func TestDecideReplay_FiltersOtherPayments(t *testing.T) {
	shared := history(
		domain.PaymentCreated{ID: "other", Amount: 500},
		domain.PaymentAuthorised{ID: "other"},
		domain.PaymentCaptured{ID: "other"},
		evCreated,
		domain.PaymentRefunded{ID: "other", Amount: 500},
	)

	_, err := DecideReplay(domain.RefundPayment{ID: payID, Amount: 10}, shared)
	require.ErrorIs(t, err, domain.ErrNotCaptured)

	got, err := DecideReplay(domain.CancelPayment{ID: payID}, shared)
	require.NoError(t, err)
	assert.Equal(t, history(evCancelled), got)

	_, err = DecideReplay(domain.CreatePayment{ID: "other", Amount: 1}, shared)
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestDecide_DoesNotMutateHistory(t *testing.T) {
	h := history(evCreated, evAuthorised, evCaptured)
	before := append([]domain.Event(nil), h...)

	for _, v := range variants {
		_, err := v.fn(domain.RefundPayment{ID: payID, Amount: 500}, h)
		require.Error(t, err)
		_, err = v.fn(domain.RefundPayment{ID: payID, Amount: 50}, h)
		require.NoError(t, err)
	}
	assert.Equal(t, before, h)
}

func TestFullLifecycle(t *testing.T) {
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			h := history(evCreated, evAuthorised, evCaptured)

			got, err := v.fn(domain.RefundPayment{ID: payID, Amount: 50}, h)
			require.NoError(t, err)
			require.Equal(t, history(refunded(50)), got)
			h = append(h, got...)

			got, err = v.fn(domain.RefundPayment{ID: payID, Amount: 50}, h)
			require.NoError(t, err)
			require.Equal(t, history(refunded(50)), got)
			h = append(h, got...)

			state := Hydrate(h)
			assert.Equal(t, int64(100), state.Refunded.Amount)
			assert.True(t, state.Refunded.Refunded)

			got, err = v.fn(domain.RefundPayment{ID: payID, Amount: 1}, h)
			require.ErrorIs(t, err, domain.ErrRefundExceedsCaptured)
			assert.Empty(t, got)
		})
	}
}

func TestCreateThenCreate(t *testing.T) {
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			got, err := v.fn(domain.CreatePayment{ID: payID, Amount: 100}, nil)
			require.NoError(t, err)
			require.Equal(t, history(domain.PaymentCreated{ID: payID, Amount: 100}), got)

			again, err := v.fn(domain.CreatePayment{ID: payID, Amount: 100}, got)
			require.ErrorIs(t, err, domain.ErrAlreadyExists)
			assert.Nil(t, again)
		})
	}
}
