package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/payment-decider/internal/domain"
	"github.com/josh-kwaku/payment-decider/internal/projection"
	"github.com/josh-kwaku/payment-decider/internal/repository"
	"github.com/josh-kwaku/payment-decider/internal/testutil"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeEvents map[string][]domain.Event

func (f fakeEvents) GetByPaymentID(_ context.Context, id string) ([]domain.EventRecord, error) {
	var out []domain.EventRecord
	for i, e := range f[id] {
		typ, payload, err := domain.EncodeEvent(e)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.EventRecord{ID: uuid.New(), PaymentID: id, Version: int64(i + 1), Type: typ, Payload: payload})
	}
	return out, nil
}

type fakeStatuses struct {
	mu       sync.Mutex
	stale    []string
	staleErr error
	upserted map[string]projection.PaymentStatus
}

func (f *fakeStatuses) GetStale(_ context.Context, limit int) ([]string, error) {
	if f.staleErr != nil {
		return nil, f.staleErr
	}
	if len(f.stale) > limit {
		return f.stale[:limit], nil
	}
	return f.stale, nil
}

func (f *fakeStatuses) Upsert(_ context.Context, s *projection.PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upserted == nil {
		f.upserted = map[string]projection.PaymentStatus{}
	}
	f.upserted[s.ID] = *s
	return nil
}

func TestProjector_Poll(t *testing.T) {
	events := fakeEvents{
		"p1": {
			domain.PaymentCreated{ID: "p1", Amount: 100},
			domain.PaymentAuthorised{ID: "p1"},
		},
		"p2": {
			domain.PaymentCreated{ID: "p2", Amount: 50},
			domain.PaymentCancelled{ID: "p2"},
		},
		"orphan": {
			domain.PaymentAuthorised{ID: "orphan"},
		},
	}
	statuses := &fakeStatuses{stale: []string{"p1", "orphan", "p2"}}
	p := NewProjector(events, statuses, discard, time.Second, 10)

	n := p.poll(context.Background())

	assert.Equal(t, 2, n)
	require.Len(t, statuses.upserted, 2)
	assert.Equal(t, projection.StatusAuthorised, statuses.upserted["p1"].Status)
	assert.Equal(t, int64(2), statuses.upserted["p1"].Version)
	assert.Equal(t, projection.StatusCancelled, statuses.upserted["p2"].Status)
}

func TestProjector_PollRespectsBatchSize(t *testing.T) {
	events := fakeEvents{
		"p1": {domain.PaymentCreated{ID: "p1", Amount: 1}},
		"p2": {domain.PaymentCreated{ID: "p2", Amount: 2}},
	}
	statuses := &fakeStatuses{stale: []string{"p1", "p2"}}
	p := NewProjector(events, statuses, discard, time.Second, 1)

	assert.Equal(t, 1, p.poll(context.Background()))
}

func TestProjector_PollStaleError(t *testing.T) {
	statuses := &fakeStatuses{staleErr: errors.New("db down")}
	p := NewProjector(fakeEvents{}, statuses, discard, time.Second, 10)

	assert.Zero(t, p.poll(context.Background()))
	assert.Empty(t, statuses.upserted)
}

func TestProjector_StartStopsOnCancel(t *testing.T) {
	events := fakeEvents{"p1": {domain.PaymentCreated{ID: "p1", Amount: 1}}}
	statuses := &fakeStatuses{stale: []string{"p1"}}
	p := NewProjector(events, statuses, discard, 5*time.Millisecond, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		statuses.mu.Lock()
		defer statuses.mu.Unlock()
		return len(statuses.upserted) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("projector did not stop")
	}
}

func TestProjector_Postgres(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	eventsRepo := repository.NewPaymentEventRepository(db)
	statusRepo := repository.NewPaymentStatusRepository(db)

	id := uuid.NewString()
	testutil.SeedEvents(t, db, id, testutil.CapturedPayment(id, 100)...)
	testutil.SeedEvents(t, db, id, domain.PaymentRefunded{ID: id, Amount: 100})

	p := NewProjector(eventsRepo, statusRepo, discard, time.Second, 10)
	assert.Equal(t, 1, p.poll(ctx))

	list, _, err := statusRepo.List(ctx, projection.StatusRefunded, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	got := list[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, int64(4), got.Version)
	assert.Zero(t, got.RemainingRefundableAmount)

	assert.Zero(t, p.poll(ctx))
}

type countingSweeper struct {
	mu    sync.Mutex
	calls int
}

func (c *countingSweeper) CleanExpired(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return 1, nil
}

func TestIdempotencySweeper_Start(t *testing.T) {
	cache := &countingSweeper{}
	s := NewIdempotencySweeper(cache, discard, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		cache.mu.Lock()
		defer cache.mu.Unlock()
		return cache.calls >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
