package repository_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/payment-decider/internal/domain"
	"github.com/josh-kwaku/payment-decider/internal/projection"
	"github.com/josh-kwaku/payment-decider/internal/repository"
	"github.com/josh-kwaku/payment-decider/internal/testutil"
)

func TestPaymentEventRepository_AppendAndLoad(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPaymentEventRepository(db)
	ctx := context.Background()
	id := uuid.NewString()

	recs, err := repo.Append(ctx, id, 0, testutil.TestMeta, []domain.Event{domain.PaymentCreated{ID: id, Amount: 100}})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(1), recs[0].Version)
	assert.NotZero(t, recs[0].Position)

	_, err = repo.Append(ctx, id, 1, testutil.TestMeta, []domain.Event{domain.PaymentAuthorised{ID: id}})
	require.NoError(t, err)

	loaded, err := repo.GetByPaymentID(ctx, id)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	events, err := domain.DecodeRecords(loaded)
	require.NoError(t, err)
	assert.Equal(t, []domain.Event{
		domain.PaymentCreated{ID: id, Amount: 100},
		domain.PaymentAuthorised{ID: id},
	}, events)
	assert.Equal(t, testutil.TestActor, loaded[1].Actor)
	assert.Equal(t, testutil.TestMeta.CorrelationID, loaded[1].CorrelationID)
	assert.Equal(t, recs[0].CorrelationID, loaded[0].CorrelationID)
}

func TestPaymentEventRepository_StaleExpectedVersion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPaymentEventRepository(db)
	ctx := context.Background()
	id := uuid.NewString()
	testutil.SeedEvents(t, db, id, domain.PaymentCreated{ID: id, Amount: 100})

	_, err := repo.Append(ctx, id, 0, testutil.TestMeta, []domain.Event{domain.PaymentCreated{ID: id, Amount: 100}})
	require.ErrorIs(t, err, domain.ErrVersionConflict)
	assert.Equal(t, 1, testutil.CountEvents(t, db, id))
}

func TestPaymentEventRepository_RejectsForeignEvents(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPaymentEventRepository(db)
	id := uuid.NewString()

	_, err := repo.Append(context.Background(), id, 0, testutil.TestMeta, []domain.Event{domain.PaymentCreated{ID: "someone-else", Amount: 1}})
	require.ErrorIs(t, err, domain.ErrInvalidEvent)
	assert.Zero(t, testutil.CountEvents(t, db, id))
}

func TestPaymentEventRepository_ConcurrentAppendsOneWins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPaymentEventRepository(db)
	ctx := context.Background()
	id := uuid.NewString()
	testutil.SeedEvents(t, db, id, domain.PaymentCreated{ID: id, Amount: 100})

	const writers = 5
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Append(ctx, id, 1, testutil.TestMeta, []domain.Event{domain.PaymentAuthorised{ID: id}})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrVersionConflict)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 2, testutil.CountEvents(t, db, id))
}

func TestPaymentStatusRepository_UpsertAndStale(t *testing.T) {
	db := testutil.SetupTestDB(t)
	statuses := repository.NewPaymentStatusRepository(db)
	ctx := context.Background()
	id := uuid.NewString()
	testutil.SeedEvents(t, db, id, testutil.CapturedPayment(id, 100)...)

	stale, err := statuses.GetStale(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, stale)

	require.NoError(t, statuses.Upsert(ctx, &projection.PaymentStatus{
		ID: id, Amount: 100, Status: projection.StatusCaptured, RemainingRefundableAmount: 100, Version: 3,
	}))

	stale, err = statuses.GetStale(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, stale)

	// An older summary must not overwrite a newer one.
	require.NoError(t, statuses.Upsert(ctx, &projection.PaymentStatus{
		ID: id, Amount: 100, Status: projection.StatusAuthorised, RemainingRefundableAmount: 100, Version: 2,
	}))
	list, total, err := statuses.List(ctx, projection.StatusCaptured, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, int64(3), list[0].Version)

	list, total, err = statuses.List(ctx, projection.StatusAuthorised, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
}
