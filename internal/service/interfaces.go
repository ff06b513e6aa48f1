package service

import (
	"context"

	"github.com/josh-kwaku/payment-decider/internal/domain"
	"github.com/josh-kwaku/payment-decider/internal/projection"
)

type eventReader interface {
	GetByPaymentID(ctx context.Context, paymentID string) ([]domain.EventRecord, error)
}

type statusWriter interface {
	GetStale(ctx context.Context, limit int) ([]string, error)
	Upsert(ctx context.Context, s *projection.PaymentStatus) error
}

type idempotencySweeper interface {
	CleanExpired(ctx context.Context) (int64, error)
}
