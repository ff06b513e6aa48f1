package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/josh-kwaku/payment-decider/internal/domain"
	"github.com/josh-kwaku/payment-decider/internal/projection"
)

// Projector keeps the payment_status table in step with the event streams.
// Each tick it rebuilds the summaries of payments whose row is missing or
// older than the stream head.
type Projector struct {
	events    eventReader
	statuses  statusWriter
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

func NewProjector(events eventReader, statuses statusWriter, logger *slog.Logger, interval time.Duration, batchSize int) *Projector {
	return &Projector{
		events:    events,
		statuses:  statuses,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
	}
}

func (p *Projector) Start(ctx context.Context) {
	p.logger.Info("projector started", "interval", p.interval, "batch_size", p.batchSize)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("projector stopped")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Projector) poll(ctx context.Context) int {
	ids, err := p.statuses.GetStale(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("failed to fetch stale payments", "error", err)
		return 0
	}

	projected := 0
	for _, id := range ids {
		if err := p.project(ctx, id); err != nil {
			p.logger.Error("failed to project payment", "payment_id", id, "error", err)
			continue
		}
		projected++
	}
	if projected > 0 {
		p.logger.Debug("projected payments", "count", projected)
	}
	return projected
}

func (p *Projector) project(ctx context.Context, paymentID string) error {
	stream, err := p.events.GetByPaymentID(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("project: %w", err)
	}
	events, err := domain.DecodeRecords(stream)
	if err != nil {
		return fmt.Errorf("project: %w", err)
	}

	status := projection.BuildPaymentStatus(paymentID, events)
	if status == nil {
		// A stream without PaymentCreated cannot come from the decider.
		return fmt.Errorf("project: payment %s has events but was never created: %w", paymentID, domain.ErrInvalidEvent)
	}

	if err := p.statuses.Upsert(ctx, status); err != nil {
		return fmt.Errorf("project: %w", err)
	}
	return nil
}

// IdempotencySweeper deletes expired idempotency cache entries on a timer.
type IdempotencySweeper struct {
	cache    idempotencySweeper
	logger   *slog.Logger
	interval time.Duration
}

func NewIdempotencySweeper(cache idempotencySweeper, logger *slog.Logger, interval time.Duration) *IdempotencySweeper {
	return &IdempotencySweeper{cache: cache, logger: logger, interval: interval}
}

func (s *IdempotencySweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.cache.CleanExpired(ctx)
			if err != nil {
				s.logger.Error("failed to clean idempotency cache", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Info("cleaned idempotency cache", "deleted", n)
			}
		}
	}
}
