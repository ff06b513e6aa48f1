package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"

	"github.com/josh-kwaku/payment-decider/internal/config"
	"github.com/josh-kwaku/payment-decider/internal/decider"
	"github.com/josh-kwaku/payment-decider/internal/domain"
	"github.com/josh-kwaku/payment-decider/internal/logging"
	"github.com/josh-kwaku/payment-decider/internal/projection"
)

type eventStore interface {
	Append(ctx context.Context, paymentID string, expectedVersion int64, meta domain.Metadata, events []domain.Event) ([]domain.EventRecord, error)
	GetByPaymentID(ctx context.Context, paymentID string) ([]domain.EventRecord, error)
}

type statusRepo interface {
	List(ctx context.Context, status projection.Status, limit, offset int) ([]projection.PaymentStatus, int, error)
}

type Service struct {
	events     eventStore
	statuses   statusRepo
	decide     decider.Func
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

func NewService(events eventStore, statuses statusRepo, decide decider.Func, cfg *config.Config) *Service {
	return &Service{
		events:     events,
		statuses:   statuses,
		decide:     decide,
		maxRetries: cfg.AppendMaxRetries,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
}

// Handle loads the command's payment stream, decides, and appends the result.
// If another writer extends the stream in between, the whole cycle runs again
// against the fresh history. Rule violations are returned as-is and never
// retried. Appended events carry meta.
func (s *Service) Handle(ctx context.Context, cmd domain.Command, meta domain.Metadata) ([]domain.EventRecord, error) {
	if cmd == nil {
		return nil, fmt.Errorf("Handle: %w", domain.ErrInvalidCommand)
	}
	ctx = logging.WithPayment(ctx, cmd.PaymentID())
	log := logging.FromContext(ctx)

	var (
		records []domain.EventRecord
		attempt int
	)
	op := func() error {
		attempt++
		stream, err := s.events.GetByPaymentID(ctx, cmd.PaymentID())
		if err != nil {
			return backoff.Permanent(err)
		}
		history, err := domain.DecodeRecords(stream)
		if err != nil {
			return backoff.Permanent(err)
		}

		events, err := s.decide(cmd, history)
		if err != nil {
			return backoff.Permanent(err)
		}

		records, err = s.events.Append(ctx, cmd.PaymentID(), headVersion(stream), meta, events)
		if errors.Is(err, domain.ErrVersionConflict) {
			log.Warn("append conflict, deciding again", "command", cmd.CommandName(), "attempt", attempt)
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), s.maxRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, fmt.Errorf("Handle: %s: %w", cmd.CommandName(), err)
	}

	log.Info("command accepted", "command", cmd.CommandName(), "events", len(records), "attempts", attempt)
	return records, nil
}

// GetStatus builds the payment summary straight from its stream, so it is
// never behind the last accepted command.
func (s *Service) GetStatus(ctx context.Context, paymentID string) (*projection.PaymentStatus, error) {
	stream, err := s.events.GetByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("GetStatus: %w", err)
	}
	events, err := domain.DecodeRecords(stream)
	if err != nil {
		return nil, fmt.Errorf("GetStatus: %w", err)
	}

	status := projection.BuildPaymentStatus(paymentID, events)
	if status == nil {
		return nil, fmt.Errorf("GetStatus: %w", domain.ErrNotFound)
	}
	return status, nil
}

func (s *Service) GetHistory(ctx context.Context, paymentID string) ([]domain.EventRecord, error) {
	stream, err := s.events.GetByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("GetHistory: %w", err)
	}
	if len(stream) == 0 {
		return nil, fmt.Errorf("GetHistory: %w", domain.ErrNotFound)
	}
	return stream, nil
}

// ListPayments reads the materialized table, which trails the streams by up
// to one projector interval.
func (s *Service) ListPayments(ctx context.Context, status projection.Status, limit, offset int) ([]projection.PaymentStatus, int, error) {
	if status != "" && !status.IsValid() {
		return nil, 0, fmt.Errorf("ListPayments: unknown status %q: %w", status, domain.ErrInvalidRequest)
	}
	list, total, err := s.statuses.List(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ListPayments: %w", err)
	}
	return list, total, nil
}

func headVersion(stream []domain.EventRecord) int64 {
	if len(stream) == 0 {
		return 0
	}
	return stream[len(stream)-1].Version
}
