package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/josh-kwaku/payment-decider/internal/domain"
)

const paymentEventColumns = `position, id, payment_id, version, event_type, actor, correlation_id, payload, created_at`

const pqUniqueViolation = "23505"

// PaymentEventRepository is the append-only store of payment streams.
type PaymentEventRepository struct {
	db *sql.DB
}

func NewPaymentEventRepository(db *sql.DB) *PaymentEventRepository {
	return &PaymentEventRepository{db: db}
}

// Append writes events to the end of paymentID's stream, but only if the
// stream head is still expectedVersion. Otherwise nothing is written and
// domain.ErrVersionConflict is returned. Every record carries meta.
func (r *PaymentEventRepository) Append(ctx context.Context, paymentID string, expectedVersion int64, meta domain.Metadata, events []domain.Event) ([]domain.EventRecord, error) {
	if len(events) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Append: begin: %w", err)
	}
	defer tx.Rollback()

	var head int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM payment_events WHERE payment_id = $1`, paymentID,
	).Scan(&head)
	if err != nil {
		return nil, fmt.Errorf("Append: head: %w", err)
	}
	if head != expectedVersion {
		return nil, fmt.Errorf("Append: payment %s at version %d, expected %d: %w",
			paymentID, head, expectedVersion, domain.ErrVersionConflict)
	}

	now := time.Now().UTC()
	records := make([]domain.EventRecord, 0, len(events))
	for i, e := range events {
		if e == nil || e.PaymentID() != paymentID {
			return nil, fmt.Errorf("Append: event %d does not belong to payment %s: %w", i, paymentID, domain.ErrInvalidEvent)
		}
		typ, payload, err := domain.EncodeEvent(e)
		if err != nil {
			return nil, fmt.Errorf("Append: %w", err)
		}

		rec := domain.EventRecord{
			ID:            uuid.New(),
			PaymentID:     paymentID,
			Version:       expectedVersion + int64(i) + 1,
			Type:          typ,
			Actor:         meta.Actor,
			CorrelationID: meta.CorrelationID,
			Payload:       payload,
			CreatedAt:     now,
		}
		err = tx.QueryRowContext(ctx,
			`INSERT INTO payment_events (id, payment_id, version, event_type, actor, correlation_id, payload, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING position`,
			rec.ID, rec.PaymentID, rec.Version, rec.Type, rec.Actor, rec.CorrelationID, []byte(rec.Payload), rec.CreatedAt,
		).Scan(&rec.Position)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
				return nil, fmt.Errorf("Append: payment %s version %d: %w", paymentID, rec.Version, domain.ErrVersionConflict)
			}
			return nil, fmt.Errorf("Append: insert: %w", err)
		}
		records = append(records, rec)
	}

	if err := tx.Commit(); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return nil, fmt.Errorf("Append: commit: %w", domain.ErrVersionConflict)
		}
		return nil, fmt.Errorf("Append: commit: %w", err)
	}
	return records, nil
}

// GetByPaymentID returns the payment's stream in append order.
func (r *PaymentEventRepository) GetByPaymentID(ctx context.Context, paymentID string) ([]domain.EventRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentEventColumns+` FROM payment_events
		WHERE payment_id = $1 ORDER BY version`, paymentID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByPaymentID: %w", err)
	}
	defer rows.Close()

	var events []domain.EventRecord
	for rows.Next() {
		e, err := scanPaymentEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByPaymentID: scan: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByPaymentID: rows: %w", err)
	}
	return events, nil
}

func scanPaymentEvent(s scanner) (*domain.EventRecord, error) {
	var e domain.EventRecord
	var payload []byte
	err := s.Scan(
		&e.Position, &e.ID, &e.PaymentID, &e.Version, &e.Type, &e.Actor,
		&e.CorrelationID, &payload, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Payload = payload
	return &e, nil
}
