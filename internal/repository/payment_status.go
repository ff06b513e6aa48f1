package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/josh-kwaku/payment-decider/internal/projection"
)

const paymentStatusColumns = `payment_id, amount, status, refunded_amount, remaining_refundable_amount, version`

// PaymentStatusRepository stores the materialized payment_status read model.
type PaymentStatusRepository struct {
	db *sql.DB
}

func NewPaymentStatusRepository(db *sql.DB) *PaymentStatusRepository {
	return &PaymentStatusRepository{db: db}
}

// Upsert writes s unless the stored row was built from a newer stream version.
func (r *PaymentStatusRepository) Upsert(ctx context.Context, s *projection.PaymentStatus) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payment_status (payment_id, amount, status, refunded_amount, remaining_refundable_amount, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (payment_id) DO UPDATE SET
			amount = EXCLUDED.amount,
			status = EXCLUDED.status,
			refunded_amount = EXCLUDED.refunded_amount,
			remaining_refundable_amount = EXCLUDED.remaining_refundable_amount,
			version = EXCLUDED.version,
			updated_at = now()
		WHERE payment_status.version < EXCLUDED.version`,
		s.ID, s.Amount, s.Status, s.RefundedAmount, s.RemainingRefundableAmount, s.Version,
	)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}

// List returns read rows ordered by payment id. An empty status lists all.
func (r *PaymentStatusRepository) List(ctx context.Context, status projection.Status, limit, offset int) ([]projection.PaymentStatus, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payment_status WHERE ($1 = '' OR status = $1)`, status,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("List: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentStatusColumns+` FROM payment_status
		WHERE ($1 = '' OR status = $1)
		ORDER BY payment_id LIMIT $2 OFFSET $3`,
		status, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var out []projection.PaymentStatus
	for rows.Next() {
		s, err := scanPaymentStatus(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("List: scan: %w", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("List: rows: %w", err)
	}
	return out, total, nil
}

// GetStale returns payment ids whose read row is missing or behind the head
// of their event stream.
func (r *PaymentStatusRepository) GetStale(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT e.payment_id
		FROM payment_events e
		LEFT JOIN payment_status s ON s.payment_id = e.payment_id
		GROUP BY e.payment_id, s.version
		HAVING s.version IS NULL OR MAX(e.version) > s.version
		ORDER BY MIN(e.position)
		LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("GetStale: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("GetStale: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetStale: rows: %w", err)
	}
	return ids, nil
}

func scanPaymentStatus(s scanner) (*projection.PaymentStatus, error) {
	var p projection.PaymentStatus
	err := s.Scan(&p.ID, &p.Amount, &p.Status, &p.RefundedAmount, &p.RemainingRefundableAmount, &p.Version)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
