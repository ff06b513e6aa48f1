package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/payment-decider/internal/domain"
)

const TestActor = "00000000-0000-0000-0000-0000000000aa"

var TestMeta = domain.Metadata{Actor: TestActor, CorrelationID: "req-fixture"}

// SeedEvents writes events straight into paymentID's stream, bypassing the
// decider, starting after the current head.
func SeedEvents(t *testing.T, db *sql.DB, paymentID string, events ...domain.Event) []domain.EventRecord {
	t.Helper()

	var head int64
	err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM payment_events WHERE payment_id = $1`, paymentID).Scan(&head)
	if err != nil {
		t.Fatalf("read head of %s: %v", paymentID, err)
	}

	records := make([]domain.EventRecord, 0, len(events))
	for i, e := range events {
		typ, payload, err := domain.EncodeEvent(e)
		if err != nil {
			t.Fatalf("encode event %d: %v", i, err)
		}
		rec := domain.EventRecord{
			ID:        uuid.New(),
			PaymentID: paymentID,
			Version:   head + int64(i) + 1,
			Type:      typ,
			Actor:     TestActor,
			Payload:   payload,
			CreatedAt: time.Now().UTC(),
		}
		err = db.QueryRow(
			`INSERT INTO payment_events (id, payment_id, version, event_type, actor, payload, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING position`,
			rec.ID, rec.PaymentID, rec.Version, rec.Type, rec.Actor, []byte(rec.Payload), rec.CreatedAt,
		).Scan(&rec.Position)
		if err != nil {
			t.Fatalf("seed event %s v%d: %v", paymentID, rec.Version, err)
		}
		records = append(records, rec)
	}
	return records
}

func CountEvents(t *testing.T, db *sql.DB, paymentID string) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM payment_events WHERE payment_id = $1`, paymentID).Scan(&count)
	if err != nil {
		t.Fatalf("count events for payment %s: %v", paymentID, err)
	}
	return count
}

// CapturedPayment is the stream of a created, authorised and captured payment.
func CapturedPayment(paymentID string, amount int64) []domain.Event {
	return []domain.Event{
		domain.PaymentCreated{ID: paymentID, Amount: amount},
		domain.PaymentAuthorised{ID: paymentID},
		domain.PaymentCaptured{ID: paymentID},
	}
}
