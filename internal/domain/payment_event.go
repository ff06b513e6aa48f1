package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTypePaymentCreated    EventType = "payment.created"
	EventTypePaymentAuthorised EventType = "payment.authorised"
	EventTypePaymentCaptured   EventType = "payment.captured"
	EventTypePaymentRefunded   EventType = "payment.refunded"
	EventTypePaymentCancelled  EventType = "payment.cancelled"
)

// Event is a fact recorded against a single payment. Like Command, the set is
// closed to the types declared here.
type Event interface {
	PaymentID() string
	Type() EventType
	isEvent()
}

type PaymentCreated struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
}

type PaymentAuthorised struct {
	ID string `json:"id"`
}

type PaymentCaptured struct {
	ID string `json:"id"`
}

type PaymentRefunded struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
}

type PaymentCancelled struct {
	ID string `json:"id"`
}

func (e PaymentCreated) PaymentID() string    { return e.ID }
func (e PaymentAuthorised) PaymentID() string { return e.ID }
func (e PaymentCaptured) PaymentID() string   { return e.ID }
func (e PaymentRefunded) PaymentID() string   { return e.ID }
func (e PaymentCancelled) PaymentID() string  { return e.ID }

func (PaymentCreated) Type() EventType    { return EventTypePaymentCreated }
func (PaymentAuthorised) Type() EventType { return EventTypePaymentAuthorised }
func (PaymentCaptured) Type() EventType   { return EventTypePaymentCaptured }
func (PaymentRefunded) Type() EventType   { return EventTypePaymentRefunded }
func (PaymentCancelled) Type() EventType  { return EventTypePaymentCancelled }

func (PaymentCreated) isEvent()    {}
func (PaymentAuthorised) isEvent() {}
func (PaymentCaptured) isEvent()   {}
func (PaymentRefunded) isEvent()   {}
func (PaymentCancelled) isEvent()  {}

// Metadata travels with every event appended for one command: who issued it
// and the request it arrived on.
type Metadata struct {
	Actor         string
	CorrelationID string
}

// EventRecord is an event as persisted in a payment's stream. Version is the
// 1-based offset inside the stream, Position the global append order.
type EventRecord struct {
	ID            uuid.UUID
	PaymentID     string
	Version       int64
	Position      int64
	Type          EventType
	Actor         string
	CorrelationID string
	Payload       json.RawMessage
	CreatedAt     time.Time
}

// Event decodes the record's payload back into its domain event.
func (r EventRecord) Event() (Event, error) {
	return DecodeEvent(r.Type, r.Payload)
}

func EncodeEvent(e Event) (EventType, json.RawMessage, error) {
	if e == nil {
		return "", nil, fmt.Errorf("EncodeEvent: nil event: %w", ErrInvalidEvent)
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return "", nil, fmt.Errorf("EncodeEvent: %w", err)
	}
	return e.Type(), payload, nil
}

func DecodeEvent(t EventType, payload json.RawMessage) (Event, error) {
	var (
		e   Event
		err error
	)
	switch t {
	case EventTypePaymentCreated:
		var v PaymentCreated
		err = json.Unmarshal(payload, &v)
		e = v
	case EventTypePaymentAuthorised:
		var v PaymentAuthorised
		err = json.Unmarshal(payload, &v)
		e = v
	case EventTypePaymentCaptured:
		var v PaymentCaptured
		err = json.Unmarshal(payload, &v)
		e = v
	case EventTypePaymentRefunded:
		var v PaymentRefunded
		err = json.Unmarshal(payload, &v)
		e = v
	case EventTypePaymentCancelled:
		var v PaymentCancelled
		err = json.Unmarshal(payload, &v)
		e = v
	default:
		return nil, fmt.Errorf("DecodeEvent: unknown event type %q: %w", t, ErrInvalidEvent)
	}
	if err != nil {
		return nil, fmt.Errorf("DecodeEvent: %s: %w: %v", t, ErrInvalidEvent, err)
	}
	return e, nil
}

// DecodeRecords decodes a stream of records in order.
func DecodeRecords(records []EventRecord) ([]Event, error) {
	events := make([]Event, 0, len(records))
	for _, r := range records {
		e, err := r.Event()
		if err != nil {
			return nil, fmt.Errorf("DecodeRecords: version %d: %w", r.Version, err)
		}
		events = append(events, e)
	}
	return events, nil
}
