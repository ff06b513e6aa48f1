package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("optimistic lock conflict")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrInvalidAmount   = errors.New("amount must be greater than zero")
	ErrInvalidCommand  = errors.New("invalid command")
	ErrInvalidEvent    = errors.New("invalid event")
	ErrRuleViolation   = errors.New("domain rule violation")
)

// Reason identifies which payment rule rejected a command.
type Reason string

const (
	ReasonAlreadyExists         Reason = "already-exists"
	ReasonNotCreated            Reason = "not-created"
	ReasonAlreadyCancelled      Reason = "already-cancelled"
	ReasonCancelled             Reason = "cancelled"
	ReasonNotAuthorised         Reason = "not-authorised"
	ReasonAlreadyAuthorised     Reason = "already-authorised"
	ReasonNotCaptured           Reason = "not-captured"
	ReasonAlreadyCaptured       Reason = "already-captured"
	ReasonRefundExceedsCaptured Reason = "refund-exceeds-captured"
)

// Reasons lists the closed set of rejection reasons.
func Reasons() []Reason {
	return []Reason{
		ReasonAlreadyExists,
		ReasonNotCreated,
		ReasonAlreadyCancelled,
		ReasonCancelled,
		ReasonNotAuthorised,
		ReasonAlreadyAuthorised,
		ReasonNotCaptured,
		ReasonAlreadyCaptured,
		ReasonRefundExceedsCaptured,
	}
}

// RuleViolation is returned when a command is rejected by the payment rules.
// errors.Is matches ErrRuleViolation and any RuleViolation with the same
// Reason, so the sentinels below can be used as targets.
type RuleViolation struct {
	Reason    Reason
	PaymentID string
	Message   string
}

func (e *RuleViolation) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Reason)
	}
	if e.PaymentID == "" {
		return "payment rule violation: " + msg
	}
	return fmt.Sprintf("payment %s: %s", e.PaymentID, msg)
}

func (e *RuleViolation) Is(target error) bool {
	if target == ErrRuleViolation {
		return true
	}
	var other *RuleViolation
	if errors.As(target, &other) {
		return other.Reason == e.Reason
	}
	return false
}

var (
	ErrAlreadyExists         = &RuleViolation{Reason: ReasonAlreadyExists}
	ErrNotCreated            = &RuleViolation{Reason: ReasonNotCreated}
	ErrAlreadyCancelled      = &RuleViolation{Reason: ReasonAlreadyCancelled}
	ErrCancelled             = &RuleViolation{Reason: ReasonCancelled}
	ErrNotAuthorised         = &RuleViolation{Reason: ReasonNotAuthorised}
	ErrAlreadyAuthorised     = &RuleViolation{Reason: ReasonAlreadyAuthorised}
	ErrNotCaptured           = &RuleViolation{Reason: ReasonNotCaptured}
	ErrAlreadyCaptured       = &RuleViolation{Reason: ReasonAlreadyCaptured}
	ErrRefundExceedsCaptured = &RuleViolation{Reason: ReasonRefundExceedsCaptured}
)

// ReasonOf returns the rejection reason carried by err, if any.
func ReasonOf(err error) (Reason, bool) {
	var v *RuleViolation
	if errors.As(err, &v) {
		return v.Reason, true
	}
	return "", false
}
