package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/payment-decider/internal/auth"
	"github.com/josh-kwaku/payment-decider/internal/domain"
	"github.com/josh-kwaku/payment-decider/internal/logging"
	"github.com/josh-kwaku/payment-decider/internal/projection"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	maxPaymentIDLen  = 128
)

type paymentService interface {
	Handle(ctx context.Context, cmd domain.Command, meta domain.Metadata) ([]domain.EventRecord, error)
	GetStatus(ctx context.Context, paymentID string) (*projection.PaymentStatus, error)
	GetHistory(ctx context.Context, paymentID string) ([]domain.EventRecord, error)
	ListPayments(ctx context.Context, status projection.Status, limit, offset int) ([]projection.PaymentStatus, int, error)
}

type PaymentHandler struct {
	payments paymentService
}

func NewPaymentHandler(payments paymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type createPaymentRequest struct {
	ID     string           `json:"id"`
	Amount *decimal.Decimal `json:"amount"`
}

func (r createPaymentRequest) Validate() []FieldError {
	var errs []FieldError

	if r.ID == "" {
		errs = append(errs, FieldError{Field: "id", Message: "required"})
	} else if len(r.ID) > maxPaymentIDLen {
		errs = append(errs, FieldError{Field: "id", Message: fmt.Sprintf("must be at most %d characters", maxPaymentIDLen)})
	}

	if r.Amount == nil {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	}

	return errs
}

type refundPaymentRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

func (r refundPaymentRequest) Validate() []FieldError {
	if r.Amount == nil {
		return []FieldError{{Field: "amount", Message: "required"}}
	}
	return nil
}

type eventDTO struct {
	ID            uuid.UUID       `json:"id"`
	PaymentID     string          `json:"payment_id"`
	Version       int64           `json:"version"`
	Position      int64           `json:"position"`
	Type          string          `json:"type"`
	Actor         string          `json:"actor"`
	CorrelationID string          `json:"correlation_id"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toEventDTOs(records []domain.EventRecord) []eventDTO {
	out := make([]eventDTO, 0, len(records))
	for _, r := range records {
		out = append(out, eventDTO{
			ID:            r.ID,
			PaymentID:     r.PaymentID,
			Version:       r.Version,
			Position:      r.Position,
			Type:          string(r.Type),
			Actor:         r.Actor,
			CorrelationID: r.CorrelationID,
			Payload:       r.Payload,
			CreatedAt:     r.CreatedAt,
		})
	}
	return out
}

type paymentStatusDTO struct {
	ID                        string `json:"id"`
	Amount                    int64  `json:"amount"`
	Status                    string `json:"status"`
	RefundedAmount            int64  `json:"refunded_amount"`
	RemainingRefundableAmount int64  `json:"remaining_refundable_amount"`
	Version                   int64  `json:"version"`
}

func toPaymentStatusDTO(s *projection.PaymentStatus) paymentStatusDTO {
	return paymentStatusDTO{
		ID:                        s.ID,
		Amount:                    s.Amount,
		Status:                    string(s.Status),
		RefundedAmount:            s.RefundedAmount,
		RemainingRefundableAmount: s.RemainingRefundableAmount,
		Version:                   s.Version,
	}
}

type paymentListDTO struct {
	Payments []paymentStatusDTO `json:"payments"`
	Total    int                `json:"total"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	amount, err := domain.MinorUnits(*req.Amount)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	h.handle(w, r, domain.CreatePayment{ID: req.ID, Amount: amount}, http.StatusCreated)
}

func (h *PaymentHandler) Authorise(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, domain.AuthorisePayment{ID: r.PathValue("id")}, http.StatusOK)
}

func (h *PaymentHandler) Capture(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, domain.CapturePayment{ID: r.PathValue("id")}, http.StatusOK)
}

func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request) {
	var req refundPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	amount, err := domain.MinorUnits(*req.Amount)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	h.handle(w, r, domain.RefundPayment{ID: r.PathValue("id"), Amount: amount}, http.StatusOK)
}

func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, domain.CancelPayment{ID: r.PathValue("id")}, http.StatusOK)
}

// handle runs cmd on behalf of the authenticated operator and writes the
// appended events. The request id is stored on each event as its correlation
// id.
func (h *PaymentHandler) handle(w http.ResponseWriter, r *http.Request, cmd domain.Command, status int) {
	log := logging.FromContext(r.Context())

	operatorID, ok := auth.OperatorIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	meta := domain.Metadata{
		Actor:         operatorID.String(),
		CorrelationID: logging.RequestIDFromContext(r.Context()),
	}
	records, err := h.payments.Handle(r.Context(), cmd, meta)
	if err != nil {
		log.Warn("payment command rejected", "command", cmd.CommandName(), "payment_id", cmd.PaymentID(), "error", err)
		RespondDomainError(w, err)
		return
	}

	if status == http.StatusCreated {
		w.Header().Set("Location", fmt.Sprintf("/api/v1/payments/%s", cmd.PaymentID()))
	}
	RespondSuccess(w, status, toEventDTOs(records))
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	status, err := h.payments.GetStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		logging.FromContext(r.Context()).Warn("payment lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toPaymentStatusDTO(status))
}

func (h *PaymentHandler) Events(w http.ResponseWriter, r *http.Request) {
	records, err := h.payments.GetHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		logging.FromContext(r.Context()).Warn("payment history lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toEventDTOs(records))
}

func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var fields []FieldError
	limit, ok := intParam(q.Get("limit"), defaultListLimit)
	if !ok || limit < 1 || limit > maxListLimit {
		fields = append(fields, FieldError{Field: "limit", Message: fmt.Sprintf("must be between 1 and %d", maxListLimit)})
	}
	offset, ok := intParam(q.Get("offset"), 0)
	if !ok || offset < 0 {
		fields = append(fields, FieldError{Field: "offset", Message: "must be zero or greater"})
	}
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	list, total, err := h.payments.ListPayments(r.Context(), projection.Status(q.Get("status")), limit, offset)
	if err != nil {
		logging.FromContext(r.Context()).Warn("payment listing failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	dto := paymentListDTO{
		Payments: make([]paymentStatusDTO, 0, len(list)),
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	}
	for i := range list {
		dto.Payments = append(dto.Payments, toPaymentStatusDTO(&list[i]))
	}
	RespondSuccess(w, http.StatusOK, dto)
}

func intParam(raw string, def int) (int, bool) {
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
