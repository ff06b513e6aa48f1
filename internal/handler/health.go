package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/josh-kwaku/payment-decider/internal/logging"
)

// Version is reported by /health. Overridden at build time with
// -ldflags "-X .../internal/handler.Version=...".
var Version = "dev"

const readinessTimeout = 2 * time.Second

type pinger interface {
	PingContext(ctx context.Context) error
}

// staleReader reports payments whose status row lags their event stream.
type staleReader interface {
	GetStale(ctx context.Context, limit int) ([]string, error)
}

type HealthHandler struct {
	db          pinger
	statuses    staleReader
	deciderMode string
}

func NewHealthHandler(db pinger, statuses staleReader, deciderMode string) *HealthHandler {
	return &HealthHandler{db: db, statuses: statuses, deciderMode: deciderMode}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{
		"status":       "ok",
		"version":      Version,
		"decider_mode": h.deciderMode,
	})
}

// Readiness fails only when the event store is unreachable. A projector that
// is still catching up is reported but does not take the instance out of
// rotation, since commands decide from the event stream.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := map[string]string{"event_store": "ok", "read_model": "unknown"}
	status := http.StatusOK

	if err := h.db.PingContext(ctx); err != nil {
		logging.FromContext(ctx).Warn("event store unreachable", "error", err)
		checks["event_store"] = "down"
		status = http.StatusServiceUnavailable
	} else if stale, err := h.statuses.GetStale(ctx, 1); err == nil {
		checks["read_model"] = "current"
		if len(stale) > 0 {
			checks["read_model"] = "catching_up"
		}
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "down"
	}
	RespondJSON(w, status, map[string]any{
		"status": overall,
		"checks": checks,
	})
}
