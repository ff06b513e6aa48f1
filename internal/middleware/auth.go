package middleware

import (
	"net/http"
	"strings"

	"github.com/josh-kwaku/payment-decider/internal/auth"
	"github.com/josh-kwaku/payment-decider/internal/handler"
	"github.com/josh-kwaku/payment-decider/internal/logging"
)

// Auth admits requests bearing a valid operator token. The operator id is
// what the handlers record as the actor of every appended event.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			switch {
			case !found && r.Header.Get("Authorization") == "":
				challenge(w, "")
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			case !found || token == "":
				challenge(w, "invalid_request")
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			claims, err := auth.ValidateToken(token, secret)
			if err != nil {
				logging.FromContext(r.Context()).Warn("operator token rejected", "error", err)
				challenge(w, "invalid_token")
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			ctx := auth.ContextWithOperatorID(r.Context(), claims.OperatorID)
			ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With(
				"operator_id", claims.OperatorID,
				"operator", claims.Name,
			))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func challenge(w http.ResponseWriter, code string) {
	v := `Bearer realm="payments"`
	if code != "" {
		v += `, error="` + code + `"`
	}
	w.Header().Set("WWW-Authenticate", v)
}
