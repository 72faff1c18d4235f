package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"

	maxIdempotencyKeyLength = 255
)

type requestIDKey struct{}

// RequestID resolves the request id every ledger command runs under. The
// caller's Idempotency-Key is used when present; otherwise a fresh uuid is
// generated, which makes the request non-repeatable. The id is echoed back in
// the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
		if len(key) > maxIdempotencyKeyLength {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"idempotency key too long"}`))
			return
		}
		if key == "" {
			key = uuid.NewString()
		}

		w.Header().Set(IdempotencyKeyHeader, key)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), key)))
	})
}

// WithRequestID stores id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request id stored by RequestID, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
