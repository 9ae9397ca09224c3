package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/xraph/wallet/account"
)

// IdentityResolver turns a bearer token into a caller Identity.
type IdentityResolver interface {
	Identify(token string) (account.Identity, error)
}

type contextKeyIdentity struct{}
type contextKeyRequestID struct{}

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// IdentityFrom returns the authenticated caller, or the zero Identity.
func IdentityFrom(ctx context.Context) account.Identity {
	who, _ := ctx.Value(contextKeyIdentity{}).(account.Identity)
	return who
}

// WithIdentity stores the caller Identity in ctx.
func WithIdentity(ctx context.Context, who account.Identity) context.Context {
	return context.WithValue(ctx, contextKeyIdentity{}, who)
}

// RequestIDFrom returns the request id set by RequestID.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyRequestID{}).(string)
	return id
}

// RequestID keeps an incoming X-Request-ID or mints one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, reqID)
		ctx := context.WithValue(r.Context(), contextKeyRequestID{}, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth resolves the bearer token into the request Identity.
// Requests without a valid token never reach next.
func RequireAuth(resolver IdentityResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", RequestIDFrom(ctx),
				)
				writeProblem(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			who, err := resolver.Identify(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"request_id", RequestIDFrom(ctx),
					"error", err,
				)
				writeProblem(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, who)))
		})
	}
}
