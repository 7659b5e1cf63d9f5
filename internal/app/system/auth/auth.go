// Package auth resolves the request's Owner identity and gates API access.
//
// Credential validation lives upstream: an authentication gateway verifies
// the caller and installs the resolved owner id in the X-Owner-ID header.
// This package trusts that header behind the API key gate; it never
// re-validates credentials.
package auth

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// OwnerHeader carries the resolved owner id installed by the upstream
// authentication gateway.
const OwnerHeader = "X-Owner-ID"

type contextKey int

const ownerKey contextKey = iota

// CurrentOwner returns the owner id resolved for this request. The second
// return is false when the request did not pass through RequireOwner.
func CurrentOwner(r *http.Request) (primitive.ObjectID, bool) {
	id, ok := r.Context().Value(ownerKey).(primitive.ObjectID)
	return id, ok
}

// WithOwner returns a context carrying the given owner id. Exposed for
// tests.
func WithOwner(ctx context.Context, id primitive.ObjectID) context.Context {
	return context.WithValue(ctx, ownerKey, id)
}

// RequireOwner returns middleware that extracts the resolved owner id from
// the request and stores it in the context. Requests without a valid owner
// id are rejected with 401.
func RequireOwner(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(OwnerHeader)
			if raw == "" {
				logger.Debug("request rejected: missing owner header",
					zap.String("path", r.URL.Path))
				http.Error(w, "Missing owner identity", http.StatusUnauthorized)
				return
			}

			id, err := primitive.ObjectIDFromHex(raw)
			if err != nil {
				logger.Debug("request rejected: malformed owner id",
					zap.String("path", r.URL.Path))
				http.Error(w, "Invalid owner identity", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), id)))
		})
	}
}
