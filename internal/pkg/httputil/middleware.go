package httputil

import (
	"context"
	"net/http"
	"strings"

	"github.com/bissquit/opsdesk/internal/domain"
	"github.com/bissquit/opsdesk/internal/pkg/ctxlog"
)

// UserIDHeader carries the id of the acting user on every API request.
const UserIDHeader = "X-Ops-User-Id"

// CORSMiddleware creates CORS middleware that handles preflight requests
// and adds appropriate CORS headers to responses.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	originsSet := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originsSet[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" && (originsSet[origin] || originsSet["*"]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+UserIDHeader)
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type contextKey string

const userKey contextKey = "user"

// UserResolver looks up the acting user named by the request header.
type UserResolver interface {
	// ResolveUser returns ok == false when no user has the given id.
	ResolveUser(ctx context.Context, id string) (user *domain.User, ok bool, err error)
}

// UserContextMiddleware resolves the acting user from UserIDHeader and stores
// it in the request context. Requests without a known user are rejected.
func UserContextMiddleware(resolver UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(UserIDHeader))
			if id == "" {
				FieldsError(w, http.StatusForbidden, CodeForbidden, "Missing user context", domain.FieldErrors{
					"userId": strings.ToLower(UserIDHeader) + " header is required",
				})
				return
			}

			user, ok, err := resolver.ResolveUser(r.Context(), id)
			if err != nil {
				ctxlog.FromContext(r.Context()).Error("resolve user", "user_id", id, "error", err)
				Error(w, http.StatusInternalServerError, CodeInternal, "internal error")
				return
			}
			if !ok {
				FieldsError(w, http.StatusForbidden, CodeForbidden, "Unknown user", domain.FieldErrors{
					"userId": "No such user id",
				})
				return
			}

			ctx := ctxlog.With(WithUser(r.Context(), user), "user_id", user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole creates RBAC middleware admitting only the given roles.
// It must run after UserContextMiddleware.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}
	message := "Requires one of: " + strings.Join(names, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r.Context())
			if user == nil {
				FieldsError(w, http.StatusForbidden, CodeForbidden, "Missing user context", domain.FieldErrors{
					"userId": strings.ToLower(UserIDHeader) + " header is required",
				})
				return
			}

			if !user.Role.In(roles...) {
				FieldsError(w, http.StatusForbidden, CodeForbidden, "Forbidden", domain.FieldErrors{
					"role": message,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WithUser stores the acting user in ctx.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUser extracts the acting user from context, or nil.
func GetUser(ctx context.Context) *domain.User {
	if user, ok := ctx.Value(userKey).(*domain.User); ok {
		return user
	}
	return nil
}
