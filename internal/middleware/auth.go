// Package middleware contains HTTP middleware for the labeling admin service.
//
// Middleware functions follow the standard Go pattern of wrapping http.Handler.
// They are designed to be composed using a middleware stack approach.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labelstack/labeladmin/internal/auth"
	"github.com/labelstack/labeladmin/internal/domain"
	"github.com/labelstack/labeladmin/internal/repository"
)

// =============================================================================
// Identity Headers
// =============================================================================

// Headers asserted by the platform's identity proxy. The proxy terminates
// authentication; this service trusts these headers and only resolves them
// to a local user record.
const (
	HeaderUserID    = "X-Auth-User-Id"
	HeaderUserEmail = "X-Auth-Email"
	HeaderUserName  = "X-Auth-Name"
	HeaderUserRole  = "X-Auth-Role"
)

// =============================================================================
// Auth Middleware
// =============================================================================

// AuthMiddleware resolves the identity asserted by the upstream proxy into a
// domain.User and stores it in the request context.
type AuthMiddleware struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
func NewAuthMiddleware(queries *repository.Queries, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		queries: queries,
		logger:  logger,
	}
}

// WithUser is middleware that loads the user asserted by the identity proxy.
//
// This middleware:
// 1. Reads the identity headers
// 2. If present, mirrors the identity into the users table (upsert)
// 3. Stores the user in the request context
// 4. Continues to the next handler regardless of authentication status
//
// The user can be retrieved in handlers using:
//
//	user := auth.GetUser(r.Context())
func (m *AuthMiddleware) WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawID := r.Header.Get(HeaderUserID)
		if rawID == "" {
			// No identity asserted - continue without user
			next.ServeHTTP(w, r)
			return
		}

		userID, err := uuid.Parse(rawID)
		if err != nil {
			m.logger.Warn("malformed identity header", "header", HeaderUserID, "value", rawID)
			next.ServeHTTP(w, r)
			return
		}

		role := domain.UserRole(r.Header.Get(HeaderUserRole))
		if !role.IsValid() {
			role = domain.UserRoleLabeler
		}

		// Mirror the identity so assignment details can join on it.
		dbUser, err := m.queries.UpsertUser(r.Context(), repository.UpsertUserParams{
			ID:    userID,
			Email: r.Header.Get(HeaderUserEmail),
			Name:  r.Header.Get(HeaderUserName),
			Role:  string(role),
		})
		if err != nil {
			m.logger.Error("failed to resolve user", "error", err, "user_id", userID)
			next.ServeHTTP(w, r)
			return
		}

		user := &domain.User{
			ID:        dbUser.ID,
			Email:     dbUser.Email,
			Name:      dbUser.Name,
			Role:      domain.UserRole(dbUser.Role),
			CreatedAt: dbUser.CreatedAt,
			UpdatedAt: dbUser.UpdatedAt,
		}

		next.ServeHTTP(w, r.WithContext(auth.SetUser(r.Context(), user)))
	})
}

// RequireUser is middleware that requires an authenticated user.
//
// Must be used AFTER WithUser in the middleware chain. Unauthenticated
// requests get a 401 JSON response.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.GetUser(r.Context()) == nil {
			writeJSONError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin is middleware that requires the authenticated user to have
// the admin role.
//
// Must be used AFTER WithUser in the middleware chain.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := auth.GetUser(r.Context())
		if user == nil {
			writeJSONError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if !user.IsAdmin() {
			writeJSONError(w, http.StatusForbidden, "Admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSONError writes a minimal JSON error body. The handler package has a
// richer version; this one avoids an import cycle.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":{"message":` + jsonQuote(message) + `}}`))
}

// jsonQuote is sufficient for the fixed messages used above.
func jsonQuote(s string) string {
	return `"` + s + `"`
}

// =============================================================================
// Middleware Stack Helpers
// =============================================================================

// Stack composes multiple middleware functions into a single middleware.
//
// Middleware is applied in the order provided, meaning the first middleware
// in the slice is the outermost (runs first on request, last on response).
//
// Example:
//
//	stack := Stack(loggingMw, authMw.WithUser, authMw.RequireAdmin)
//	mux.Handle("GET /api/tasks", stack(taskHandler))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// =============================================================================
// Compile-time checks
// =============================================================================

var (
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).WithUser
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).RequireUser
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).RequireAdmin
)
