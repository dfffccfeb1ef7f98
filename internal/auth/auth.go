// Package auth authenticates API requests with bearer tokens and carries
// the resolved user through the request context.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ignite/listguard/internal/domain"
	"github.com/ignite/listguard/internal/pkg/httputil"
	"github.com/ignite/listguard/internal/pkg/logger"
	"github.com/ignite/listguard/internal/service/account"
)

// Authenticator resolves a presented token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, bearer string) (*domain.User, error)
}

type ctxKey struct{}

// WithUser returns a copy of ctx that carries u.
func WithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *domain.User {
	u, _ := ctx.Value(ctxKey{}).(*domain.User)
	return u
}

// Manager is the HTTP middleware around an Authenticator.
type Manager struct {
	authn Authenticator
}

// NewManager creates the auth middleware.
func NewManager(authn Authenticator) *Manager {
	return &Manager{authn: authn}
}

// TokenFromRequest reads "Authorization: Bearer <token>", falling back to
// the X-API-Key header.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
			return strings.TrimSpace(h[7:])
		}
		return ""
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

// RequireAuth rejects requests without a valid token.
func (m *Manager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := m.authn.Authenticate(r.Context(), TokenFromRequest(r))
		if errors.Is(err, account.ErrUnauthenticated) {
			httputil.Unauthorized(w, "missing or invalid API token")
			return
		}
		if err != nil {
			logger.Error("authenticate request", "path", r.URL.Path, "error", err)
			httputil.InternalError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}
