package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/smipay/smipay-backend/internal/api/httpx"
	"github.com/smipay/smipay-backend/internal/auth"
)

type identityKey struct{}

// IdentityFrom returns the verified caller identity placed by Auth.
func IdentityFrom(ctx context.Context) (auth.Identity, bool) {
	v, ok := ctx.Value(identityKey{}).(auth.Identity)
	return v, ok
}

type AuthMiddleware struct {
	TM *auth.TokenManager
}

func NewAuthMiddleware(tm *auth.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{TM: tm}
}

// Auth validates the bearer token and builds the typed Identity once, at
// the boundary. Everything inward receives Identity by value, never raw
// claims.
func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ah := r.Header.Get("Authorization")
		if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
			httpx.WriteError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		token := strings.TrimSpace(ah[len("Bearer "):])

		claims, err := m.TM.Parse(token)
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid access token")
			return
		}
		id := auth.Identity{UserID: claims.UserID, Email: claims.Email}
		ctx := context.WithValue(r.Context(), identityKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
