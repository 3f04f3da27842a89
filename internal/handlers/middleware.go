package handlers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"livecast-api/internal/models"
	"livecast-api/internal/service"
)

type ctxKey int

const (
	userCtxKey ctxKey = iota
	sessionCtxKey
)

// AuthMiddleware はセッションCookieからユーザーを解決し、
// リクエストコンテキストに格納します
type AuthMiddleware struct {
	auth *service.AuthService
	log  zerolog.Logger
}

// NewAuthMiddleware は新しいAuthMiddlewareを作成します
func NewAuthMiddleware(auth *service.AuthService, log zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{auth: auth, log: log}
}

// Attach はCookieがあればユーザーを解決してコンテキストに付与します
// Cookieがない・セッションが無効な場合もリクエストは通します
// （拒否するかどうかは RequireAuth / RequireRole が判断します）
func (m *AuthMiddleware) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, ok, err := m.auth.Resolve(r.Context(), cookie.Value)
		if err != nil {
			m.log.Error().Err(err).Msg("failed to resolve session")
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), userCtxKey, user)
		ctx = context.WithValue(ctx, sessionCtxKey, cookie.Value)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth は認証済みユーザーのみ通します
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := userFrom(r.Context()); !ok {
			respondError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole は指定ロールのユーザーのみ通します
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := userFrom(r.Context())
			if !ok {
				respondError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondError(w, http.StatusForbidden, "Insufficient permissions")
		})
	}
}

// userFrom はコンテキストから認証済みユーザーを取り出します
func userFrom(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userCtxKey).(models.User)
	return user, ok
}

// sessionFrom はコンテキストからセッショントークンを取り出します
func sessionFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionCtxKey).(string)
	return id, ok
}
