package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"livecast-api/internal/handlers"
	"livecast-api/internal/models"
)

func NewRouter(auth *handlers.AuthHandler, streams *handlers.StreamHandler, ws *handlers.WebSocketHandler, mw *handlers.AuthMiddleware, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Use(mw.Attach)

	r.Get("/api/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", auth.Register)
		r.Post("/login", auth.Login)
		r.Group(func(r chi.Router) {
			r.Use(handlers.RequireAuth)
			r.Post("/logout", auth.Logout)
			r.Get("/me", auth.Me)
		})
	})

	r.Route("/api/streams", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(handlers.RequireAuth)
			r.Get("/", streams.List)
			r.Get("/{streamId}/chat", streams.History)
		})
		// 配信開始・停止は配信者と管理者のみ
		r.Group(func(r chi.Router) {
			r.Use(handlers.RequireRole(models.RoleStreamer, models.RoleAdmin))
			r.Post("/", streams.Create)
			r.Post("/{streamId}/stop", streams.Stop)
		})
	})

	// WebSocketエンドポイント（認証はハンドシェイク時にハンドラー側で行う）
	r.Get("/ws", ws.HandleWebSocket)

	return r
}
