package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sysengio/wysechat/internal/auth"
	authHandler "github.com/sysengio/wysechat/internal/handler/auth"
	chatHandler "github.com/sysengio/wysechat/internal/handler/chat"
	middlewarePkg "github.com/sysengio/wysechat/internal/middleware"
	"github.com/sysengio/wysechat/internal/service/synthesis"
)

// NewRouter wires HTTP routes to core services. Everything except the login
// flow sits behind the session gate.
func NewRouter(sessions *auth.Manager, engine *synthesis.Engine) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	authHandler.New(sessions, engine).RegisterRoutes(r)

	r.Group(func(protected chi.Router) {
		protected.Use(middlewarePkg.RequireAuth(sessions))
		chatHandler.New(engine, sessions).RegisterRoutes(protected)
	})

	return r
}
