package auth

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sysengio/wysechat/internal/auth"
	"github.com/sysengio/wysechat/internal/web"
)

// ContextClearer drops per-session conversation state. Logout uses it so a
// destroyed session cannot leave an orphaned conversation behind.
type ContextClearer interface {
	ClearContext(sessionID string)
}

// Handler serves the login and logout pages.
type Handler struct {
	sessions *auth.Manager
	contexts ContextClearer
}

// New creates the auth handler.
func New(sessions *auth.Manager, contexts ContextClearer) *Handler {
	return &Handler{sessions: sessions, contexts: contexts}
}

// RegisterRoutes registers the public authentication routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/login", h.handleLoginPage)
	r.Post("/login", h.handleLogin)
	r.Get("/logout", h.handleLogout)
}

type loginPage struct {
	Error string
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if h.sessions.IsAuthenticated(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	web.Render(w, "login.html", loginPage{})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		web.Render(w, "login.html", loginPage{Error: "invalid form submission"})
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	err := h.sessions.Authenticate(w, r, username, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		log.Printf("[auth] rejected login for user %q", username)
		web.Render(w, "login.html", loginPage{Error: "Invalid username or password."})
		return
	}
	if err != nil {
		log.Printf("[auth] login failed: %v", err)
		web.Render(w, "login.html", loginPage{Error: "Login failed, please try again."})
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if id := h.sessions.SessionID(r); id != "" {
		h.contexts.ClearContext(id)
	}
	h.sessions.Logout(w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
