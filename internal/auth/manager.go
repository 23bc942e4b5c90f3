package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// CookieName carries the opaque session identifier between requests.
const CookieName = "wysechat_session"

// ErrInvalidCredentials is returned when a login attempt fails; the handler
// re-renders the login form with a message and never surfaces details.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Manager is the session gate: it turns a successful credential check into
// an authenticated session and answers whether a request carries one.
type Manager struct {
	credentials Credentials
	store       SessionStore
}

// NewManager wires the credential store and session storage together.
func NewManager(credentials Credentials, store SessionStore) *Manager {
	return &Manager{credentials: credentials, store: store}
}

// Authenticate verifies the submitted credentials and, on success, issues a
// fresh authenticated session bound to the client via cookie.
func (m *Manager) Authenticate(w http.ResponseWriter, r *http.Request, username, password string) error {
	if !m.credentials.Verify(username, password) {
		return ErrInvalidCredentials
	}

	session := Session{
		ID:            uuid.NewString(),
		Authenticated: true,
		CreatedAt:     time.Now().UTC(),
	}
	m.store.Set(session)

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// SessionID returns the request's session identifier, or "" when the client
// has none.
func (m *Manager) SessionID(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// IsAuthenticated reports whether the request carries a valid authenticated
// session.
func (m *Manager) IsAuthenticated(r *http.Request) bool {
	id := m.SessionID(r)
	if id == "" {
		return false
	}
	session, ok := m.store.Get(id)
	return ok && session.Authenticated
}

// Logout drops the server-side session and expires the cookie.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) {
	if id := m.SessionID(r); id != "" {
		m.store.Clear(id)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
