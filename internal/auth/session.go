package auth

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/fabriciogeog/controle-doc-medica/pkg/config"
)

const (
	sessionKeyAuthenticated = "authenticated"
	sessionKeySID           = "sid"
)

// SessionManager owns the cookie-backed session store. Sessions carry the
// authenticated flag and an opaque session id minted at login; the id feeds
// the duplicate-submission guard's cache key.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
}

// NewSessionManager creates a session manager from configuration
func NewSessionManager(cfg *config.SessionConfig) *SessionManager {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		HttpOnly: cfg.HTTPOnly,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{
		store: store,
		name:  cfg.Name,
	}
}

// Authenticate marks the request's session as authenticated and mints a
// fresh session id
func (m *SessionManager) Authenticate(w http.ResponseWriter, r *http.Request) (string, error) {
	session, _ := m.store.Get(r, m.name)

	sid := uuid.New().String()
	session.Values[sessionKeyAuthenticated] = true
	session.Values[sessionKeySID] = sid

	if err := session.Save(r, w); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	return sid, nil
}

// Destroy invalidates the request's session
func (m *SessionManager) Destroy(w http.ResponseWriter, r *http.Request) error {
	session, _ := m.store.Get(r, m.name)
	session.Options.MaxAge = -1
	session.Values = make(map[interface{}]interface{})

	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether the request carries an authenticated session
func (m *SessionManager) IsAuthenticated(r *http.Request) bool {
	session, err := m.store.Get(r, m.name)
	if err != nil {
		return false
	}
	authenticated, _ := session.Values[sessionKeyAuthenticated].(bool)
	return authenticated
}

// SessionID returns the opaque session id, or empty when absent
func (m *SessionManager) SessionID(r *http.Request) string {
	session, err := m.store.Get(r, m.name)
	if err != nil {
		return ""
	}
	sid, _ := session.Values[sessionKeySID].(string)
	return sid
}
