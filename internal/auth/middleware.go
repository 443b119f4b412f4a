package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fabriciogeog/controle-doc-medica/pkg/types"
)

type contextKey string

const sessionIDContextKey contextKey = "session_id"

// RequireAuth rejects requests without an authenticated session. Allowed
// requests carry the session id in the request context.
func (m *SessionManager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.IsAuthenticated(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(types.Response{
				Success: false,
				Message: "Acesso não autorizado. Faça login primeiro.",
			})
			return
		}

		ctx := context.WithValue(r.Context(), sessionIDContextKey, m.SessionID(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionIDFromContext retrieves the session id placed by RequireAuth
func SessionIDFromContext(ctx context.Context) string {
	sid, _ := ctx.Value(sessionIDContextKey).(string)
	return sid
}
