package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fabriciogeog/controle-doc-medica/internal/forms"
	"github.com/fabriciogeog/controle-doc-medica/pkg/interfaces"
	"github.com/fabriciogeog/controle-doc-medica/pkg/logger"
	"github.com/fabriciogeog/controle-doc-medica/pkg/monitoring"
	"github.com/fabriciogeog/controle-doc-medica/pkg/types"
	"github.com/fabriciogeog/controle-doc-medica/pkg/validation"
)

// Handlers contains HTTP handlers for authentication and account operations
type Handlers struct {
	users     interfaces.UserRepository
	sessions  *SessionManager
	passwords *PasswordManager
	logger    *logger.Logger
	devMode   bool
}

// NewHandlers creates authentication HTTP handlers
func NewHandlers(users interfaces.UserRepository, sessions *SessionManager, passwords *PasswordManager, log *logger.Logger, devMode bool) *Handlers {
	return &Handlers{
		users:     users,
		sessions:  sessions,
		passwords: passwords,
		logger:    log,
		devMode:   devMode,
	}
}

// Login authenticates the singleton user by password.
// POST /api/auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if !h.bindRequest(w, r, &req) {
		return
	}

	if fieldErrors := validation.Check(&req); len(fieldErrors) > 0 {
		h.writeValidationErrors(w, fieldErrors)
		return
	}

	user, err := h.users.Get(r.Context())
	if err != nil {
		var appErr *types.AppError
		if errors.As(err, &appErr) && appErr.Kind == types.ErrorKindNotFound {
			monitoring.RecordAuthAttempt(false)
			h.writeError(w, types.NewUnauthorizedError("Senha incorreta"))
			return
		}
		h.logger.WithError(err).Error("Login failed to load user")
		h.writeError(w, types.NewInternalError("Erro interno no servidor", err))
		return
	}

	ok, err := h.passwords.VerifyPassword(user.PasswordHash, req.Senha)
	if err != nil {
		h.logger.WithError(err).Error("Password verification failed")
		h.writeError(w, types.NewInternalError("Erro interno no servidor", err))
		return
	}
	if !ok {
		monitoring.RecordAuthAttempt(false)
		h.writeError(w, types.NewUnauthorizedError("Senha incorreta"))
		return
	}

	if _, err := h.sessions.Authenticate(w, r); err != nil {
		h.logger.WithError(err).Error("Failed to establish session")
		h.writeError(w, types.NewInternalError("Erro interno no servidor", err))
		return
	}

	monitoring.RecordAuthAttempt(true)
	h.writeJSON(w, http.StatusOK, types.Response{
		Success: true,
		Message: "Login realizado com sucesso",
	})
}

// Logout destroys the session.
// POST /api/auth/logout
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(w, r); err != nil {
		h.logger.WithError(err).Warn("Failed to destroy session")
	}
	h.writeJSON(w, http.StatusOK, types.Response{
		Success: true,
		Message: "Logout realizado com sucesso",
	})
}

// Check reports whether the request carries an authenticated session. It
// never errors.
// GET /api/auth/check
func (h *Handlers) Check(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]bool{
		"authenticated": h.sessions.IsAuthenticated(r),
	})
}

// GetProfile returns the user's name and email.
// GET /api/auth/perfil
func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, types.Response{
		Success: true,
		Data: map[string]string{
			"nome":  user.Nome,
			"email": user.Email,
		},
	})
}

// UpdateProfile updates the user's name and/or email.
// PUT /api/auth/perfil
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req types.ProfileUpdateRequest
	if !h.bindRequest(w, r, &req) {
		return
	}

	if fieldErrors := validation.Check(&req); len(fieldErrors) > 0 {
		h.writeValidationErrors(w, fieldErrors)
		return
	}

	user, err := h.users.Get(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	if nome := strings.TrimSpace(req.Nome); nome != "" {
		user.Nome = nome
	}
	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" {
		user.Email = email
	}
	user.UpdatedAt = time.Now()

	if err := h.users.Update(r.Context(), user); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, types.Response{
		Success: true,
		Message: "Perfil atualizado com sucesso",
	})
}

// ChangePassword verifies the current password and stores a new hash.
// PUT /api/auth/alterar-senha
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req types.PasswordChangeRequest
	if !h.bindRequest(w, r, &req) {
		return
	}

	if fieldErrors := validation.Check(&req); len(fieldErrors) > 0 {
		h.writeValidationErrors(w, fieldErrors)
		return
	}

	user, err := h.users.Get(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	ok, err := h.passwords.VerifyPassword(user.PasswordHash, req.SenhaAtual)
	if err != nil {
		h.writeError(w, types.NewInternalError("Erro ao alterar senha", err))
		return
	}
	if !ok {
		h.writeError(w, types.NewUnauthorizedError("Senha atual incorreta"))
		return
	}

	hash, err := h.passwords.HashPassword(req.NovaSenha)
	if err != nil {
		h.writeError(w, types.NewInternalError("Erro ao alterar senha", err))
		return
	}

	user.PasswordHash = hash
	user.UpdatedAt = time.Now()
	if err := h.users.Update(r.Context(), user); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, types.Response{
		Success: true,
		Message: "Senha alterada com sucesso",
	})
}

// bindRequest maps the pre-parsed body onto a typed payload, decoding
// directly when no middleware ran
func (h *Handlers) bindRequest(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body := forms.FromContext(r.Context())
	if body == nil {
		decoded, err := forms.DecodeBody(r)
		if err != nil {
			h.writeError(w, types.NewValidationError("Corpo da requisição inválido"))
			return false
		}
		body = decoded
	}

	if err := forms.Bind(body, dst); err != nil {
		h.writeError(w, types.NewValidationError("Corpo da requisição inválido"))
		return false
	}
	return true
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func (h *Handlers) writeValidationErrors(w http.ResponseWriter, fieldErrors []types.FieldError) {
	h.writeJSON(w, http.StatusBadRequest, types.Response{
		Success: false,
		Message: "Dados inválidos",
		Errors:  fieldErrors,
	})
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		appErr = types.NewInternalError("Erro interno no servidor", err)
	}

	message := appErr.Message
	if appErr.Kind == types.ErrorKindInternal && !h.devMode {
		message = "Erro interno no servidor"
	}

	h.writeJSON(w, appErr.Kind.HTTPStatus(), types.Response{
		Success: false,
		Message: message,
	})
}
