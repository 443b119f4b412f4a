package professionals

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/fabriciogeog/controle-doc-medica/internal/forms"
	"github.com/fabriciogeog/controle-doc-medica/pkg/interfaces"
	"github.com/fabriciogeog/controle-doc-medica/pkg/logger"
	"github.com/fabriciogeog/controle-doc-medica/pkg/types"
	"github.com/fabriciogeog/controle-doc-medica/pkg/validation"
)

const (
	defaultPage         = 1
	defaultLimit        = 50
	maxLimit            = 100
	autocompleteLimit   = 10
	autocompleteMinimum = 2
)

// Handlers contains HTTP handlers for professional operations
type Handlers struct {
	repo      interfaces.ProfessionalRepository
	documents interfaces.DocumentRepository
	logger    *logger.Logger
	devMode   bool
}

// NewHandlers creates professional HTTP handlers. The document repository is
// consulted before deletion to block removal of referenced professionals.
func NewHandlers(repo interfaces.ProfessionalRepository, documents interfaces.DocumentRepository, log *logger.Logger, devMode bool) *Handlers {
	return &Handlers{
		repo:      repo,
		documents: documents,
		logger:    log,
		devMode:   devMode,
	}
}

// List returns filtered, paginated professionals.
// GET /api/profissionais
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters := &types.ProfessionalFilters{
		Busca:         q.Get("busca"),
		Especialidade: q.Get("especialidade"),
		Ativo:         q.Get("ativo"),
		Page:          parsePositiveInt(q.Get("page"), defaultPage),
		Limit:         parsePositiveInt(q.Get("limit"), defaultLimit),
	}
	if filters.Limit > maxLimit {
		filters.Limit = maxLimit
	}

	professionals, total, err := h.repo.List(r.Context(), filters)
	if err != nil {
		h.writeError(w, types.NewInternalError("Erro ao buscar profissionais", err))
		return
	}
	if professionals == nil {
		professionals = []*types.Professional{}
	}

	h.writeJSON(w, http.StatusOK, types.ListResponse{
		Success: true,
		Count:   len(professionals),
		Total:   total,
		Page:    filters.Page,
		Pages:   pageCount(total, filters.Limit),
		Data:    professionals,
	})
}

// Get returns a professional by id.
// GET /api/profissionais/{id}
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.professionalID(w, r)
	if !ok {
		return
	}

	p, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, types.Response{Success: true, Data: p})
}

// Create registers a new professional. Registration numbers are stored
// upper-cased so uniqueness is case-insensitive.
// POST /api/profissionais
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.bindInput(w, r)
	if !ok {
		return
	}

	registro := strings.ToUpper(strings.TrimSpace(input.NumeroRegistro))

	if _, err := h.repo.GetByRegistration(r.Context(), registro); err == nil {
		h.writeError(w, types.NewConflictError("Já existe um profissional cadastrado com este número de registro"))
		return
	} else if !isNotFound(err) {
		h.writeError(w, types.NewInternalError("Erro ao cadastrar profissional", err))
		return
	}

	now := time.Now()
	p := &types.Professional{
		ID:                     uuid.New().String(),
		Nome:                   strings.TrimSpace(input.Nome),
		NumeroRegistro:         registro,
		Especialidade:          strings.TrimSpace(input.Especialidade),
		InstituicoesPrincipais: normalizeInstitutions(input.InstituicoesPrincipais),
		Ativo:                  true,
		DataCriacao:            now,
		DataAtualizacao:        now,
	}
	if input.Ativo != nil {
		p.Ativo = *input.Ativo
	}
	if input.Telefone != nil {
		p.Telefone = strings.TrimSpace(*input.Telefone)
	}
	if input.Email != nil {
		p.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.Observacoes != nil {
		p.Observacoes = strings.TrimSpace(*input.Observacoes)
	}

	if err := h.repo.Create(r.Context(), p); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"professional_id": p.ID,
		"registro":        p.NumeroRegistro,
	}).Info("Professional registered")

	h.writeJSON(w, http.StatusCreated, types.Response{
		Success: true,
		Message: "Profissional cadastrado com sucesso",
		Data:    p,
	})
}

// Update modifies a professional. Optional fields absent from the payload
// keep their stored values; present-but-blank fields are cleared.
// PUT /api/profissionais/{id}
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.professionalID(w, r)
	if !ok {
		return
	}

	existing, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	input, ok := h.bindInput(w, r)
	if !ok {
		return
	}

	registro := strings.ToUpper(strings.TrimSpace(input.NumeroRegistro))
	if registro != existing.NumeroRegistro {
		if other, err := h.repo.GetByRegistration(r.Context(), registro); err == nil && other.ID != id {
			h.writeError(w, types.NewConflictError("Já existe outro profissional com este número de registro"))
			return
		} else if err != nil && !isNotFound(err) {
			h.writeError(w, types.NewInternalError("Erro ao atualizar profissional", err))
			return
		}
	}

	p := *existing
	p.Nome = strings.TrimSpace(input.Nome)
	p.NumeroRegistro = registro
	p.Especialidade = strings.TrimSpace(input.Especialidade)
	p.DataAtualizacao = time.Now()

	if input.Ativo != nil {
		p.Ativo = *input.Ativo
	}
	if input.Telefone != nil {
		p.Telefone = strings.TrimSpace(*input.Telefone)
	}
	if input.Email != nil {
		p.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.Observacoes != nil {
		p.Observacoes = strings.TrimSpace(*input.Observacoes)
	}
	if input.InstituicoesPrincipais != nil {
		p.InstituicoesPrincipais = normalizeInstitutions(input.InstituicoesPrincipais)
	}

	if err := h.repo.Update(r.Context(), &p); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.WithField("professional_id", p.ID).Info("Professional updated")
	h.writeJSON(w, http.StatusOK, types.Response{
		Success: true,
		Message: "Profissional atualizado com sucesso",
		Data:    &p,
	})
}

// SetStatus activates or deactivates a professional.
// PATCH /api/profissionais/{id}/status
func (h *Handlers) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.professionalID(w, r)
	if !ok {
		return
	}

	body := h.requestBody(w, r)
	if body == nil {
		return
	}

	var req types.StatusChangeRequest
	if err := forms.Bind(body, &req); err != nil {
		h.writeError(w, types.NewValidationError("Corpo da requisição inválido"))
		return
	}
	if fieldErrors := validation.Check(&req); len(fieldErrors) > 0 {
		h.writeValidationErrors(w, fieldErrors)
		return
	}

	p, err := h.repo.SetActive(r.Context(), id, *req.Ativo)
	if err != nil {
		h.writeError(w, err)
		return
	}

	status := "inativado"
	if p.Ativo {
		status = "ativado"
	}

	h.writeJSON(w, http.StatusOK, types.Response{
		Success: true,
		Message: fmt.Sprintf("Profissional %s com sucesso", status),
		Data:    p,
	})
}

// Delete removes a professional. Removal is blocked while any document's
// embedded snapshot still references the professional's registration number;
// deactivation is the supported alternative.
// DELETE /api/profissionais/{id}
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.professionalID(w, r)
	if !ok {
		return
	}

	p, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	count, err := h.documents.CountByRegistration(r.Context(), p.NumeroRegistro)
	if err != nil {
		h.writeError(w, types.NewInternalError("Erro ao excluir profissional", err))
		return
	}
	if count > 0 {
		h.writeError(w, types.NewConflictError(fmt.Sprintf(
			"Não é possível excluir este profissional pois ele está vinculado a %d documento(s). Considere inativá-lo.",
			count,
		)))
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, types.Response{
		Success: true,
		Message: "Profissional excluído com sucesso",
	})
}

// Autocomplete returns suggestion entries for form assistance. Queries
// shorter than two characters return an empty result without touching
// storage.
// GET /api/profissionais/autocomplete
func (h *Handlers) Autocomplete(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if len([]rune(q)) < autocompleteMinimum {
		h.writeJSON(w, http.StatusOK, types.Response{
			Success: true,
			Data:    []*types.ProfessionalSuggestion{},
		})
		return
	}

	limit := parsePositiveInt(r.URL.Query().Get("limit"), autocompleteLimit)
	if limit > maxLimit {
		limit = maxLimit
	}

	suggestions, err := h.repo.Autocomplete(r.Context(), q, limit)
	if err != nil {
		h.writeError(w, types.NewInternalError("Erro na busca", err))
		return
	}
	if suggestions == nil {
		suggestions = []*types.ProfessionalSuggestion{}
	}

	h.writeJSON(w, http.StatusOK, types.Response{Success: true, Data: suggestions})
}

// normalizeInstitutions accepts a comma-separated string or an array and
// returns a trimmed list with blanks removed
func normalizeInstitutions(raw interface{}) []string {
	result := []string{}

	appendValue := func(value string) {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	switch v := raw.(type) {
	case string:
		for _, part := range strings.Split(v, ",") {
			appendValue(part)
		}
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				appendValue(s)
			}
		}
	case []string:
		for _, s := range v {
			appendValue(s)
		}
	}

	return result
}

// bindInput decodes, normalizes and validates a professional payload
func (h *Handlers) bindInput(w http.ResponseWriter, r *http.Request) (*types.ProfessionalInput, bool) {
	body := h.requestBody(w, r)
	if body == nil {
		return nil, false
	}

	var input types.ProfessionalInput
	if err := forms.Bind(body, &input); err != nil {
		h.writeError(w, types.NewValidationError("Corpo da requisição inválido"))
		return nil, false
	}

	if fieldErrors := validation.Check(&input); len(fieldErrors) > 0 {
		h.writeValidationErrors(w, fieldErrors)
		return nil, false
	}

	return &input, true
}

func (h *Handlers) requestBody(w http.ResponseWriter, r *http.Request) map[string]interface{} {
	body := forms.FromContext(r.Context())
	if body == nil {
		decoded, err := forms.DecodeBody(r)
		if err != nil {
			h.writeError(w, types.NewValidationError("Corpo da requisição inválido"))
			return nil
		}
		body = forms.Normalize(decoded)
	}
	return body
}

// professionalID extracts and validates the path id
func (h *Handlers) professionalID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		h.writeError(w, types.NewValidationError("Identificador de profissional inválido"))
		return "", false
	}
	return id, true
}

func isNotFound(err error) bool {
	var appErr *types.AppError
	return errors.As(err, &appErr) && appErr.Kind == types.ErrorKindNotFound
}

func parsePositiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func pageCount(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
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
		appErr = types.NewInternalError("Erro ao processar solicitação", err)
	}

	message := appErr.Message
	if appErr.Kind == types.ErrorKindInternal {
		h.logger.WithError(appErr).Error("Request failed")
		if !h.devMode {
			message = "Erro ao processar solicitação"
		}
	}

	h.writeJSON(w, appErr.Kind.HTTPStatus(), types.Response{
		Success: false,
		Message: message,
	})
}
