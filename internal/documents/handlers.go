package documents

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
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
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100

	cloneMarker = "[CÓPIA] "
)

// Handlers contains HTTP handlers for document operations
type Handlers struct {
	repo      interfaces.DocumentRepository
	logger    *logger.Logger
	uploadDir string
	devMode   bool
}

// NewHandlers creates document HTTP handlers
func NewHandlers(repo interfaces.DocumentRepository, log *logger.Logger, uploadDir string, devMode bool) *Handlers {
	return &Handlers{
		repo:      repo,
		logger:    log,
		uploadDir: uploadDir,
		devMode:   devMode,
	}
}

// List returns filtered, paginated documents.
// GET /api/documentos
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters := &types.DocumentFilters{
		TipoDocumento:       q.Get("tipoDocumento"),
		EspecialidadeMedica: q.Get("especialidadeMedica"),
		Profissional:        q.Get("profissional"),
		Instituicao:         q.Get("instituicao"),
		Busca:               q.Get("busca"),
		Page:                parsePositiveInt(q.Get("page"), defaultPage),
		Limit:               parsePositiveInt(q.Get("limit"), defaultLimit),
	}
	if filters.Limit > maxLimit {
		filters.Limit = maxLimit
	}

	if raw := q.Get("dataInicio"); raw != "" {
		if t, err := validation.ParseDate(raw); err == nil {
			filters.DataInicio = &t
		}
	}
	if raw := q.Get("dataFim"); raw != "" {
		if t, err := validation.ParseDate(raw); err == nil {
			filters.DataFim = &t
		}
	}

	docs, total, err := h.repo.List(r.Context(), filters)
	if err != nil {
		h.writeError(w, types.NewInternalError("Erro ao buscar documentos", err))
		return
	}
	if docs == nil {
		docs = []*types.Document{}
	}

	h.writeJSON(w, http.StatusOK, types.ListResponse{
		Success: true,
		Count:   len(docs),
		Total:   total,
		Page:    filters.Page,
		Pages:   pageCount(total, filters.Limit),
		Data:    docs,
	})
}

// Create validates and persists a new document. Runs behind the form
// normalizer and the duplicate-submission guard.
// POST /api/documentos
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.bindInput(w, r)
	if !ok {
		return
	}

	doc, err := h.buildDocument(input, time.Now())
	if err != nil {
		h.writeError(w, err)
		return
	}
	doc.ID = uuid.New().String()

	if err := h.repo.Create(r.Context(), doc); err != nil {
		h.writeError(w, types.NewInternalError("Erro ao criar documento", err))
		return
	}

	h.writeJSON(w, http.StatusCreated, types.Response{
		Success: true,
		Message: "Documento criado com sucesso",
		Data:    doc,
	})
}

// Get returns a document by id.
// GET /api/documentos/{id}
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}

	doc, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, types.Response{Success: true, Data: doc})
}

// Update replaces a document's mutable fields.
// PUT /api/documentos/{id}
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
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

	now := time.Now()
	doc, err := h.buildDocument(input, now)
	if err != nil {
		h.writeError(w, err)
		return
	}

	doc.ID = existing.ID
	doc.DataCriacaoRegistro = existing.DataCriacaoRegistro
	doc.DataAtualizacao = now

	// Fields the payload leaves unset keep their stored values
	if input.Tags == nil {
		doc.Tags = existing.Tags
	}
	if len(input.Arquivos) == 0 && input.Caminhos == "" {
		doc.Arquivos = existing.Arquivos
	}

	if err := h.repo.Update(r.Context(), doc); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.WithField("document_id", doc.ID).Info("Document updated")
	h.writeJSON(w, http.StatusOK, types.Response{
		Success: true,
		Message: "Documento atualizado com sucesso",
		Data:    doc,
	})
}

// Delete removes a document and any locally-managed file artifacts it owns.
// DELETE /api/documentos/{id}
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}

	doc, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}

	for _, arquivo := range doc.Arquivos {
		h.removeLocalArtifact(arquivo)
	}

	h.writeJSON(w, http.StatusOK, types.Response{
		Success: true,
		Message: "Documento removido com sucesso",
	})
}

// Clone deep-copies a document under a new identity with fresh timestamps.
// File path references are preserved; physical files are not duplicated.
// POST /api/documentos/{id}/clonar
func (h *Handlers) Clone(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}

	original, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		var appErr *types.AppError
		if errors.As(err, &appErr) && appErr.Kind == types.ErrorKindNotFound {
			h.writeError(w, types.NewNotFoundError("Documento não encontrado para clonagem"))
			return
		}
		h.writeError(w, err)
		return
	}

	now := time.Now()
	clone := *original
	clone.ID = uuid.New().String()
	clone.Descricao = cloneMarker + original.Descricao
	clone.DataCriacaoRegistro = now
	clone.DataAtualizacao = now

	clone.Tags = append([]string{}, original.Tags...)
	clone.Arquivos = make([]types.FileRef, len(original.Arquivos))
	for i, arquivo := range original.Arquivos {
		copied := arquivo
		copied.ID = uuid.New().String()
		clone.Arquivos[i] = copied
	}

	if err := h.repo.Create(r.Context(), &clone); err != nil {
		h.writeError(w, types.NewInternalError("Erro ao clonar documento", err))
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"original_id": original.ID,
		"clone_id":    clone.ID,
	}).Info("Document cloned")

	h.writeJSON(w, http.StatusOK, types.Response{
		Success: true,
		Message: "Documento clonado com sucesso! Pronto para edição.",
		Data: types.CloneResult{
			DocumentoOriginal: original.ID,
			DocumentoClonado:  clone.ID,
			Documento:         &clone,
		},
	})
}

// RemoveFile removes a single file reference from a document.
// DELETE /api/documentos/{id}/arquivos/{arquivo_id}
func (h *Handlers) RemoveFile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	arquivoID := mux.Vars(r)["arquivo_id"]

	doc, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	index := -1
	for i, arquivo := range doc.Arquivos {
		if arquivo.ID == arquivoID {
			index = i
			break
		}
	}
	if index < 0 {
		h.writeError(w, types.NewNotFoundError("Arquivo não encontrado"))
		return
	}

	removed := doc.Arquivos[index]
	doc.Arquivos = append(doc.Arquivos[:index], doc.Arquivos[index+1:]...)
	doc.DataAtualizacao = time.Now()

	if err := h.repo.Update(r.Context(), doc); err != nil {
		h.writeError(w, err)
		return
	}

	h.removeLocalArtifact(removed)

	h.writeJSON(w, http.StatusOK, types.Response{
		Success: true,
		Message: "Arquivo removido com sucesso",
	})
}

// Stats returns the aggregate statistics view.
// GET /api/estatisticas
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		h.writeError(w, types.NewInternalError("Erro ao buscar estatísticas", err))
		return
	}

	h.writeJSON(w, http.StatusOK, types.Response{Success: true, Data: stats})
}

// bindInput decodes, normalizes and validates a document payload
func (h *Handlers) bindInput(w http.ResponseWriter, r *http.Request) (*types.DocumentInput, bool) {
	body := forms.FromContext(r.Context())
	if body == nil {
		decoded, err := forms.DecodeBody(r)
		if err != nil {
			h.writeError(w, types.NewValidationError("Corpo da requisição inválido"))
			return nil, false
		}
		body = forms.Normalize(decoded)
	}

	var input types.DocumentInput
	if err := forms.Bind(body, &input); err != nil {
		h.writeError(w, types.NewValidationError("Corpo da requisição inválido"))
		return nil, false
	}

	if fieldErrors := validation.Check(&input); len(fieldErrors) > 0 {
		h.writeJSON(w, http.StatusBadRequest, types.Response{
			Success: false,
			Message: "Dados inválidos",
			Errors:  fieldErrors,
		})
		return nil, false
	}

	return &input, true
}

// buildDocument assembles a document entity from a validated payload
func (h *Handlers) buildDocument(input *types.DocumentInput, now time.Time) (*types.Document, error) {
	issuedAt, err := validation.ParseDate(input.DataSolicitacaoEmissao)
	if err != nil {
		return nil, types.NewValidationError("Data de solicitação/emissão inválida")
	}

	tags := normalizeTags(input.Tags)
	if tags == nil {
		tags = []string{}
	}

	arquivos := buildFileRefs(input.Arquivos, input.Caminhos, now)
	if arquivos == nil {
		arquivos = []types.FileRef{}
	}

	return &types.Document{
		TipoDocumento:          input.TipoDocumento,
		EspecialidadeMedica:    input.EspecialidadeMedica,
		DataSolicitacaoEmissao: issuedAt,
		ProfissionalSolicitante: types.ProfessionalSnapshot{
			Nome:           input.ProfissionalSolicitante.Nome,
			NumeroRegistro: input.ProfissionalSolicitante.NumeroRegistro,
			Especialidade:  input.ProfissionalSolicitante.Especialidade,
		},
		Descricao: input.Descricao,
		Instituicao: types.InstitutionSnapshot{
			Nome: input.Instituicao.Nome,
			CNPJ: input.Instituicao.CNPJ,
		},
		Arquivos:            arquivos,
		Tags:                tags,
		Observacoes:         input.Observacoes,
		DataCriacaoRegistro: now,
		DataAtualizacao:     now,
	}, nil
}

// documentID extracts and validates the path id; malformed ids are a 400,
// distinct from the 404 of a well-formed id that matches nothing
func (h *Handlers) documentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		h.writeError(w, types.NewValidationError("Identificador de documento inválido"))
		return "", false
	}
	return id, true
}

// removeLocalArtifact deletes a locally-managed upload artifact, best-effort.
// Externally referenced absolute paths are never touched.
func (h *Handlers) removeLocalArtifact(arquivo types.FileRef) {
	if arquivo.NomeArquivoSistema == "" {
		return
	}
	path := filepath.Join(h.uploadDir, arquivo.NomeArquivoSistema)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		h.logger.WithError(err).WithField("path", path).Warn("Failed to remove local file artifact")
	}
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
