package documents

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fabriciogeog/controle-doc-medica/pkg/logger"
	"github.com/fabriciogeog/controle-doc-medica/pkg/types"
)

// MockDocumentRepository is a mock implementation of DocumentRepository
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) List(ctx context.Context, filters *types.DocumentFilters) ([]*types.Document, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*types.Document), args.Get(1).(int64), args.Error(2)
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, id string) (*types.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Document), args.Error(1)
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *types.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) Update(ctx context.Context, doc *types.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentRepository) CountByRegistration(ctx context.Context, numeroRegistro string) (int64, error) {
	args := m.Called(ctx, numeroRegistro)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDocumentRepository) Stats(ctx context.Context) (*types.DocumentStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.DocumentStats), args.Error(1)
}

func setupTestHandlers(t *testing.T) (*Handlers, *MockDocumentRepository) {
	t.Helper()
	mockRepo := &MockDocumentRepository{}
	h := NewHandlers(mockRepo, logger.New("error"), t.TempDir(), true)
	return h, mockRepo
}

func storedDocument() *types.Document {
	created := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	return &types.Document{
		ID:                     "0b4f4e38-0000-4000-8000-000000000001",
		TipoDocumento:          "Exame",
		EspecialidadeMedica:    "Cardiologia",
		DataSolicitacaoEmissao: created,
		ProfissionalSolicitante: types.ProfessionalSnapshot{
			Nome:           "Dra. Helena Costa",
			NumeroRegistro: "CRM-SP 123456",
		},
		Descricao:   "Ecocardiograma transtorácico",
		Instituicao: types.InstitutionSnapshot{Nome: "Hospital Santa Clara"},
		Arquivos: []types.FileRef{{
			ID:              "f1a2b3c4-0000-4000-8000-000000000010",
			NomeArquivo:     "eco.pdf",
			CaminhoAbsoluto: "/mnt/docs/eco.pdf",
			TipoArquivo:     "pdf",
			DataInclusao:    created,
		}},
		Tags:                []string{"cardio"},
		DataCriacaoRegistro: created,
		DataAtualizacao:     created,
	}
}

func createPayload() string {
	return `{
		"tipoDocumento": "Exame",
		"especialidadeMedica": "Cardiologia",
		"dataSolicitacaoEmissao": "2025-03-10",
		"descricao": "Ecocardiograma transtorácico",
		"profissionalSolicitante": {"nome": "Dra. Helena Costa", "numeroRegistro": "CRM-SP 123456"},
		"instituicao": {"nome": "Hospital Santa Clara"},
		"tags": "cardio, urgente",
		"caminhos": "/mnt/docs/eco.pdf\n/mnt/docs/foto.jpg"
	}`
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withVars(req *http.Request, vars map[string]string) *http.Request {
	return mux.SetURLVars(req, vars)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) types.Response {
	t.Helper()
	var resp types.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCreate_Success(t *testing.T) {
	h, mockRepo := setupTestHandlers(t)

	var saved *types.Document
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*types.Document")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*types.Document) }).
		Return(nil)

	rec := httptest.NewRecorder()
	h.Create(rec, jsonRequest(http.MethodPost, "/api/documentos", createPayload()))

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "Documento criado com sucesso", resp.Message)

	require.NotNil(t, saved)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, []string{"cardio", "urgente"}, saved.Tags)

	require.Len(t, saved.Arquivos, 2)
	assert.Equal(t, "eco.pdf", saved.Arquivos[0].NomeArquivo)
	assert.Equal(t, "pdf", saved.Arquivos[0].TipoArquivo)
	assert.Equal(t, "imagem", saved.Arquivos[1].TipoArquivo)
	assert.NotEmpty(t, saved.Arquivos[0].ID)
	assert.NotEqual(t, saved.Arquivos[0].ID, saved.Arquivos[1].ID)
}

func TestCreate_ValidationEnvelope(t *testing.T) {
	h, mockRepo := setupTestHandlers(t)

	payload := `{"tipoDocumento": "Prontuário", "especialidadeMedica": "Cardiologia"}`
	rec := httptest.NewRecorder()
	h.Create(rec, jsonRequest(http.MethodPost, "/api/documentos", payload))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "Dados inválidos", resp.Message)
	assert.NotEmpty(t, resp.Errors)

	fields := make([]string, 0, len(resp.Errors))
	for _, fe := range resp.Errors {
		fields = append(fields, fe.Field)
	}
	assert.Contains(t, fields, "tipoDocumento")
	assert.Contains(t, fields, "descricao")

	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGet_MalformedIDIs400(t *testing.T) {
	h, mockRepo := setupTestHandlers(t)

	req := withVars(httptest.NewRequest(http.MethodGet, "/api/documentos/abc", nil), map[string]string{"id": "abc"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	mockRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestGet_MissingIs404(t *testing.T) {
	h, mockRepo := setupTestHandlers(t)

	id := uuid.New().String()
	mockRepo.On("GetByID", mock.Anything, id).Return(nil, types.NewNotFoundError("Documento não encontrado"))

	req := withVars(httptest.NewRequest(http.MethodGet, "/api/documentos/"+id, nil), map[string]string{"id": id})
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Documento não encontrado", decodeResponse(t, rec).Message)
}

func TestList_PaginationDefaultsAndCap(t *testing.T) {
	h, mockRepo := setupTestHandlers(t)

	var captured *types.DocumentFilters
	mockRepo.On("List", mock.Anything, mock.AnythingOfType("*types.DocumentFilters")).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*types.DocumentFilters) }).
		Return([]*types.Document{storedDocument()}, int64(41), nil)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/documentos?limit=9999", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, 1, captured.Page)
	assert.Equal(t, 100, captured.Limit, "limit must be capped")

	var resp types.ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, int64(41), resp.Total)
	assert.Equal(t, 1, resp.Pages)
}

func TestList_PageArithmetic(t *testing.T) {
	h, mockRepo := setupTestHandlers(t)

	mockRepo.On("List", mock.Anything, mock.AnythingOfType("*types.DocumentFilters")).
		Return([]*types.Document{}, int64(41), nil)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/documentos?page=3&limit=20", nil))

	var resp types.ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Page)
	assert.Equal(t, 3, resp.Pages, "41 items at 20 per page is 3 pages")
}

func TestClone_NewIdentityAndPrefix(t *testing.T) {
	h, mockRepo := setupTestHandlers(t)
	original := storedDocument()

	mockRepo.On("GetByID", mock.Anything, original.ID).Return(original, nil)

	var cloned *types.Document
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*types.Document")).
		Run(func(args mock.Arguments) { cloned = args.Get(1).(*types.Document) }).
		Return(nil)

	req := withVars(
		httptest.NewRequest(http.MethodPost, "/api/documentos/"+original.ID+"/clonar", nil),
		map[string]string{"id": original.ID},
	)
	rec := httptest.NewRecorder()
	h.Clone(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "Documento clonado com sucesso! Pronto para edição.", resp.Message)

	require.NotNil(t, cloned)
	assert.NotEqual(t, original.ID, cloned.ID)
	assert.Equal(t, "[CÓPIA] "+original.Descricao, cloned.Descricao)
	assert.True(t, cloned.DataCriacaoRegistro.After(original.DataCriacaoRegistro))

	require.Len(t, cloned.Arquivos, 1)
	assert.NotEqual(t, original.Arquivos[0].ID, cloned.Arquivos[0].ID)
	assert.Equal(t, original.Arquivos[0].CaminhoAbsoluto, cloned.Arquivos[0].CaminhoAbsoluto)
}

func TestRemoveFile_UnknownFileIs404(t *testing.T) {
	h, mockRepo := setupTestHandlers(t)
	doc := storedDocument()

	mockRepo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)

	req := withVars(
		httptest.NewRequest(http.MethodDelete, "/api/documentos/"+doc.ID+"/arquivos/nope", nil),
		map[string]string{"id": doc.ID, "arquivo_id": "nope"},
	)
	rec := httptest.NewRecorder()
	h.RemoveFile(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Arquivo não encontrado", decodeResponse(t, rec).Message)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestRemoveFile_SplicesAndPersists(t *testing.T) {
	h, mockRepo := setupTestHandlers(t)
	doc := storedDocument()
	fileID := doc.Arquivos[0].ID

	mockRepo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)
	mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*types.Document")).Return(nil)

	req := withVars(
		httptest.NewRequest(http.MethodDelete, "/api/documentos/"+doc.ID+"/arquivos/"+fileID, nil),
		map[string]string{"id": doc.ID, "arquivo_id": fileID},
	)
	rec := httptest.NewRecorder()
	h.RemoveFile(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, doc.Arquivos)
}

func TestNormalizeTags_Shapes(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, normalizeTags("a, b,, "))
	assert.Equal(t, []string{"a", "b"}, normalizeTags([]interface{}{"a", " b ", ""}))
	assert.Equal(t, []string{"a"}, normalizeTags([]string{" a "}))
	assert.Empty(t, normalizeTags(nil))
	assert.Empty(t, normalizeTags(42))
}

func TestInferFileType(t *testing.T) {
	assert.Equal(t, "pdf", inferFileType("/mnt/docs/laudo.PDF"))
	assert.Equal(t, "imagem", inferFileType("/mnt/docs/raio-x.png"))
	assert.Equal(t, "imagem", inferFileType("/mnt/docs/foto.jpeg"))
	assert.Equal(t, "outro", inferFileType("/mnt/docs/resultado.csv"))
}
