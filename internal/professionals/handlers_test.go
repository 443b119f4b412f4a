package professionals

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

// MockProfessionalRepository is a mock implementation of ProfessionalRepository
type MockProfessionalRepository struct {
	mock.Mock
}

func (m *MockProfessionalRepository) List(ctx context.Context, filters *types.ProfessionalFilters) ([]*types.Professional, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*types.Professional), args.Get(1).(int64), args.Error(2)
}

func (m *MockProfessionalRepository) GetByID(ctx context.Context, id string) (*types.Professional, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Professional), args.Error(1)
}

func (m *MockProfessionalRepository) GetByRegistration(ctx context.Context, numeroRegistro string) (*types.Professional, error) {
	args := m.Called(ctx, numeroRegistro)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Professional), args.Error(1)
}

func (m *MockProfessionalRepository) Create(ctx context.Context, p *types.Professional) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProfessionalRepository) Update(ctx context.Context, p *types.Professional) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProfessionalRepository) SetActive(ctx context.Context, id string, ativo bool) (*types.Professional, error) {
	args := m.Called(ctx, id, ativo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Professional), args.Error(1)
}

func (m *MockProfessionalRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProfessionalRepository) Autocomplete(ctx context.Context, query string, limit int) ([]*types.ProfessionalSuggestion, error) {
	args := m.Called(ctx, query, limit)
	return args.Get(0).([]*types.ProfessionalSuggestion), args.Error(1)
}

// MockDocumentRepository covers only the referential-count lookup
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

func setupTestHandlers(t *testing.T) (*Handlers, *MockProfessionalRepository, *MockDocumentRepository) {
	t.Helper()
	mockRepo := &MockProfessionalRepository{}
	mockDocs := &MockDocumentRepository{}
	h := NewHandlers(mockRepo, mockDocs, logger.New("error"), true)
	return h, mockRepo, mockDocs
}

func storedProfessional() *types.Professional {
	created := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	return &types.Professional{
		ID:                     "7c4f4e38-0000-4000-8000-000000000002",
		Nome:                   "Dra. Helena Costa",
		NumeroRegistro:         "CRM-SP 123456",
		Especialidade:          "Cardiologia",
		InstituicoesPrincipais: []string{"Hospital Santa Clara"},
		Telefone:               "11 99999-0000",
		Ativo:                  true,
		DataCriacao:            created,
		DataAtualizacao:        created,
	}
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

func TestCreate_UppercasesRegistrationAndDefaults(t *testing.T) {
	h, mockRepo, _ := setupTestHandlers(t)

	mockRepo.On("GetByRegistration", mock.Anything, "CRM-RJ 7890").
		Return(nil, types.NewNotFoundError("Profissional não encontrado"))

	var saved *types.Professional
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*types.Professional")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*types.Professional) }).
		Return(nil)

	body := `{
		"nome": " Dr. Paulo Souza ",
		"numeroRegistro": "crm-rj 7890",
		"especialidade": "Ortopedia",
		"instituicoesPrincipais": "Clínica Vida, Hospital Central, "
	}`
	rec := httptest.NewRecorder()
	h.Create(rec, jsonRequest(http.MethodPost, "/api/profissionais", body))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Profissional cadastrado com sucesso", decodeResponse(t, rec).Message)

	require.NotNil(t, saved)
	assert.Equal(t, "CRM-RJ 7890", saved.NumeroRegistro)
	assert.Equal(t, "Dr. Paulo Souza", saved.Nome)
	assert.True(t, saved.Ativo, "ativo defaults to true")
	assert.Equal(t, []string{"Clínica Vida", "Hospital Central"}, saved.InstituicoesPrincipais)
}

func TestCreate_CaseInsensitiveRegistrationConflict(t *testing.T) {
	h, mockRepo, _ := setupTestHandlers(t)

	mockRepo.On("GetByRegistration", mock.Anything, "CRM-SP 123456").Return(storedProfessional(), nil)

	body := `{"nome": "Outra Pessoa", "numeroRegistro": "crm-sp 123456", "especialidade": "Cardiologia"}`
	rec := httptest.NewRecorder()
	h.Create(rec, jsonRequest(http.MethodPost, "/api/profissionais", body))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Já existe um profissional cadastrado com este número de registro", decodeResponse(t, rec).Message)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdate_ThreeStateOptionalFields(t *testing.T) {
	h, mockRepo, _ := setupTestHandlers(t)
	existing := storedProfessional()

	mockRepo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil)

	var saved *types.Professional
	mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*types.Professional")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*types.Professional) }).
		Return(nil)

	// telefone absent (kept), email blank (cleared), observacoes set
	body := `{
		"nome": "Dra. Helena Costa",
		"numeroRegistro": "CRM-SP 123456",
		"especialidade": "Cardiologia",
		"email": "",
		"observacoes": " atende às terças "
	}`
	req := withVars(
		jsonRequest(http.MethodPut, "/api/profissionais/"+existing.ID, body),
		map[string]string{"id": existing.ID},
	)
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, saved)
	assert.Equal(t, "11 99999-0000", saved.Telefone, "absent field keeps stored value")
	assert.Equal(t, "", saved.Email, "blank field is cleared")
	assert.Equal(t, "atende às terças", saved.Observacoes)
}

func TestUpdate_RegistrationConflictExcludesSelf(t *testing.T) {
	h, mockRepo, _ := setupTestHandlers(t)
	existing := storedProfessional()
	other := storedProfessional()
	other.ID = uuid.New().String()
	other.NumeroRegistro = "CRM-RJ 7890"

	mockRepo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil)
	mockRepo.On("GetByRegistration", mock.Anything, "CRM-RJ 7890").Return(other, nil)

	body := `{"nome": "Dra. Helena Costa", "numeroRegistro": "crm-rj 7890", "especialidade": "Cardiologia"}`
	req := withVars(
		jsonRequest(http.MethodPut, "/api/profissionais/"+existing.ID, body),
		map[string]string{"id": existing.ID},
	)
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Já existe outro profissional com este número de registro", decodeResponse(t, rec).Message)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestSetStatus_Messages(t *testing.T) {
	h, mockRepo, _ := setupTestHandlers(t)
	p := storedProfessional()
	p.Ativo = false

	mockRepo.On("SetActive", mock.Anything, p.ID, false).Return(p, nil)

	req := withVars(
		jsonRequest(http.MethodPatch, "/api/profissionais/"+p.ID+"/status", `{"ativo": false}`),
		map[string]string{"id": p.ID},
	)
	rec := httptest.NewRecorder()
	h.SetStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Profissional inativado com sucesso", decodeResponse(t, rec).Message)
}

func TestSetStatus_MissingFlagIs400(t *testing.T) {
	h, mockRepo, _ := setupTestHandlers(t)
	id := uuid.New().String()

	req := withVars(
		jsonRequest(http.MethodPatch, "/api/profissionais/"+id+"/status", `{}`),
		map[string]string{"id": id},
	)
	rec := httptest.NewRecorder()
	h.SetStatus(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	mockRepo.AssertNotCalled(t, "SetActive", mock.Anything, mock.Anything, mock.Anything)
}

func TestDelete_BlockedByLinkedDocuments(t *testing.T) {
	h, mockRepo, mockDocs := setupTestHandlers(t)
	p := storedProfessional()

	mockRepo.On("GetByID", mock.Anything, p.ID).Return(p, nil)
	mockDocs.On("CountByRegistration", mock.Anything, p.NumeroRegistro).Return(int64(3), nil)

	req := withVars(
		httptest.NewRequest(http.MethodDelete, "/api/profissionais/"+p.ID, nil),
		map[string]string{"id": p.ID},
	)
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t,
		"Não é possível excluir este profissional pois ele está vinculado a 3 documento(s). Considere inativá-lo.",
		decodeResponse(t, rec).Message,
	)
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDelete_Unreferenced(t *testing.T) {
	h, mockRepo, mockDocs := setupTestHandlers(t)
	p := storedProfessional()

	mockRepo.On("GetByID", mock.Anything, p.ID).Return(p, nil)
	mockDocs.On("CountByRegistration", mock.Anything, p.NumeroRegistro).Return(int64(0), nil)
	mockRepo.On("Delete", mock.Anything, p.ID).Return(nil)

	req := withVars(
		httptest.NewRequest(http.MethodDelete, "/api/profissionais/"+p.ID, nil),
		map[string]string{"id": p.ID},
	)
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Profissional excluído com sucesso", decodeResponse(t, rec).Message)
}

func TestAutocomplete_ShortQuerySkipsStorage(t *testing.T) {
	h, mockRepo, _ := setupTestHandlers(t)

	rec := httptest.NewRecorder()
	h.Autocomplete(rec, httptest.NewRequest(http.MethodGet, "/api/profissionais/busca/autocomplete?q=a", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
	mockRepo.AssertNotCalled(t, "Autocomplete", mock.Anything, mock.Anything, mock.Anything)
}

func TestAutocomplete_QueriesActiveProfessionals(t *testing.T) {
	h, mockRepo, _ := setupTestHandlers(t)

	suggestions := []*types.ProfessionalSuggestion{{
		ID:             "7c4f4e38-0000-4000-8000-000000000002",
		Nome:           "Dra. Helena Costa",
		NumeroRegistro: "CRM-SP 123456",
		Especialidade:  "Cardiologia",
	}}
	mockRepo.On("Autocomplete", mock.Anything, "hel", 10).Return(suggestions, nil)

	rec := httptest.NewRecorder()
	h.Autocomplete(rec, httptest.NewRequest(http.MethodGet, "/api/profissionais/busca/autocomplete?q=hel", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	mockRepo.AssertCalled(t, "Autocomplete", mock.Anything, "hel", 10)
}

func TestNormalizeInstitutions_Shapes(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, normalizeInstitutions("A, B, "))
	assert.Equal(t, []string{"A"}, normalizeInstitutions([]interface{}{" A ", ""}))
	assert.Empty(t, normalizeInstitutions(nil))
	assert.Empty(t, normalizeInstitutions(7))
}
