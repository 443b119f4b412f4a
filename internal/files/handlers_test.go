package files

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabriciogeog/controle-doc-medica/pkg/logger"
)

func setupViewTest(t *testing.T) (*Handlers, string) {
	t.Helper()
	dir := t.TempDir()
	h := NewHandlers(NewPathGuard(dir, nil), logger.New("error"))
	return h, dir
}

func viewRequest(caminho string) *http.Request {
	target := "/api/visualizar-arquivo"
	if caminho != "" {
		target += "?caminho=" + url.QueryEscape(caminho)
	}
	return httptest.NewRequest(http.MethodGet, target, nil)
}

func TestView_MissingPathIs400(t *testing.T) {
	h, _ := setupViewTest(t)

	rec := httptest.NewRecorder()
	h.View(rec, viewRequest(""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestView_DisallowedPathIs403(t *testing.T) {
	h, _ := setupViewTest(t)

	rec := httptest.NewRecorder()
	h.View(rec, viewRequest("/etc/passwd"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Acesso ao caminho não permitido")
}

func TestView_MissingFileIs404(t *testing.T) {
	h, dir := setupViewTest(t)

	rec := httptest.NewRecorder()
	h.View(rec, viewRequest(filepath.Join(dir, "nao-existe.pdf")))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestView_DirectoryIs400(t *testing.T) {
	h, dir := setupViewTest(t)
	sub := filepath.Join(dir, "pasta")
	require.NoError(t, os.Mkdir(sub, 0o755))

	rec := httptest.NewRecorder()
	h.View(rec, viewRequest(sub))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestView_StreamsWithHeaders(t *testing.T) {
	h, dir := setupViewTest(t)
	path := filepath.Join(dir, "laudo.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 conteudo"), 0o644))

	rec := httptest.NewRecorder()
	h.View(rec, viewRequest(path))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "inline")
	assert.Equal(t, "17", rec.Header().Get("Content-Length"))
	assert.Equal(t, "%PDF-1.4 conteudo", rec.Body.String())
}

func TestView_UnknownExtensionFallsBack(t *testing.T) {
	h, dir := setupViewTest(t)
	path := filepath.Join(dir, "resultado.dat")
	require.NoError(t, os.WriteFile(path, []byte{0x01, 0x02}, 0o644))

	rec := httptest.NewRecorder()
	h.View(rec, viewRequest(path))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
}
