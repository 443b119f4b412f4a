package files

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fabriciogeog/controle-doc-medica/pkg/logger"
	"github.com/fabriciogeog/controle-doc-medica/pkg/types"
)

var mimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".txt":  "text/plain",
	".html": "text/html",
	".json": "application/json",
}

// Handlers serves catalogued files from allow-listed paths
type Handlers struct {
	guard  *PathGuard
	logger *logger.Logger
}

// NewHandlers creates file-serving handlers
func NewHandlers(guard *PathGuard, log *logger.Logger) *Handlers {
	return &Handlers{
		guard:  guard,
		logger: log,
	}
}

// View streams a file referenced by an absolute path, after the path guard
// approves it. GET /api/visualizar-arquivo?caminho=...
func (h *Handlers) View(w http.ResponseWriter, r *http.Request) {
	caminho := r.URL.Query().Get("caminho")

	if caminho == "" {
		h.writeError(w, http.StatusBadRequest, "Caminho do arquivo não fornecido")
		return
	}

	if !h.guard.Allowed(caminho) {
		h.logger.WithField("path", caminho).Warn("File access outside allow-list rejected")
		h.writeError(w, http.StatusForbidden, "Acesso ao caminho não permitido")
		return
	}

	info, err := os.Stat(caminho)
	if err != nil {
		if os.IsNotExist(err) {
			h.writeError(w, http.StatusNotFound, "Arquivo não encontrado no caminho especificado")
			return
		}
		h.logger.WithError(err).Error("Failed to stat file")
		h.writeError(w, http.StatusInternalServerError, "Erro ao processar solicitação")
		return
	}

	if !info.Mode().IsRegular() {
		h.writeError(w, http.StatusBadRequest, "O caminho não é um arquivo válido")
		return
	}

	file, err := os.Open(caminho)
	if err != nil {
		h.logger.WithError(err).Error("Failed to open file")
		h.writeError(w, http.StatusInternalServerError, "Erro ao ler o arquivo")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(caminho))
	mimeType, ok := mimeTypes[ext]
	if !ok {
		mimeType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filepath.Base(caminho)))
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))

	// Headers are committed once streaming starts; a mid-stream read error
	// can only terminate the response, not produce a clean envelope.
	if _, err := io.Copy(w, file); err != nil {
		h.logger.WithError(err).WithField("path", caminho).Error("File stream interrupted")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(types.Response{
		Success: false,
		Message: message,
	})
}
