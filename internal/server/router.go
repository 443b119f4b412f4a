package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"

	"github.com/fabriciogeog/controle-doc-medica/internal/auth"
	"github.com/fabriciogeog/controle-doc-medica/internal/dedup"
	"github.com/fabriciogeog/controle-doc-medica/internal/documents"
	"github.com/fabriciogeog/controle-doc-medica/internal/files"
	"github.com/fabriciogeog/controle-doc-medica/internal/professionals"
	"github.com/fabriciogeog/controle-doc-medica/pkg/database"
	"github.com/fabriciogeog/controle-doc-medica/pkg/logger"
	"github.com/fabriciogeog/controle-doc-medica/pkg/monitoring"
)

// Deps holds the wired components the router exposes
type Deps struct {
	Logger        *logger.Logger
	DB            *database.DB
	Sessions      *auth.SessionManager
	Guard         *dedup.Guard
	Auth          *auth.Handlers
	Documents     *documents.Handlers
	Professionals *professionals.Handlers
	Files         *files.Handlers
	PublicDir     string
}

// NewRouter builds the full route tree with middleware chains
func NewRouter(deps Deps) *mux.Router {
	r := mux.NewRouter()
	r.Use(RecoveryMiddleware(deps.Logger))
	r.Use(LoggingMiddleware(deps.Logger))
	r.Use(monitoring.Middleware)

	r.HandleFunc("/health", healthHandler(deps.DB)).Methods(http.MethodGet)
	r.Handle("/metrics", monitoring.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(FormMiddleware)

	// Public auth endpoints
	public := api.PathPrefix("/auth").Subrouter()
	public.HandleFunc("/login", deps.Auth.Login).Methods(http.MethodPost)
	public.HandleFunc("/logout", deps.Auth.Logout).Methods(http.MethodPost)
	public.HandleFunc("/check", deps.Auth.Check).Methods(http.MethodGet)

	// Everything else under /api requires an authenticated session
	protected := api.PathPrefix("").Subrouter()
	protected.Use(deps.Sessions.RequireAuth)

	protected.HandleFunc("/auth/perfil", deps.Auth.GetProfile).Methods(http.MethodGet)
	protected.HandleFunc("/auth/perfil", deps.Auth.UpdateProfile).Methods(http.MethodPut)
	protected.HandleFunc("/auth/alterar-senha", deps.Auth.ChangePassword).Methods(http.MethodPut)

	dedupGuard := DedupMiddleware(deps.Guard, deps.Logger)
	protected.HandleFunc("/documentos", deps.Documents.List).Methods(http.MethodGet)
	protected.Handle("/documentos", dedupGuard(http.HandlerFunc(deps.Documents.Create))).Methods(http.MethodPost)
	protected.HandleFunc("/documentos/{id}", deps.Documents.Get).Methods(http.MethodGet)
	protected.HandleFunc("/documentos/{id}", deps.Documents.Update).Methods(http.MethodPut)
	protected.HandleFunc("/documentos/{id}", deps.Documents.Delete).Methods(http.MethodDelete)
	protected.HandleFunc("/documentos/{id}/clonar", deps.Documents.Clone).Methods(http.MethodPost)
	protected.HandleFunc("/documentos/{id}/arquivos/{arquivo_id}", deps.Documents.RemoveFile).Methods(http.MethodDelete)

	// Registered before the {id} routes so "busca" is never captured as an id
	protected.HandleFunc("/profissionais/busca/autocomplete", deps.Professionals.Autocomplete).Methods(http.MethodGet)
	protected.HandleFunc("/profissionais", deps.Professionals.List).Methods(http.MethodGet)
	protected.HandleFunc("/profissionais", deps.Professionals.Create).Methods(http.MethodPost)
	protected.HandleFunc("/profissionais/{id}", deps.Professionals.Get).Methods(http.MethodGet)
	protected.HandleFunc("/profissionais/{id}", deps.Professionals.Update).Methods(http.MethodPut)
	protected.HandleFunc("/profissionais/{id}", deps.Professionals.Delete).Methods(http.MethodDelete)
	protected.HandleFunc("/profissionais/{id}/status", deps.Professionals.SetStatus).Methods(http.MethodPatch)

	protected.HandleFunc("/estatisticas", deps.Documents.Stats).Methods(http.MethodGet)
	protected.HandleFunc("/visualizar-arquivo", deps.Files.View).Methods(http.MethodGet)

	if deps.PublicDir != "" {
		r.PathPrefix("/").Handler(spaHandler{staticDir: deps.PublicDir})
	}

	return r
}

func healthHandler(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "healthy"
		dbStatus := "connected"
		code := http.StatusOK

		if err := db.Health(); err != nil {
			status = "degraded"
			dbStatus = "unreachable"
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    status,
			"database":  dbStatus,
			"timestamp": time.Now().UTC(),
		})
	}
}

// spaHandler serves the static frontend, falling back to index.html for
// client-side routes
type spaHandler struct {
	staticDir string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(h.staticDir, filepath.Clean("/"+r.URL.Path))

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		http.ServeFile(w, r, filepath.Join(h.staticDir, "index.html"))
		return
	}

	http.FileServer(http.Dir(h.staticDir)).ServeHTTP(w, r)
}
