package server

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/fabriciogeog/controle-doc-medica/internal/auth"
	"github.com/fabriciogeog/controle-doc-medica/internal/dedup"
	"github.com/fabriciogeog/controle-doc-medica/internal/forms"
	"github.com/fabriciogeog/controle-doc-medica/pkg/logger"
	"github.com/fabriciogeog/controle-doc-medica/pkg/monitoring"
	"github.com/fabriciogeog/controle-doc-medica/pkg/types"
)

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// LoggingMiddleware logs each request with method, path, client and timing
func LoggingMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(recorder, r)

			clientIP, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				clientIP = r.RemoteAddr
			}
			log.HTTPRequest(r.Method, r.URL.Path, clientIP, recorder.statusCode, time.Since(start).Milliseconds())
		})
	}
}

// RecoveryMiddleware converts handler panics into a 500 envelope
func RecoveryMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.WithField("panic", rec).Error("Handler panicked")
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(types.Response{
						Success: false,
						Message: "Erro ao processar solicitação",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// FormMiddleware decodes and normalizes mutation request bodies so handlers
// and the duplicate guard share one parsed view of the payload
func FormMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			body, err := forms.DecodeBody(r)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(types.Response{
					Success: false,
					Message: "Corpo da requisição inválido",
				})
				return
			}
			r = r.WithContext(forms.NewContext(r.Context(), forms.Normalize(body)))
		}
		next.ServeHTTP(w, r)
	})
}

// DedupMiddleware rejects rapid duplicate submissions of the same semantic
// payload within the same session. The reservation is released when the
// wrapped handler fails, so a corrected retry is not locked out.
func DedupMiddleware(guard *dedup.Guard, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body := forms.FromContext(r.Context())
			if body == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := dedup.Key(auth.SessionIDFromContext(r.Context()), body)
			if !guard.Reserve(key) {
				monitoring.RecordDedupRejection()
				log.WithField("path", r.URL.Path).Warn("Duplicate submission rejected")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusConflict)
				json.NewEncoder(w).Encode(types.Response{
					Success: false,
					Message: "Documento duplicado detectado. Aguarde alguns segundos antes de tentar novamente.",
				})
				return
			}

			recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(recorder, r)

			if recorder.statusCode >= http.StatusBadRequest {
				guard.Release(key)
			}
		})
	}
}
