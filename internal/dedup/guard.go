package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/fabriciogeog/controle-doc-medica/pkg/monitoring"
)

// semanticFields lists, in fixed order, the payload fields that make up a
// submission fingerprint. Volatile fields (timestamps assigned by the
// server, file lists, tags) are deliberately excluded.
var semanticFields = []string{
	"tipoDocumento",
	"especialidadeMedica",
	"dataSolicitacaoEmissao",
	"descricao",
	"profissionalSolicitante.nome",
	"profissionalSolicitante.numeroRegistro",
	"profissionalSolicitante.especialidade",
	"instituicao.nome",
	"instituicao.cnpj",
}

// Guard is an in-memory, best-effort duplicate-submission cache. It blocks
// rapid re-submission of identical document payloads within the same session
// for a short retention window. It is a UX safety net against double-clicks
// and client retries, not a uniqueness guarantee.
type Guard struct {
	mu        sync.Mutex
	entries   map[string]time.Time
	retention time.Duration
	sweep     time.Duration
	now       func() time.Time
}

// Option configures a Guard
type Option func(*Guard)

// WithClock injects the time source, so tests can control eviction
// deterministically instead of sleeping
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		g.now = now
	}
}

// NewGuard creates a guard with the given retention window and sweep interval
func NewGuard(retention, sweep time.Duration, opts ...Option) *Guard {
	g := &Guard{
		entries:   make(map[string]time.Time),
		retention: retention,
		sweep:     sweep,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Fingerprint computes the deterministic content hash of a submission. The
// same logical content always hashes identically regardless of map iteration
// order, because fields are serialized in the fixed order of semanticFields.
func Fingerprint(body map[string]interface{}) string {
	h := sha256.New()
	for _, field := range semanticFields {
		fmt.Fprintf(h, "%s=%v\n", field, lookup(body, field))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// lookup resolves a dotted field path against nested maps; missing segments
// resolve to the empty string
func lookup(body map[string]interface{}, path string) interface{} {
	current := body
	for {
		dot := -1
		for i := 0; i < len(path); i++ {
			if path[i] == '.' {
				dot = i
				break
			}
		}
		if dot < 0 {
			if v, ok := current[path]; ok && v != nil {
				return v
			}
			return ""
		}
		next, ok := current[path[:dot]].(map[string]interface{})
		if !ok {
			return ""
		}
		current = next
		path = path[dot+1:]
	}
}

// Key composes the cache key from the session id and the content fingerprint,
// so identical payloads from different sessions never collide
func Key(sessionID string, body map[string]interface{}) string {
	return sessionID + "-" + Fingerprint(body)
}

// Reserve claims a slot for the given cache key. It returns false when the
// key is already held, meaning the submission is a duplicate and must be
// rejected; the caller must not proceed.
func (g *Guard) Reserve(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.entries[key]; exists {
		return false
	}
	g.entries[key] = g.now()
	monitoring.SetDedupCacheSize(len(g.entries))
	return true
}

// Release frees a previously reserved slot. Called when the guarded request
// finishes with an error status, so a failed attempt can retry immediately.
func (g *Guard) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.entries, key)
	monitoring.SetDedupCacheSize(len(g.entries))
}

// Len returns the current number of cached entries
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// Start runs the periodic eviction sweep until the context is cancelled
func (g *Guard) Start(ctx context.Context) {
	ticker := time.NewTicker(g.sweep)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				g.Evict()
			}
		}
	}()
}

// Evict removes every entry older than the retention window
func (g *Guard) Evict() {
	g.mu.Lock()
	defer g.mu.Unlock()

	cutoff := g.now().Add(-g.retention)
	for key, inserted := range g.entries {
		if inserted.Before(cutoff) {
			delete(g.entries, key)
		}
	}
	monitoring.SetDedupCacheSize(len(g.entries))
}
