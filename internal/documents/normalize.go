package documents

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fabriciogeog/controle-doc-medica/pkg/types"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// normalizeTags accepts tags as a comma-separated string or an array and
// returns a trimmed list with empty entries dropped
func normalizeTags(raw interface{}) []string {
	var tags []string

	switch v := raw.(type) {
	case string:
		for _, tag := range strings.Split(v, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					tags = append(tags, s)
				}
			}
		}
	case []string:
		for _, tag := range v {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}

	return tags
}

// inferFileType classifies a file reference by its path extension
func inferFileType(path string) string {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".pdf") {
		return "pdf"
	}
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return "imagem"
		}
	}
	return "outro"
}

// buildFileRefs assembles the document's file-reference list from either a
// pre-built list or newline-separated absolute paths. Each reference gets a
// fresh sub-identity.
func buildFileRefs(arquivos []types.FileRefInput, caminhos string, now time.Time) []types.FileRef {
	if len(arquivos) > 0 {
		refs := make([]types.FileRef, 0, len(arquivos))
		for _, a := range arquivos {
			nome := a.NomeArquivo
			if nome == "" {
				nome = "Arquivo"
			}
			tipo := a.TipoArquivo
			if tipo == "" {
				tipo = "pdf"
			}
			refs = append(refs, types.FileRef{
				ID:               uuid.New().String(),
				NomeArquivo:      nome,
				CaminhoAbsoluto:  a.CaminhoAbsoluto,
				TipoArquivo:      tipo,
				DescricaoArquivo: a.DescricaoArquivo,
				DataInclusao:     now,
			})
		}
		return refs
	}

	if caminhos == "" {
		return nil
	}

	var refs []types.FileRef
	index := 0
	for _, line := range strings.Split(caminhos, "\n") {
		caminho := strings.TrimSpace(line)
		if caminho == "" {
			continue
		}
		index++

		segments := strings.Split(caminho, "/")
		nome := segments[len(segments)-1]
		if nome == "" {
			nome = fmt.Sprintf("Documento %d", index)
		}

		refs = append(refs, types.FileRef{
			ID:               uuid.New().String(),
			NomeArquivo:      nome,
			CaminhoAbsoluto:  caminho,
			TipoArquivo:      inferFileType(caminho),
			DescricaoArquivo: fmt.Sprintf("Arquivo: %s", nome),
			DataInclusao:     now,
		})
	}
	return refs
}
