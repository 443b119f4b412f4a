package types

import "time"

// Document types accepted by the catalogue
const (
	DocumentTypeRelatorio     = "Relatório"
	DocumentTypeExame         = "Exame"
	DocumentTypeReceita       = "Receita"
	DocumentTypeLaudo         = "Laudo"
	DocumentTypeAtestado      = "Atestado"
	DocumentTypeCartaoVacina  = "Cartão de Vacina"
	DocumentTypeResultado     = "Resultado"
	DocumentTypeOutro         = "Outro"
)

// ValidDocumentTypes lists every accepted document type value
var ValidDocumentTypes = []string{
	DocumentTypeRelatorio,
	DocumentTypeExame,
	DocumentTypeReceita,
	DocumentTypeLaudo,
	DocumentTypeAtestado,
	DocumentTypeCartaoVacina,
	DocumentTypeResultado,
	DocumentTypeOutro,
}

// IsValidDocumentType reports whether value is an accepted document type
func IsValidDocumentType(value string) bool {
	for _, t := range ValidDocumentTypes {
		if t == value {
			return true
		}
	}
	return false
}

// ProfessionalSnapshot is the requesting professional embedded in a document.
// It is a point-in-time copy captured at creation, not a live reference.
type ProfessionalSnapshot struct {
	Nome           string `json:"nome"`
	NumeroRegistro string `json:"numeroRegistro"`
	Especialidade  string `json:"especialidade,omitempty"`
}

// InstitutionSnapshot is the issuing institution embedded in a document
type InstitutionSnapshot struct {
	Nome string `json:"nome"`
	CNPJ string `json:"cnpj,omitempty"`
}

// FileRef is a reference to a file stored at an absolute filesystem path
type FileRef struct {
	ID               string    `json:"id"`
	NomeArquivo      string    `json:"nomeArquivo"`
	CaminhoAbsoluto  string    `json:"caminhoAbsoluto"`
	TipoArquivo      string    `json:"tipoArquivo"`
	DescricaoArquivo string    `json:"descricaoArquivo,omitempty"`
	// NomeArquivoSistema marks a locally-managed upload artifact owned by
	// this record; only such artifacts are removed on delete.
	NomeArquivoSistema string    `json:"nomeArquivoSistema,omitempty"`
	DataInclusao       time.Time `json:"dataInclusao"`
}

// Document represents a medical-document record
type Document struct {
	ID                      string               `json:"id"`
	TipoDocumento           string               `json:"tipoDocumento"`
	EspecialidadeMedica     string               `json:"especialidadeMedica"`
	DataSolicitacaoEmissao  time.Time            `json:"dataSolicitacaoEmissao"`
	ProfissionalSolicitante ProfessionalSnapshot `json:"profissionalSolicitante"`
	Descricao               string               `json:"descricao"`
	Instituicao             InstitutionSnapshot  `json:"instituicao"`
	Arquivos                []FileRef            `json:"arquivos"`
	Tags                    []string             `json:"tags"`
	Observacoes             string               `json:"observacoes,omitempty"`
	DataCriacaoRegistro     time.Time            `json:"dataCriacaoRegistro"`
	DataAtualizacao         time.Time            `json:"dataAtualizacao"`
}

// DocumentFilters holds the list-endpoint filter and pagination parameters
type DocumentFilters struct {
	TipoDocumento       string
	EspecialidadeMedica string
	Profissional        string
	Instituicao         string
	DataInicio          *time.Time
	DataFim             *time.Time
	Busca               string
	Page                int
	Limit               int
}

// FileRefInput is a pre-built file reference in a create/update payload
type FileRefInput struct {
	NomeArquivo      string `json:"nomeArquivo"`
	CaminhoAbsoluto  string `json:"caminhoAbsoluto" validate:"required"`
	TipoArquivo      string `json:"tipoArquivo"`
	DescricaoArquivo string `json:"descricaoArquivo"`
}

// ProfessionalSnapshotInput is the embedded professional in a payload
type ProfessionalSnapshotInput struct {
	Nome           string `json:"nome" validate:"required,max=200"`
	NumeroRegistro string `json:"numeroRegistro" validate:"required,max=50"`
	Especialidade  string `json:"especialidade" validate:"omitempty,max=100"`
}

// InstitutionSnapshotInput is the embedded institution in a payload
type InstitutionSnapshotInput struct {
	Nome string `json:"nome" validate:"required,max=200"`
	CNPJ string `json:"cnpj" validate:"omitempty,max=18"`
}

// DocumentInput is the create/update payload for documents. Tags accepts a
// comma-separated string or an array; Caminhos accepts newline-separated
// absolute paths as an alternative to Arquivos.
type DocumentInput struct {
	TipoDocumento           string                    `json:"tipoDocumento" validate:"required,doctype"`
	EspecialidadeMedica     string                    `json:"especialidadeMedica" validate:"required,max=200"`
	DataSolicitacaoEmissao  string                    `json:"dataSolicitacaoEmissao" validate:"required,dateiso"`
	ProfissionalSolicitante ProfessionalSnapshotInput `json:"profissionalSolicitante" validate:"required"`
	Descricao               string                    `json:"descricao" validate:"required,max=1000"`
	Instituicao             InstitutionSnapshotInput  `json:"instituicao" validate:"required"`
	Arquivos                []FileRefInput            `json:"arquivos" validate:"omitempty,dive"`
	Caminhos                string                    `json:"caminhos"`
	Tags                    interface{}               `json:"tags"`
	Observacoes             string                    `json:"observacoes" validate:"omitempty,max=2000"`
}

// DocumentSummary is the projection used for the recent-documents statistic
type DocumentSummary struct {
	ID                     string    `json:"id"`
	Descricao              string    `json:"descricao"`
	TipoDocumento          string    `json:"tipoDocumento"`
	EspecialidadeMedica    string    `json:"especialidadeMedica"`
	Profissional           string    `json:"profissional"`
	DataSolicitacaoEmissao time.Time `json:"dataSolicitacaoEmissao"`
	DataCriacaoRegistro    time.Time `json:"dataCriacaoRegistro"`
}

// GroupCount is a grouped aggregation bucket
type GroupCount struct {
	ID    string `json:"_id"`
	Total int64  `json:"total"`
}

// DocumentStats is the aggregate statistics payload
type DocumentStats struct {
	TotalDocumentos            int64             `json:"totalDocumentos"`
	DocumentosPorTipo          []GroupCount      `json:"documentosPorTipo"`
	DocumentosPorEspecialidade []GroupCount      `json:"documentosPorEspecialidade"`
	DocumentosRecentes         []DocumentSummary `json:"documentosRecentes"`
}

// CloneResult reports the outcome of a clone operation
type CloneResult struct {
	DocumentoOriginal string    `json:"documentoOriginal"`
	DocumentoClonado  string    `json:"documentoClonado"`
	Documento         *Document `json:"documento"`
}
