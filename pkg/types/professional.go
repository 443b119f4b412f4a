package types

import "time"

// Professional represents a healthcare provider who requests documents
type Professional struct {
	ID                     string    `json:"id"`
	Nome                   string    `json:"nome"`
	NumeroRegistro         string    `json:"numeroRegistro"`
	Especialidade          string    `json:"especialidade"`
	InstituicoesPrincipais []string  `json:"instituicoesPrincipais"`
	Telefone               string    `json:"telefone,omitempty"`
	Email                  string    `json:"email,omitempty"`
	Observacoes            string    `json:"observacoes,omitempty"`
	Ativo                  bool      `json:"ativo"`
	DataCriacao            time.Time `json:"dataCriacao"`
	DataAtualizacao        time.Time `json:"dataAtualizacao"`
}

// ProfessionalInput is the create/update payload for professionals. Optional
// fields are pointers so handlers can distinguish absent (leave unchanged on
// update) from blank (clear the field). InstituicoesPrincipais accepts a
// comma-separated string or an array.
type ProfessionalInput struct {
	Nome                   string      `json:"nome" validate:"required,max=200"`
	NumeroRegistro         string      `json:"numeroRegistro" validate:"required,max=50"`
	Especialidade          string      `json:"especialidade" validate:"required,max=100"`
	Telefone               *string     `json:"telefone" validate:"omitempty,max=20"`
	Email                  *string     `json:"email" validate:"omitempty,email,max=100"`
	Observacoes            *string     `json:"observacoes" validate:"omitempty,max=500"`
	InstituicoesPrincipais interface{} `json:"instituicoesPrincipais"`
	Ativo                  *bool       `json:"ativo"`
}

// ProfessionalFilters holds the list-endpoint filter and pagination parameters
type ProfessionalFilters struct {
	Busca         string
	Especialidade string
	// Ativo is "true", "false" or "all"; the default filters to active only
	Ativo string
	Page  int
	Limit int
}

// ProfessionalSuggestion is the autocomplete projection
type ProfessionalSuggestion struct {
	ID             string `json:"id"`
	Nome           string `json:"nome"`
	NumeroRegistro string `json:"numeroRegistro"`
	Especialidade  string `json:"especialidade"`
}

// StatusChangeRequest is the payload for the status toggle endpoint
type StatusChangeRequest struct {
	Ativo *bool `json:"ativo" validate:"required"`
}
