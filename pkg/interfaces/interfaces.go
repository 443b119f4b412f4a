package interfaces

import (
	"context"

	"github.com/fabriciogeog/controle-doc-medica/pkg/types"
)

// UserRepository persists the application user record
type UserRepository interface {
	// Get returns the singleton user, or a not-found error
	Get(ctx context.Context) (*types.User, error)
	Create(ctx context.Context, user *types.User) error
	Update(ctx context.Context, user *types.User) error
}

// DocumentRepository persists document records
type DocumentRepository interface {
	List(ctx context.Context, filters *types.DocumentFilters) ([]*types.Document, int64, error)
	GetByID(ctx context.Context, id string) (*types.Document, error)
	Create(ctx context.Context, doc *types.Document) error
	Update(ctx context.Context, doc *types.Document) error
	Delete(ctx context.Context, id string) error
	// CountByRegistration counts documents whose embedded professional
	// snapshot carries the given registration number
	CountByRegistration(ctx context.Context, numeroRegistro string) (int64, error)
	Stats(ctx context.Context) (*types.DocumentStats, error)
}

// ProfessionalRepository persists professional records
type ProfessionalRepository interface {
	List(ctx context.Context, filters *types.ProfessionalFilters) ([]*types.Professional, int64, error)
	GetByID(ctx context.Context, id string) (*types.Professional, error)
	// GetByRegistration looks up by the upper-cased registration number
	GetByRegistration(ctx context.Context, numeroRegistro string) (*types.Professional, error)
	Create(ctx context.Context, p *types.Professional) error
	Update(ctx context.Context, p *types.Professional) error
	SetActive(ctx context.Context, id string, ativo bool) (*types.Professional, error)
	Delete(ctx context.Context, id string) error
	Autocomplete(ctx context.Context, query string, limit int) ([]*types.ProfessionalSuggestion, error)
}
