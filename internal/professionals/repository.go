package professionals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/fabriciogeog/controle-doc-medica/pkg/database"
	"github.com/fabriciogeog/controle-doc-medica/pkg/interfaces"
	"github.com/fabriciogeog/controle-doc-medica/pkg/logger"
	"github.com/fabriciogeog/controle-doc-medica/pkg/types"
)

// Repository implements the ProfessionalRepository interface over PostgreSQL
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new professional repository
func NewRepository(db *database.DB, log *logger.Logger) interfaces.ProfessionalRepository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

const professionalColumns = `id, nome, numero_registro, especialidade, instituicoes,
	telefone, email, observacoes, ativo, created_at, updated_at`

// buildFilters translates list filters into a WHERE clause with numbered args
func buildFilters(filters *types.ProfessionalFilters) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}
	argIndex := 1

	add := func(condition string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf(condition, argIndex))
		args = append(args, value)
		argIndex++
	}

	// The default listing shows active professionals only; "all" lifts the
	// status filter entirely
	switch filters.Ativo {
	case "all":
	case "false":
		add("ativo = $%d", false)
	default:
		add("ativo = $%d", true)
	}

	if filters.Especialidade != "" {
		add("especialidade ILIKE '%%' || $%d || '%%'", filters.Especialidade)
	}
	if filters.Busca != "" {
		or := fmt.Sprintf(`(
			nome ILIKE '%%' || $%d || '%%'
			OR numero_registro ILIKE '%%' || $%d || '%%'
			OR especialidade ILIKE '%%' || $%d || '%%'
			OR EXISTS (SELECT 1 FROM unnest(instituicoes) AS inst WHERE inst ILIKE '%%' || $%d || '%%')
		)`, argIndex, argIndex, argIndex, argIndex)
		conditions = append(conditions, or)
		args = append(args, filters.Busca)
		argIndex++
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// List returns professionals matching the filters, sorted by name, with the
// total match count
func (r *Repository) List(ctx context.Context, filters *types.ProfessionalFilters) ([]*types.Professional, int64, error) {
	where, args := buildFilters(filters)

	var total int64
	countQuery := "SELECT COUNT(*) FROM professionals" + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		r.logger.WithError(err).Error("Failed to count professionals")
		return nil, 0, fmt.Errorf("failed to count professionals: %w", err)
	}

	offset := (filters.Page - 1) * filters.Limit
	query := fmt.Sprintf(
		"SELECT %s FROM professionals%s ORDER BY nome ASC LIMIT $%d OFFSET $%d",
		professionalColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, filters.Limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.WithError(err).Error("Failed to list professionals")
		return nil, 0, fmt.Errorf("failed to list professionals: %w", err)
	}
	defer rows.Close()

	var professionals []*types.Professional
	for rows.Next() {
		p, err := scanProfessional(rows)
		if err != nil {
			return nil, 0, err
		}
		professionals = append(professionals, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating professionals: %w", err)
	}

	return professionals, total, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfessional(row rowScanner) (*types.Professional, error) {
	var (
		p           types.Professional
		telefone    sql.NullString
		email       sql.NullString
		observacoes sql.NullString
	)

	err := row.Scan(
		&p.ID,
		&p.Nome,
		&p.NumeroRegistro,
		&p.Especialidade,
		pq.Array(&p.InstituicoesPrincipais),
		&telefone,
		&email,
		&observacoes,
		&p.Ativo,
		&p.DataCriacao,
		&p.DataAtualizacao,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan professional: %w", err)
	}

	p.Telefone = telefone.String
	p.Email = email.String
	p.Observacoes = observacoes.String
	if p.InstituicoesPrincipais == nil {
		p.InstituicoesPrincipais = []string{}
	}

	return &p, nil
}

// GetByID retrieves a professional by id
func (r *Repository) GetByID(ctx context.Context, id string) (*types.Professional, error) {
	query := fmt.Sprintf("SELECT %s FROM professionals WHERE id = $1", professionalColumns)

	p, err := scanProfessional(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewNotFoundError("Profissional não encontrado")
		}
		r.logger.WithError(err).WithField("professional_id", id).Error("Failed to get professional")
		return nil, fmt.Errorf("failed to get professional: %w", err)
	}

	return p, nil
}

// GetByRegistration retrieves a professional by registration number.
// Registration numbers are stored upper-cased, so lookups are exact.
func (r *Repository) GetByRegistration(ctx context.Context, numeroRegistro string) (*types.Professional, error) {
	query := fmt.Sprintf("SELECT %s FROM professionals WHERE numero_registro = $1", professionalColumns)

	p, err := scanProfessional(r.db.QueryRowContext(ctx, query, numeroRegistro))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewNotFoundError("Profissional não encontrado")
		}
		return nil, fmt.Errorf("failed to get professional by registration: %w", err)
	}

	return p, nil
}

// Create persists a new professional
func (r *Repository) Create(ctx context.Context, p *types.Professional) error {
	query := `
		INSERT INTO professionals (id, nome, numero_registro, especialidade, instituicoes,
			telefone, email, observacoes, ativo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.Nome,
		p.NumeroRegistro,
		p.Especialidade,
		pq.Array(p.InstituicoesPrincipais),
		nullable(p.Telefone),
		nullable(p.Email),
		nullable(p.Observacoes),
		p.Ativo,
		p.DataCriacao,
		p.DataAtualizacao,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return types.NewConflictError("Já existe um profissional cadastrado com este número de registro")
		}
		r.logger.WithError(err).Error("Failed to create professional")
		return fmt.Errorf("failed to create professional: %w", err)
	}

	r.logger.WithField("professional_id", p.ID).Info("Professional created")
	return nil
}

// Update replaces a professional's mutable fields
func (r *Repository) Update(ctx context.Context, p *types.Professional) error {
	query := `
		UPDATE professionals
		SET nome = $1, numero_registro = $2, especialidade = $3, instituicoes = $4,
			telefone = $5, email = $6, observacoes = $7, ativo = $8, updated_at = $9
		WHERE id = $10`

	result, err := r.db.ExecContext(ctx, query,
		p.Nome,
		p.NumeroRegistro,
		p.Especialidade,
		pq.Array(p.InstituicoesPrincipais),
		nullable(p.Telefone),
		nullable(p.Email),
		nullable(p.Observacoes),
		p.Ativo,
		p.DataAtualizacao,
		p.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return types.NewConflictError("Já existe um profissional cadastrado com este número de registro")
		}
		r.logger.WithError(err).WithField("professional_id", p.ID).Error("Failed to update professional")
		return fmt.Errorf("failed to update professional: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return types.NewNotFoundError("Profissional não encontrado")
	}

	return nil
}

// SetActive toggles a professional's status and returns the updated record
func (r *Repository) SetActive(ctx context.Context, id string, ativo bool) (*types.Professional, error) {
	query := fmt.Sprintf(`
		UPDATE professionals
		SET ativo = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING %s`, professionalColumns)

	p, err := scanProfessional(r.db.QueryRowContext(ctx, query, ativo, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewNotFoundError("Profissional não encontrado")
		}
		r.logger.WithError(err).WithField("professional_id", id).Error("Failed to change professional status")
		return nil, fmt.Errorf("failed to change professional status: %w", err)
	}

	return p, nil
}

// Delete removes a professional record
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM professionals WHERE id = $1", id)
	if err != nil {
		r.logger.WithError(err).WithField("professional_id", id).Error("Failed to delete professional")
		return fmt.Errorf("failed to delete professional: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return types.NewNotFoundError("Profissional não encontrado")
	}

	r.logger.WithField("professional_id", id).Info("Professional deleted")
	return nil
}

// Autocomplete returns active professionals matching the query by name,
// registration number or specialty
func (r *Repository) Autocomplete(ctx context.Context, query string, limit int) ([]*types.ProfessionalSuggestion, error) {
	sqlQuery := `
		SELECT id, nome, numero_registro, especialidade
		FROM professionals
		WHERE ativo = TRUE
			AND (
				nome ILIKE '%' || $1 || '%'
				OR numero_registro ILIKE '%' || $1 || '%'
				OR especialidade ILIKE '%' || $1 || '%'
			)
		ORDER BY nome ASC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, sqlQuery, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to autocomplete professionals: %w", err)
	}
	defer rows.Close()

	suggestions := []*types.ProfessionalSuggestion{}
	for rows.Next() {
		var s types.ProfessionalSuggestion
		if err := rows.Scan(&s.ID, &s.Nome, &s.NumeroRegistro, &s.Especialidade); err != nil {
			return nil, fmt.Errorf("failed to scan professional suggestion: %w", err)
		}
		suggestions = append(suggestions, &s)
	}
	return suggestions, rows.Err()
}

// nullable maps an empty string to SQL NULL
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
