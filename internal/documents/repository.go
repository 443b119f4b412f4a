package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/fabriciogeog/controle-doc-medica/pkg/database"
	"github.com/fabriciogeog/controle-doc-medica/pkg/interfaces"
	"github.com/fabriciogeog/controle-doc-medica/pkg/logger"
	"github.com/fabriciogeog/controle-doc-medica/pkg/types"
)

// Repository implements the DocumentRepository interface over PostgreSQL
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new document repository
func NewRepository(db *database.DB, log *logger.Logger) interfaces.DocumentRepository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

const documentColumns = `id, document_type, especialidade, issued_at, professional,
	descricao, institution, files, tags, observacoes, created_at, updated_at`

// buildFilters translates list filters into a WHERE clause with numbered args
func buildFilters(filters *types.DocumentFilters) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}
	argIndex := 1

	add := func(condition string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf(condition, argIndex))
		args = append(args, value)
		argIndex++
	}

	if filters.TipoDocumento != "" {
		add("document_type = $%d", filters.TipoDocumento)
	}
	if filters.EspecialidadeMedica != "" {
		add("especialidade ILIKE '%%' || $%d || '%%'", filters.EspecialidadeMedica)
	}
	if filters.Profissional != "" {
		add("professional->>'nome' ILIKE '%%' || $%d || '%%'", filters.Profissional)
	}
	if filters.Instituicao != "" {
		add("institution->>'nome' ILIKE '%%' || $%d || '%%'", filters.Instituicao)
	}
	if filters.DataInicio != nil {
		add("issued_at >= $%d", *filters.DataInicio)
	}
	if filters.DataFim != nil {
		add("issued_at <= $%d", *filters.DataFim)
	}
	if filters.Busca != "" {
		or := fmt.Sprintf(`(
			descricao ILIKE '%%' || $%d || '%%'
			OR professional->>'nome' ILIKE '%%' || $%d || '%%'
			OR institution->>'nome' ILIKE '%%' || $%d || '%%'
			OR observacoes ILIKE '%%' || $%d || '%%'
			OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE '%%' || $%d || '%%')
		)`, argIndex, argIndex, argIndex, argIndex, argIndex)
		conditions = append(conditions, or)
		args = append(args, filters.Busca)
		argIndex++
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// List returns documents matching the filters, sorted by issue date then
// creation date descending, with the total match count
func (r *Repository) List(ctx context.Context, filters *types.DocumentFilters) ([]*types.Document, int64, error) {
	where, args := buildFilters(filters)

	var total int64
	countQuery := "SELECT COUNT(*) FROM documents" + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		r.logger.WithError(err).Error("Failed to count documents")
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	offset := (filters.Page - 1) * filters.Limit
	query := fmt.Sprintf(
		"SELECT %s FROM documents%s ORDER BY issued_at DESC, created_at DESC LIMIT $%d OFFSET $%d",
		documentColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, filters.Limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.WithError(err).Error("Failed to list documents")
		return nil, 0, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*types.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, doc)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating documents: %w", err)
	}

	return docs, total, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*types.Document, error) {
	var (
		doc              types.Document
		professionalJSON []byte
		institutionJSON  []byte
		filesJSON        []byte
		observacoes      sql.NullString
	)

	err := row.Scan(
		&doc.ID,
		&doc.TipoDocumento,
		&doc.EspecialidadeMedica,
		&doc.DataSolicitacaoEmissao,
		&professionalJSON,
		&doc.Descricao,
		&institutionJSON,
		&filesJSON,
		pq.Array(&doc.Tags),
		&observacoes,
		&doc.DataCriacaoRegistro,
		&doc.DataAtualizacao,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	if err := json.Unmarshal(professionalJSON, &doc.ProfissionalSolicitante); err != nil {
		return nil, fmt.Errorf("failed to decode professional snapshot: %w", err)
	}
	if err := json.Unmarshal(institutionJSON, &doc.Instituicao); err != nil {
		return nil, fmt.Errorf("failed to decode institution snapshot: %w", err)
	}
	if err := json.Unmarshal(filesJSON, &doc.Arquivos); err != nil {
		return nil, fmt.Errorf("failed to decode file references: %w", err)
	}
	doc.Observacoes = observacoes.String

	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if doc.Arquivos == nil {
		doc.Arquivos = []types.FileRef{}
	}

	return &doc, nil
}

// GetByID retrieves a document by id
func (r *Repository) GetByID(ctx context.Context, id string) (*types.Document, error) {
	query := fmt.Sprintf("SELECT %s FROM documents WHERE id = $1", documentColumns)

	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewNotFoundError("Documento não encontrado")
		}
		r.logger.WithError(err).WithField("document_id", id).Error("Failed to get document")
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return doc, nil
}

func marshalDocument(doc *types.Document) (professional, institution, files []byte, err error) {
	if professional, err = json.Marshal(doc.ProfissionalSolicitante); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode professional snapshot: %w", err)
	}
	if institution, err = json.Marshal(doc.Instituicao); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode institution snapshot: %w", err)
	}
	if doc.Arquivos == nil {
		doc.Arquivos = []types.FileRef{}
	}
	if files, err = json.Marshal(doc.Arquivos); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode file references: %w", err)
	}
	return professional, institution, files, nil
}

// Create persists a new document
func (r *Repository) Create(ctx context.Context, doc *types.Document) error {
	professional, institution, files, err := marshalDocument(doc)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO documents (id, document_type, especialidade, issued_at, professional,
			descricao, institution, files, tags, observacoes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = r.db.ExecContext(ctx, query,
		doc.ID,
		doc.TipoDocumento,
		doc.EspecialidadeMedica,
		doc.DataSolicitacaoEmissao,
		professional,
		doc.Descricao,
		institution,
		files,
		pq.Array(doc.Tags),
		nullable(doc.Observacoes),
		doc.DataCriacaoRegistro,
		doc.DataAtualizacao,
	)
	if err != nil {
		r.logger.WithError(err).Error("Failed to create document")
		return fmt.Errorf("failed to create document: %w", err)
	}

	r.logger.WithField("document_id", doc.ID).Info("Document created")
	return nil
}

// Update replaces a document's mutable fields
func (r *Repository) Update(ctx context.Context, doc *types.Document) error {
	professional, institution, files, err := marshalDocument(doc)
	if err != nil {
		return err
	}

	query := `
		UPDATE documents
		SET document_type = $1, especialidade = $2, issued_at = $3, professional = $4,
			descricao = $5, institution = $6, files = $7, tags = $8, observacoes = $9,
			updated_at = $10
		WHERE id = $11`

	result, err := r.db.ExecContext(ctx, query,
		doc.TipoDocumento,
		doc.EspecialidadeMedica,
		doc.DataSolicitacaoEmissao,
		professional,
		doc.Descricao,
		institution,
		files,
		pq.Array(doc.Tags),
		nullable(doc.Observacoes),
		doc.DataAtualizacao,
		doc.ID,
	)
	if err != nil {
		r.logger.WithError(err).WithField("document_id", doc.ID).Error("Failed to update document")
		return fmt.Errorf("failed to update document: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return types.NewNotFoundError("Documento não encontrado")
	}

	return nil
}

// Delete removes a document record
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		r.logger.WithError(err).WithField("document_id", id).Error("Failed to delete document")
		return fmt.Errorf("failed to delete document: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return types.NewNotFoundError("Documento não encontrado")
	}

	r.logger.WithField("document_id", id).Info("Document deleted")
	return nil
}

// CountByRegistration counts documents whose professional snapshot carries
// the given registration number
func (r *Repository) CountByRegistration(ctx context.Context, numeroRegistro string) (int64, error) {
	var count int64
	query := "SELECT COUNT(*) FROM documents WHERE professional->>'numeroRegistro' = $1"
	if err := r.db.QueryRowContext(ctx, query, numeroRegistro).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents by registration: %w", err)
	}
	return count, nil
}

// Stats computes the aggregate statistics view
func (r *Repository) Stats(ctx context.Context) (*types.DocumentStats, error) {
	stats := &types.DocumentStats{
		DocumentosPorTipo:          []types.GroupCount{},
		DocumentosPorEspecialidade: []types.GroupCount{},
		DocumentosRecentes:         []types.DocumentSummary{},
	}

	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&stats.TotalDocumentos); err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	byType, err := r.groupCount(ctx, "document_type")
	if err != nil {
		return nil, err
	}
	stats.DocumentosPorTipo = byType

	bySpecialty, err := r.groupCount(ctx, "especialidade")
	if err != nil {
		return nil, err
	}
	stats.DocumentosPorEspecialidade = bySpecialty

	recent, err := r.recentDocuments(ctx, 10)
	if err != nil {
		return nil, err
	}
	stats.DocumentosRecentes = recent

	return stats, nil
}

func (r *Repository) groupCount(ctx context.Context, column string) ([]types.GroupCount, error) {
	query := fmt.Sprintf(
		"SELECT %s, COUNT(*) AS total FROM documents GROUP BY %s ORDER BY total DESC",
		column, column,
	)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to group documents by %s: %w", column, err)
	}
	defer rows.Close()

	groups := []types.GroupCount{}
	for rows.Next() {
		var g types.GroupCount
		if err := rows.Scan(&g.ID, &g.Total); err != nil {
			return nil, fmt.Errorf("failed to scan group count: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *Repository) recentDocuments(ctx context.Context, limit int) ([]types.DocumentSummary, error) {
	query := `
		SELECT id, descricao, document_type, especialidade,
			professional->>'nome', issued_at, created_at
		FROM documents
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent documents: %w", err)
	}
	defer rows.Close()

	summaries := []types.DocumentSummary{}
	for rows.Next() {
		var s types.DocumentSummary
		err := rows.Scan(
			&s.ID,
			&s.Descricao,
			&s.TipoDocumento,
			&s.EspecialidadeMedica,
			&s.Profissional,
			&s.DataSolicitacaoEmissao,
			&s.DataCriacaoRegistro,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recent document: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// nullable maps an empty string to SQL NULL
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
