package auth

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/fabriciogeog/controle-doc-medica/pkg/database"
	"github.com/fabriciogeog/controle-doc-medica/pkg/interfaces"
	"github.com/fabriciogeog/controle-doc-medica/pkg/logger"
	"github.com/fabriciogeog/controle-doc-medica/pkg/types"
)

// UserRepository implements user data persistence
type UserRepository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB, log *logger.Logger) interfaces.UserRepository {
	return &UserRepository{
		db:     db,
		logger: log,
	}
}

// Get returns the singleton application user
func (r *UserRepository) Get(ctx context.Context) (*types.User, error) {
	query := `
		SELECT id, email, nome, password_hash, created_at, updated_at
		FROM users
		ORDER BY created_at ASC
		LIMIT 1`

	var user types.User
	err := r.db.QueryRowContext(ctx, query).Scan(
		&user.ID,
		&user.Email,
		&user.Nome,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError("Usuário não encontrado")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// Create creates the user record
func (r *UserRepository) Create(ctx context.Context, user *types.User) error {
	query := `
		INSERT INTO users (id, email, nome, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Nome,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return types.NewConflictError("Já existe um usuário com este email")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.WithField("user_id", user.ID).Info("User created successfully")
	return nil
}

// Update persists changes to the user record
func (r *UserRepository) Update(ctx context.Context, user *types.User) error {
	query := `
		UPDATE users
		SET email = $1, nome = $2, password_hash = $3, updated_at = $4
		WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query,
		user.Email,
		user.Nome,
		user.PasswordHash,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return types.NewNotFoundError("Usuário não encontrado")
	}

	return nil
}
