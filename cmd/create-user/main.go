// Command create-user bootstraps the application user. It creates the user
// when absent, or resets the password with -reset. The password comes from
// ADMIN_PASSWORD; email and name default to admin@local / Administrador.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/fabriciogeog/controle-doc-medica/internal/auth"
	"github.com/fabriciogeog/controle-doc-medica/pkg/config"
	"github.com/fabriciogeog/controle-doc-medica/pkg/database"
	"github.com/fabriciogeog/controle-doc-medica/pkg/logger"
	"github.com/fabriciogeog/controle-doc-medica/pkg/types"
)

func main() {
	reset := flag.Bool("reset", false, "reset the existing user's password instead of failing")
	flag.Parse()

	if err := run(*reset); err != nil {
		fmt.Fprintf(os.Stderr, "create-user: %v\n", err)
		os.Exit(1)
	}
}

func run(reset bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	password := cfg.Auth.AdminPassword
	if password == "" {
		return errors.New("ADMIN_PASSWORD não definido")
	}

	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@local"
	}
	nome := os.Getenv("ADMIN_NOME")
	if nome == "" {
		nome = "Administrador"
	}

	log := logger.New(cfg.LogLevel)

	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := db.CreateSchema(ctx); err != nil {
		return fmt.Errorf("failed to create database schema: %w", err)
	}

	passwords := auth.NewPasswordManager(cfg.Auth.BcryptRounds)
	hash, err := passwords.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	users := auth.NewUserRepository(db, log)
	now := time.Now()

	existing, err := users.Get(ctx)
	switch {
	case err == nil:
		if !reset {
			fmt.Printf("Usuário já existe: %s\n", existing.Email)
			return nil
		}
		existing.PasswordHash = hash
		existing.UpdatedAt = now
		if err := users.Update(ctx, existing); err != nil {
			return fmt.Errorf("failed to reset password: %w", err)
		}
		fmt.Printf("Senha redefinida com sucesso: %s\n", existing.Email)
		return nil

	case isNotFound(err):
		user := &types.User{
			ID:           uuid.New().String(),
			Email:        email,
			Nome:         nome,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := users.Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		fmt.Printf("Usuário criado com sucesso: %s\n", user.Email)
		return nil

	default:
		return fmt.Errorf("failed to look up user: %w", err)
	}
}

func isNotFound(err error) bool {
	var appErr *types.AppError
	return errors.As(err, &appErr) && appErr.Kind == types.ErrorKindNotFound
}
