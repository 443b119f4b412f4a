package database

import (
	"context"
	"fmt"
)

// CreateSchema creates the database schema for the document catalogue
func (db *DB) CreateSchema(ctx context.Context) error {
	db.logger.Info("Creating database schema...")

	if err := db.createExtensions(ctx); err != nil {
		return fmt.Errorf("failed to create extensions: %w", err)
	}

	tables := []string{
		createUsersTable,
		createProfessionalsTable,
		createDocumentsTable,
	}

	for _, table := range tables {
		if _, err := db.ExecContext(ctx, table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		createProfessionalsIndexes,
		createDocumentsIndexes,
	}

	for _, index := range indexes {
		if _, err := db.ExecContext(ctx, index); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
	}

	db.logger.Info("Database schema created successfully")
	return nil
}

// createExtensions creates required PostgreSQL extensions
func (db *DB) createExtensions(ctx context.Context) error {
	extensions := []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	}

	for _, ext := range extensions {
		if _, err := db.ExecContext(ctx, ext); err != nil {
			return fmt.Errorf("failed to create extension: %w", err)
		}
	}

	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
	email TEXT NOT NULL UNIQUE,
	nome TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createProfessionalsTable = `
CREATE TABLE IF NOT EXISTS professionals (
	id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
	nome TEXT NOT NULL,
	numero_registro TEXT NOT NULL UNIQUE,
	especialidade TEXT NOT NULL,
	instituicoes TEXT[] NOT NULL DEFAULT '{}',
	telefone TEXT,
	email TEXT,
	observacoes TEXT,
	ativo BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// The professional and institution columns hold point-in-time snapshots
// embedded in each document, never foreign keys into professionals.
const createDocumentsTable = `
CREATE TABLE IF NOT EXISTS documents (
	id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
	document_type TEXT NOT NULL,
	especialidade TEXT NOT NULL,
	issued_at TIMESTAMPTZ NOT NULL,
	professional JSONB NOT NULL,
	descricao TEXT NOT NULL,
	institution JSONB NOT NULL,
	files JSONB NOT NULL DEFAULT '[]',
	tags TEXT[] NOT NULL DEFAULT '{}',
	observacoes TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createProfessionalsIndexes = `
CREATE INDEX IF NOT EXISTS idx_professionals_nome ON professionals(nome);
CREATE INDEX IF NOT EXISTS idx_professionals_especialidade ON professionals(especialidade);
CREATE INDEX IF NOT EXISTS idx_professionals_ativo ON professionals(ativo);`

const createDocumentsIndexes = `
CREATE INDEX IF NOT EXISTS idx_documents_issued_at ON documents(issued_at DESC, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_documents_type ON documents(document_type);
CREATE INDEX IF NOT EXISTS idx_documents_especialidade ON documents(especialidade);
CREATE INDEX IF NOT EXISTS idx_documents_prof_registro ON documents((professional->>'numeroRegistro'));`
