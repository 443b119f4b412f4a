package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fabriciogeog/controle-doc-medica/internal/auth"
	"github.com/fabriciogeog/controle-doc-medica/internal/dedup"
	"github.com/fabriciogeog/controle-doc-medica/internal/documents"
	"github.com/fabriciogeog/controle-doc-medica/internal/files"
	"github.com/fabriciogeog/controle-doc-medica/internal/professionals"
	"github.com/fabriciogeog/controle-doc-medica/internal/server"
	"github.com/fabriciogeog/controle-doc-medica/pkg/config"
	"github.com/fabriciogeog/controle-doc-medica/pkg/database"
	"github.com/fabriciogeog/controle-doc-medica/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel)
	log.WithField("env", cfg.Env).Info("Starting document tracking service")

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.CreateSchema(ctx); err != nil {
		log.WithError(err).Error("Failed to create database schema")
		os.Exit(1)
	}

	// Session and credential components
	sessions := auth.NewSessionManager(&cfg.Session)
	passwords := auth.NewPasswordManager(cfg.Auth.BcryptRounds)

	// Duplicate-submission guard with background eviction
	guard := dedup.NewGuard(
		time.Duration(cfg.Dedup.RetentionSeconds)*time.Second,
		time.Duration(cfg.Dedup.SweepSeconds)*time.Second,
	)
	guard.Start(ctx)

	// File access components
	pathGuard := files.NewPathGuard(cfg.Files.UploadDir, cfg.Files.AllowedPathList())

	// Repositories
	userRepo := auth.NewUserRepository(db, log)
	documentRepo := documents.NewRepository(db, log)
	professionalRepo := professionals.NewRepository(db, log)

	devMode := cfg.Env == "development"

	// HTTP handlers
	router := server.NewRouter(server.Deps{
		Logger:        log,
		DB:            db,
		Sessions:      sessions,
		Guard:         guard,
		Auth:          auth.NewHandlers(userRepo, sessions, passwords, log, devMode),
		Documents:     documents.NewHandlers(documentRepo, log, cfg.Files.UploadDir, devMode),
		Professionals: professionals.NewHandlers(professionalRepo, documentRepo, log, devMode),
		Files:         files.NewHandlers(pathGuard, log),
		PublicDir:     cfg.Server.PublicDir,
	})

	srv := server.New(&cfg.Server, router, log)

	// Start server in a goroutine
	go func() {
		if err := srv.Start(); err != nil {
			log.WithError(err).Error("HTTP server failed")
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down document tracking service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
		os.Exit(1)
	}

	log.Info("Document tracking service stopped")
}
