// Package sqlitedb provides the embedded SQLite store used for local
// deployments and tests.
package sqlitedb

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Service represents the database service with connection management.
// It implements store.Store.
type Service struct {
	DB     *sql.DB
	DBPath string
}

// Config holds database configuration
type Config struct {
	DBPath       string
	MaxOpenConns int
	MaxIdleConns int
}

// DefaultConfig returns default database configuration
func DefaultConfig() *Config {
	return &Config{
		DBPath:       "./data/petcare.db",
		MaxOpenConns: 1, // SQLite doesn't handle concurrent writes well
		MaxIdleConns: 1,
	}
}

// New opens the database file, creating its directory if needed, and applies
// the schema.
func New(ctx context.Context, config *Config) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := os.MkdirAll(filepath.Dir(config.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", config.DBPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(0)

	s := &Service{DB: db, DBPath: config.DBPath}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := s.InitializeSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// InitializeSchema executes the embedded schema. Every statement is
// idempotent.
func (s *Service) InitializeSchema(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Transaction executes a function within a database transaction
func (s *Service) Transaction(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p) // re-throw panic after rollback
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Ping checks the database connection health.
func (s *Service) Ping(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("database connection is nil")
	}
	return s.DB.PingContext(ctx)
}

// Close closes the database connection
func (s *Service) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}
