// Package domain defines the core interfaces and types for CyberTriage.
package domain

import (
	"context"
	"time"
)

// CaseStore persists case records keyed by case ID.
// Saving overwrites the stored copy of every case passed in; cases that are
// not passed are left untouched. Nothing is ever deleted.
type CaseStore interface {
	// LoadAllCases returns every stored case.
	LoadAllCases(ctx context.Context) (map[string]*Case, error)

	// SaveAllCases upserts the given cases.
	SaveAllCases(ctx context.Context, cases map[string]*Case) error

	// GetCase returns a single case or a not-found error.
	GetCase(ctx context.Context, caseID string) (*Case, error)

	// Mode names the backend ("memory", "sqlite", "postgres", "redis").
	Mode() string

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for case store initialization.
type RepositoryConfig struct {
	// Driver is the store backend: "memory", "sqlite", "postgres" or "redis"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis specific
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
