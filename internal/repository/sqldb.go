package repository

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/cybertriage/cybertriage/internal/domain"
)

// Case store connection defaults.
const (
	defaultSQLitePath   = "./data/cases.db"
	defaultPostgresHost = "localhost"
	defaultPostgresPort = 5432
	defaultPostgresDB   = "cybertriage"

	// Case writes are small single-row upserts; a short-lived pool is enough.
	defaultPostgresMaxOpen = 10
	defaultConnMaxLifetime = 30 * time.Minute

	pingTimeout = 5 * time.Second
)

// sqliteDSN builds the modernc.org/sqlite DSN for the case database. WAL lets
// list and statistics reads run while a case is being saved.
func sqliteDSN(path string) string {
	if path == "" {
		path = defaultSQLitePath
	}
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	return "file:" + path + "?" + q.Encode()
}

// postgresDSN builds a lib/pq connection URL. Credentials are escaped by
// url.URL, so passwords may contain any character.
func postgresDSN(cfg domain.RepositoryConfig) string {
	host := cfg.PostgresHost
	if host == "" {
		host = defaultPostgresHost
	}
	port := cfg.PostgresPort
	if port == 0 {
		port = defaultPostgresPort
	}
	dbname := cfg.PostgresDB
	if dbname == "" {
		dbname = defaultPostgresDB
	}
	sslmode := cfg.PostgresSSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     host + ":" + strconv.Itoa(port),
		Path:     "/" + dbname,
		RawQuery: url.Values{"sslmode": {sslmode}, "application_name": {"cybertriage"}}.Encode(),
	}
	if cfg.PostgresUser != "" {
		u.User = url.UserPassword(cfg.PostgresUser, cfg.PostgresPassword)
	}
	return u.String()
}

// openCaseDB opens the case database for the configured driver and applies
// pool limits. SQLite gets a single connection so concurrent saves of
// different cases queue in Go instead of failing with SQLITE_BUSY.
func openCaseDB(cfg domain.RepositoryConfig) (*sql.DB, error) {
	var (
		driverName, dsn string
		maxOpen         int
	)
	switch cfg.Driver {
	case "sqlite":
		path := cfg.SQLitePath
		if path == "" {
			path = defaultSQLitePath
		}
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		driverName, dsn, maxOpen = "sqlite", sqliteDSN(path), 1
	case "postgres":
		driverName, dsn, maxOpen = "postgres", postgresDSN(cfg), defaultPostgresMaxOpen
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driverName, err)
	}

	if cfg.MaxOpenConns > 0 && driverName != "sqlite" {
		maxOpen = cfg.MaxOpenConns
	}
	db.SetMaxOpenConns(maxOpen)
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(min(cfg.MaxIdleConns, maxOpen))
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = defaultConnMaxLifetime
	}
	db.SetConnMaxLifetime(lifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}
	return db, nil
}
