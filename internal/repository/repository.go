// Package repository provides case store implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cybertriage/cybertriage/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// New creates a case store based on configuration.
func New(cfg domain.RepositoryConfig) (domain.CaseStore, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite", "postgres":
		return NewSQLStore(cfg)
	case "redis":
		return NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}
}

// SQLStore implements domain.CaseStore using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// NewSQLStore opens the database and runs migrations.
func NewSQLStore(cfg domain.RepositoryConfig) (*SQLStore, error) {
	db, err := openCaseDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLStore{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func (s *SQLStore) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := s.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

const caseColumns = `case_id, status, intake, triage, routing, notes, review_requests, created_at, last_updated`

// LoadAllCases returns every stored case.
func (s *SQLStore) LoadAllCases(ctx context.Context) (map[string]*domain.Case, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+caseColumns+` FROM cases`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cases := make(map[string]*domain.Case)
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases[c.ID] = c
	}
	return cases, rows.Err()
}

// GetCase retrieves a single case.
func (s *SQLStore) GetCase(ctx context.Context, caseID string) (*domain.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE case_id = ?`

	c, err := scanCase(s.db.QueryRowContext(ctx, s.rebind(query), caseID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// SaveAllCases upserts the given cases in a single transaction.
func (s *SQLStore) SaveAllCases(ctx context.Context, cases map[string]*domain.Case) error {
	if len(cases) == 0 {
		return nil
	}

	query := `
		INSERT INTO cases (` + caseColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (case_id) DO UPDATE SET
			status = excluded.status,
			intake = excluded.intake,
			triage = excluded.triage,
			routing = excluded.routing,
			notes = excluded.notes,
			review_requests = excluded.review_requests,
			created_at = excluded.created_at,
			last_updated = excluded.last_updated
	`

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.rebind(query))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for id, c := range cases {
		if c == nil || id == "" || id != c.ID {
			return fmt.Errorf("%w: case key %q does not match case id", ErrInvalidInput, id)
		}
		row, err := encodeCase(c)
		if err != nil {
			return fmt.Errorf("encode case %s: %w", id, err)
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("save case %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// Mode returns the driver name.
func (s *SQLStore) Mode() string {
	return s.driver
}

// Ping checks database connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*domain.Case, error) {
	var (
		c                      domain.Case
		intake, notes, reviews string
		triage, routing        sql.NullString
		createdAt, lastUpdated string
	)

	if err := row.Scan(&c.ID, &c.Status, &intake, &triage, &routing, &notes, &reviews, &createdAt, &lastUpdated); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(intake), &c.Intake); err != nil {
		return nil, fmt.Errorf("decode intake of %s: %w", c.ID, err)
	}
	if triage.Valid && triage.String != "" {
		c.Triage = &domain.TriageRecord{}
		if err := json.Unmarshal([]byte(triage.String), c.Triage); err != nil {
			return nil, fmt.Errorf("decode triage of %s: %w", c.ID, err)
		}
	}
	if routing.Valid && routing.String != "" {
		c.Routing = &domain.RoutingRecord{}
		if err := json.Unmarshal([]byte(routing.String), c.Routing); err != nil {
			return nil, fmt.Errorf("decode routing of %s: %w", c.ID, err)
		}
	}
	if err := json.Unmarshal([]byte(notes), &c.Notes); err != nil {
		return nil, fmt.Errorf("decode notes of %s: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(reviews), &c.ReviewRequests); err != nil {
		return nil, fmt.Errorf("decode review requests of %s: %w", c.ID, err)
	}

	var err error
	if c.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("decode created_at of %s: %w", c.ID, err)
	}
	if c.LastUpdated, err = time.Parse(time.RFC3339Nano, lastUpdated); err != nil {
		return nil, fmt.Errorf("decode last_updated of %s: %w", c.ID, err)
	}

	return &c, nil
}

func encodeCase(c *domain.Case) ([]any, error) {
	intake, err := json.Marshal(c.Intake)
	if err != nil {
		return nil, err
	}
	var triage, routing sql.NullString
	if c.Triage != nil {
		b, err := json.Marshal(c.Triage)
		if err != nil {
			return nil, err
		}
		triage = sql.NullString{String: string(b), Valid: true}
	}
	if c.Routing != nil {
		b, err := json.Marshal(c.Routing)
		if err != nil {
			return nil, err
		}
		routing = sql.NullString{String: string(b), Valid: true}
	}
	notes, err := json.Marshal(nonNil(c.Notes))
	if err != nil {
		return nil, err
	}
	reviews, err := json.Marshal(nonNil(c.ReviewRequests))
	if err != nil {
		return nil, err
	}

	return []any{
		c.ID, c.Status, string(intake), triage, routing,
		string(notes), string(reviews),
		c.CreatedAt.UTC().Format(time.RFC3339Nano),
		c.LastUpdated.UTC().Format(time.RFC3339Nano),
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}

	// Convert ? to $1, $2, etc.
	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
