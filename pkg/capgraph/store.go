// Copyright 2025 Certen Protocol
//
// Package capgraph is the Postgres-backed capability graph (delegations,
// invocations, revocations, organized under the epoch log that orders them).
// It is the derived index the commit engine (pkg/epoch) writes into and the
// authorization checker (pkg/authz) reads from — never a source of truth by
// itself; the epoch log is.
package capgraph

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

const dbPingTimeout = 10 * time.Second

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Querier is the subset of *sql.DB and *sql.Tx every capgraph operation
// needs, so writers can run inside an epoch commit's transaction while
// readers can run directly against the pool.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store owns the connection pool and migration state for the capability
// graph.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger overrides the default logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore opens a connection pool against dsn and verifies connectivity.
func NewStore(dsn string, opts ...Option) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("capgraph: dsn cannot be empty")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("capgraph: open: %w", err)
	}
	s := &Store{db: db, logger: log.New(log.Writer(), "[capgraph] ", log.LstdFlags)}
	for _, opt := range opts {
		opt(s)
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("capgraph: ping: %w", err)
	}
	return s, nil
}

// NewStoreFromDB wraps an already-open pool, for callers (pkg/orbit) that
// share one *sql.DB across capgraph and kv rather than opening their own.
func NewStoreFromDB(db *sql.DB) *Store {
	return &Store{db: db, logger: log.New(log.Writer(), "[capgraph] ", log.LstdFlags)}
}

// DB returns the underlying pool for callers that need to start their own
// transaction (the epoch commit engine).
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the pool.
func (s *Store) Close() error { return s.db.Close() }

// migration is a single embedded schema change, identified by its filename
// (sans extension) so files sort and apply in lexical order.
type migration struct {
	version string
	sql     string
}

func loadMigrations() ([]migration, error) {
	var out []migration
	err := fs.WalkDir(migrationsFS, "migrations", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}
		content, err := migrationsFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("capgraph: read %s: %w", path, err)
		}
		version := strings.TrimSuffix(d.Name(), ".sql")
		out = append(out, migration{version: version, sql: string(content)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

func appliedMigrations(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		if strings.Contains(err.Error(), "does not exist") {
			return map[string]bool{}, nil
		}
		return nil, err
	}
	defer rows.Close()
	applied := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// Migrate applies every pending embedded migration in order, each inside its
// own transaction.
func (s *Store) Migrate(ctx context.Context) error {
	migrations, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("capgraph: load migrations: %w", err)
	}
	applied, err := appliedMigrations(ctx, s.db)
	if err != nil {
		return fmt.Errorf("capgraph: applied migrations: %w", err)
	}
	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		s.logger.Printf("applying %s", m.version)
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("capgraph: begin %s: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("capgraph: apply %s: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("capgraph: commit %s: %w", m.version, err)
		}
	}
	return nil
}
