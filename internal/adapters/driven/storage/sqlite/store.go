package sqlite

import (
	"cmp"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/recall-labs/recall-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

// Store owns the SQLite connection and migration state.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the metadata database under dataDir.
// An empty dataDir means ~/.recall/data. The schema is migrated to the
// latest version before the store is returned.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".recall", "data")
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	// Pragmas go in the DSN so they apply to every pooled connection,
	// not just the one a bare Exec would hit.
	dbPath := filepath.Join(dataDir, "metadata.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying connection. Views handed out by this store
// must not be used afterwards.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Per-port views over the shared connection.

func (s *Store) SourceStore() driven.SourceStore       { return &sourceStore{db: s.db} }
func (s *Store) DocumentStore() driven.DocumentStore   { return &documentStore{db: s.db} }
func (s *Store) ManifestStore() driven.ManifestStore   { return &manifestStore{db: s.db} }
func (s *Store) ExclusionStore() driven.ExclusionStore { return &exclusionStore{db: s.db} }
func (s *Store) SchedulerStore() driven.SchedulerStore { return &schedulerStore{db: s.db} }

// VectorIndex returns a vector index view scoring with the given metric.
func (s *Store) VectorIndex(metric domain.DistanceMetric) driven.VectorIndex {
	return &vectorIndex{db: s.db, metric: metric}
}

type migration struct {
	version int
	name    string
}

// migrate applies any .up.sql files newer than the recorded schema
// version, in version order. Each migration file inserts its own row
// into schema_migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(
		"CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY, applied_at DATETIME DEFAULT CURRENT_TIMESTAMP)")
	if err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	var pending []migration
	for _, entry := range entries {
		m := migration{name: entry.Name()}
		if !strings.HasSuffix(m.name, ".up.sql") {
			continue
		}
		if _, err := fmt.Sscanf(m.name, "%d_", &m.version); err != nil {
			continue
		}
		if m.version > current {
			pending = append(pending, m)
		}
	}
	slices.SortFunc(pending, func(a, b migration) int { return cmp.Compare(a.version, b.version) })

	for _, m := range pending {
		ddl, err := fs.ReadFile(fsys, m.name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", m.name, err)
		}
		if _, err := s.db.Exec(string(ddl)); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.name, err)
		}
	}

	return nil
}
