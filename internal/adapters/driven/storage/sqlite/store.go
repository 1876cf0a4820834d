package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/chatrelay/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/chatrelay/internal/core/domain"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driven"
)

// Store is a SQLite-based storage that provides the storage ports through
// wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store in dataDir.
// If dataDir is empty, defaults to ~/.chatrelay/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".chatrelay", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "chatrelay.db")

	// WAL lets the CLI read history while a server process writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// TransientStore returns a TransientStore backed by this store.
func (s *Store) TransientStore() driven.TransientStore {
	return &transientStore{store: s}
}

// TransferLog returns a TransferLog backed by this store.
func (s *Store) TransferLog() driven.TransferLog {
	return &transferLog{store: s}
}

// migrate applies every embedded NNN_name.up.sql newer than the recorded
// schema version.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// version returns the highest applied migration.
func (s *Store) version() (int, error) {
	var v int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v)
	return v, err
}

// ==================== TransientStore ====================

type transientStore struct {
	store *Store
}

// Put stores value under key, replacing any previous value.
func (s *transientStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO transient (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}
	return nil
}

// Get retrieves the value under key.
func (s *transientStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.store.db.QueryRowContext(ctx, "SELECT value FROM transient WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, nil
}

// Delete removes key.
func (s *transientStore) Delete(ctx context.Context, key string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM transient WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// ==================== TransferLog ====================

type transferLog struct {
	store *Store
}

// Record stores or updates a transfer status.
func (l *transferLog) Record(ctx context.Context, status domain.TransferStatus) error {
	if status.ID == "" {
		return domain.ErrInvalidInput
	}

	var finishedAt sql.NullTime
	if !status.FinishedAt.IsZero() {
		finishedAt = sql.NullTime{Time: status.FinishedAt.UTC(), Valid: true}
	}

	_, err := l.store.db.ExecContext(ctx, `
		INSERT INTO transfers (id, source, destination, state, error, delivered, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			error = excluded.error,
			delivered = excluded.delivered,
			finished_at = excluded.finished_at
	`,
		status.ID,
		string(status.Source),
		string(status.Destination),
		string(status.State),
		status.Error,
		status.Delivered,
		status.StartedAt.UTC(),
		finishedAt,
	)
	if err != nil {
		return fmt.Errorf("recording transfer: %w", err)
	}
	return nil
}

// List returns transfers newest first.
func (l *transferLog) List(ctx context.Context, limit int) ([]domain.TransferStatus, error) {
	query := `
		SELECT id, source, destination, state, error, delivered, started_at, finished_at
		FROM transfers ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transfers: %w", err)
	}
	defer rows.Close()

	var out []domain.TransferStatus
	for rows.Next() {
		var (
			st         domain.TransferStatus
			source     string
			dest       string
			state      string
			finishedAt sql.NullTime
		)
		if err := rows.Scan(&st.ID, &source, &dest, &state, &st.Error, &st.Delivered, &st.StartedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("scanning transfer: %w", err)
		}
		st.Source = domain.SiteID(source)
		st.Destination = domain.SiteID(dest)
		st.State = domain.TransferState(state)
		if finishedAt.Valid {
			st.FinishedAt = finishedAt.Time
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transfers: %w", err)
	}
	return out, nil
}
