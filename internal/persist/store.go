package persist

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kayz/modprompt/internal/host"
)

// timeLayout is fixed width so created_at sorts lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store keeps composition history in SQLite
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore creates a new SQLite-backed history store at the given path
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	s := &Store{db: db}

	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return s, nil
}

// init creates the necessary tables if they don't exist
func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS compositions (
			id            TEXT PRIMARY KEY,
			library       TEXT NOT NULL,
			model         TEXT NOT NULL,
			selections    TEXT,
			addons        TEXT,
			intent_flags  TEXT,
			custom        TEXT,
			prompt        TEXT NOT NULL,
			fragments     TEXT,
			created_at    TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_compositions_created ON compositions(created_at);
		CREATE INDEX IF NOT EXISTS idx_compositions_library ON compositions(library);
	`)
	return err
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordComposition stores a finished composition
func (s *Store) RecordComposition(ctx context.Context, rec host.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO compositions (id, library, model, selections, addons, intent_flags, custom, prompt, fragments, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Library, rec.Model, toJSON(rec.Selections), toJSON(rec.Addons), toJSON(rec.IntentFlags),
		rec.Custom, rec.Prompt, toJSON(rec.Fragments), createdAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert composition: %w", err)
	}
	return nil
}

// Get returns a composition by id, or nil if not found
func (s *Store) Get(ctx context.Context, id string) (*Composition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, library, model, selections, addons, intent_flags, custom, prompt, fragments, created_at
		FROM compositions
		WHERE id = ?
	`, id)

	c, err := scanComposition(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Recent returns the latest compositions, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]*Composition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, library, model, selections, addons, intent_flags, custom, prompt, fragments, created_at
		FROM compositions
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("load compositions: %w", err)
	}
	defer rows.Close()

	var out []*Composition
	for rows.Next() {
		c, err := scanComposition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan composition: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Prune deletes compositions created before cutoff and returns how many were removed
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `DELETE FROM compositions WHERE created_at < ?`,
		cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("prune compositions: %w", err)
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanComposition(row scanner) (*Composition, error) {
	var c Composition
	var selections, addons, flags, custom, fragments sql.NullString
	var createdAt string

	if err := row.Scan(&c.ID, &c.Library, &c.Model, &selections, &addons, &flags, &custom, &c.Prompt, &fragments, &createdAt); err != nil {
		return nil, err
	}

	_ = fromJSON(selections.String, &c.Selections)
	_ = fromJSON(addons.String, &c.Addons)
	_ = fromJSON(flags.String, &c.IntentFlags)
	_ = fromJSON(fragments.String, &c.Fragments)
	c.Custom = custom.String
	if t, err := time.Parse(timeLayout, createdAt); err == nil {
		c.CreatedAt = t
	}
	return &c, nil
}
