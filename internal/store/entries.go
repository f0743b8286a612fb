package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/i474232898/arso-weather-bridge/internal/weather"
)

const entriesSchema = `
CREATE TABLE IF NOT EXISTS entries (
  id         TEXT PRIMARY KEY,
  location   TEXT NOT NULL,
  mode       TEXT NOT NULL,
  created_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_location_mode ON entries(location, mode);
`

var (
	// ErrEntryExists is returned when the same location and mode are set up twice.
	ErrEntryExists = errors.New("entry already configured")
)

// EntryRepository persists setup entries.
type EntryRepository interface {
	Create(location, mode string) (weather.Entry, error)
	List() ([]weather.Entry, error)
	Delete(id string) error
}

type sqliteEntries struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens the database at path and applies the schema. Use
// ":memory:" for a throwaway database.
func OpenSQLite(path string) (*sql.DB, error) {
	dsn := path
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
		dsn = fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	// a single connection keeps ":memory:" databases alive and consistent
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if _, err := db.Exec(entriesSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db schema: %w", err)
	}
	return db, nil
}

// NewEntryRepository returns a SQLite-backed EntryRepository.
func NewEntryRepository(db *sql.DB) EntryRepository {
	return &sqliteEntries{db: db, now: time.Now}
}

func (r *sqliteEntries) Create(location, mode string) (weather.Entry, error) {
	entry := weather.Entry{
		ID:        uuid.NewString(),
		Location:  location,
		Mode:      mode,
		CreatedAt: r.now().UTC().Truncate(time.Second),
	}

	var existing string
	err := r.db.QueryRow(`SELECT id FROM entries WHERE location = ? AND mode = ?`, location, mode).Scan(&existing)
	switch {
	case err == nil:
		return weather.Entry{}, fmt.Errorf("%w: %s (%s)", ErrEntryExists, location, mode)
	case !errors.Is(err, sql.ErrNoRows):
		return weather.Entry{}, fmt.Errorf("lookup entry: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT INTO entries (id, location, mode, created_at) VALUES (?, ?, ?, ?)`,
		entry.ID, entry.Location, entry.Mode, entry.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return weather.Entry{}, fmt.Errorf("insert entry: %w", err)
	}
	return entry, nil
}

func (r *sqliteEntries) List() ([]weather.Entry, error) {
	rows, err := r.db.Query(`SELECT id, location, mode, created_at FROM entries ORDER BY created_at, location`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close entries rows", "error", err)
		}
	}()

	var out []weather.Entry
	for rows.Next() {
		var (
			e       weather.Entry
			created string
		)
		if err := rows.Scan(&e.ID, &e.Location, &e.Mode, &created); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339, created); err == nil {
			e.CreatedAt = ts
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *sqliteEntries) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
