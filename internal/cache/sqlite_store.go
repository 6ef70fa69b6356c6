package cache

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/esyr/pkg/types"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteFile is the database file name inside the esyr home directory.
const SQLiteFile = "cache.db"

// SQLiteStore keeps the cache in a SQLite database. Save replaces every row
// inside one transaction, so readers see either the old or the new cache.
type SQLiteStore struct {
	dir string
}

// NewSQLiteStore returns a store whose database lives in dir.
func NewSQLiteStore(dir string) *SQLiteStore {
	return &SQLiteStore{dir: dir}
}

func (s *SQLiteStore) path() string {
	return filepath.Join(s.dir, SQLiteFile)
}

func (s *SQLiteStore) open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.path())
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Load reads every cached document. A missing database yields an empty state.
func (s *SQLiteStore) Load(ctx context.Context) (*State, error) {
	if _, err := os.Stat(s.path()); errors.Is(err, fs.ErrNotExist) {
		return NewState(), nil
	}
	db, err := s.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrCorruptCache, s.path(), err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT url, document FROM package_json`)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrCorruptCache, s.path(), err)
	}
	defer rows.Close()

	state := NewState()
	for rows.Next() {
		var url, doc string
		if err := rows.Scan(&url, &doc); err != nil {
			return nil, fmt.Errorf("scanning cache row: %w", err)
		}
		if !json.Valid([]byte(doc)) {
			return nil, fmt.Errorf("%w: %s: document for %s is not JSON", types.ErrCorruptCache, s.path(), url)
		}
		state.PackageJSON[url] = json.RawMessage(doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading cache rows: %w", err)
	}
	return state, nil
}

// Save replaces the stored cache with state.
func (s *SQLiteStore) Save(ctx context.Context, state *State) error {
	if err := os.MkdirAll(s.dir, 0o777); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	db, err := s.open(ctx)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM package_json`); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO package_json (url, document) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()
	for url, doc := range state.PackageJSON {
		if _, err := stmt.ExecContext(ctx, url, string(doc)); err != nil {
			return fmt.Errorf("insert %s: %w", url, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
