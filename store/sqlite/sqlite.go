// Package sqlite is a SQLite-backed FormStore, for deployments that
// want draft form data queryable alongside other relational state.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/conditional"
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/store"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS form_data (
	reference_number TEXT PRIMARY KEY,
	data             TEXT NOT NULL,
	updated_at       TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

// Storage is a FormStore over a SQLite database.
type Storage struct {
	db *sql.DB
}

// Open opens (and if necessary initializes) the database at the
// given path.
func Open(path string) (*Storage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) Get(ctx context.Context, ref string) (conditional.FormData, error) {
	var js string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM form_data WHERE reference_number = ?`, ref).Scan(&js)
	if err == sql.ErrNoRows {
		return nil, store.NotFound
	}
	if err != nil {
		return nil, err
	}
	var data conditional.FormData
	if err := json.Unmarshal([]byte(js), &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Storage) Put(ctx context.Context, ref string, data conditional.FormData) error {
	js, err := json.Marshal(&data)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO form_data (reference_number, data, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(reference_number)
DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		ref, string(js))
	return err
}

func (s *Storage) Delete(ctx context.Context, ref string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM form_data WHERE reference_number = ?`, ref)
	return err
}
