package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/i474232898/season-snow-board/internal/snow"
)

const schema = `
CREATE TABLE IF NOT EXISTS season_totals (
    resort TEXT PRIMARY KEY,
    inches REAL NOT NULL CHECK (inches >= 0),
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore keeps totals in a single SQLite table.
type SQLiteStore struct {
	db      *sql.DB
	resorts []snow.Resort
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(path string, resorts []snow.Resort) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	// one connection keeps writes serialized
	db.SetMaxOpenConns(1)

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, resorts: resorts}, nil
}

// CreateSchema creates the totals table.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Load returns the stored totals, or zero totals when the table is empty.
func (s *SQLiteStore) Load(ctx context.Context) (snow.Totals, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT resort, inches FROM season_totals`)
	if err != nil {
		return nil, fmt.Errorf("query totals: %w", err)
	}
	defer rows.Close()

	totals := snow.Totals{}
	for rows.Next() {
		var (
			name   string
			inches float64
		)
		if err := rows.Scan(&name, &inches); err != nil {
			return nil, fmt.Errorf("scan totals: %w", err)
		}
		totals[name] = inches
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate totals: %w", err)
	}

	if len(totals) == 0 {
		return snow.ZeroTotals(s.resorts), nil
	}
	return totals, nil
}

// Save replaces every row with totals in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, totals snow.Totals) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM season_totals`); err != nil {
		return fmt.Errorf("clear totals: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO season_totals (resort, inches) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for name, inches := range totals {
		if _, err := stmt.ExecContext(ctx, name, inches); err != nil {
			return fmt.Errorf("insert %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit totals: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
