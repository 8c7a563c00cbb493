package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/i474232898/season-snow-board/internal/snow"
)

// DefaultDataFile is where totals live when nothing else is configured.
const DefaultDataFile = "season_totals.json"

// FileStore keeps totals in a human-readable JSON file. It assumes a single
// writer and overwrites the file in place.
type FileStore struct {
	path    string
	resorts []snow.Resort
}

// NewFileStore creates a FileStore. resorts seed the zero state when the file is absent.
func NewFileStore(path string, resorts []snow.Resort) *FileStore {
	if path == "" {
		path = DefaultDataFile
	}
	return &FileStore{
		path:    path,
		resorts: resorts,
	}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the file. A missing file yields zero totals; anything unreadable
// or unparsable is an error.
func (s *FileStore) Load(_ context.Context) (snow.Totals, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return snow.ZeroTotals(s.resorts), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read totals file: %w", err)
	}

	var totals snow.Totals
	if err := json.Unmarshal(data, &totals); err != nil {
		return nil, fmt.Errorf("parse totals file %s: %w", s.path, err)
	}
	if totals == nil {
		totals = snow.Totals{}
	}
	return totals, nil
}

// Save overwrites the file with the full mapping.
func (s *FileStore) Save(_ context.Context, totals snow.Totals) error {
	data, err := json.MarshalIndent(totals, "", "  ")
	if err != nil {
		return fmt.Errorf("encode totals: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write totals file: %w", err)
	}
	return nil
}
