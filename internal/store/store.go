package store

import (
	"fmt"

	"github.com/i474232898/season-snow-board/internal/snow"
)

// Drivers accepted by Open.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Open builds the store for driver. The returned close func is never nil.
func Open(driver, path string, resorts []snow.Resort) (snow.Store, func() error, error) {
	noop := func() error { return nil }

	switch driver {
	case "", DriverFile:
		return NewFileStore(path, resorts), noop, nil
	case DriverSQLite:
		s, err := OpenSQLite(path, resorts)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case DriverMemory:
		return NewMemoryStore(resorts), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown store driver %q", driver)
	}
}
