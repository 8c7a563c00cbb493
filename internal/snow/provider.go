package snow

import (
	"context"
	"time"

	"github.com/i474232898/season-snow-board/internal/board"
)

// Provider abstracts a snowfall data source (e.g. Open-Meteo).
type Provider interface {
	Name() string
	FetchSeason(ctx context.Context, resort Resort, rng DateRange) (SeasonReading, error)
}

// Store is the contract every totals backend (file, sqlite, memory) must satisfy.
//
// Load returns a zero total for every configured resort when nothing has
// been saved yet. Save replaces whatever was stored before.
type Store interface {
	Load(ctx context.Context) (Totals, error)
	Save(ctx context.Context, totals Totals) error
}

// Renderer lays totals out for the display.
type Renderer interface {
	Render(values map[string]float64, at time.Time) board.Payload
}

// Publisher pushes rendered text to the display.
type Publisher interface {
	Publish(ctx context.Context, text string) error
}
