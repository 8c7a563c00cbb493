package snow

import (
	"time"
)

// Resort is a fixed point we track season snowfall for.
// Name doubles as the key in persisted totals and as the board label.
type Resort struct {
	Name string  `yaml:"name" json:"name" validate:"required,uppercase,printascii,max=22"`
	Lat  float64 `yaml:"lat" json:"lat" validate:"latitude"`
	Lon  float64 `yaml:"lon" json:"lon" validate:"longitude"`
}

// Totals maps resort name to accumulated season snowfall in inches.
type Totals map[string]float64

// Clone returns an independent copy of t.
func (t Totals) Clone() Totals {
	out := make(Totals, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// ZeroTotals returns a zero total for every resort and nothing else.
func ZeroTotals(resorts []Resort) Totals {
	out := make(Totals, len(resorts))
	for _, r := range resorts {
		out[r.Name] = 0.0
	}
	return out
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// DateLayout is the wire format for calendar days.
const DateLayout = "2006-01-02"

// StartDate formats the first day of the range.
func (d DateRange) StartDate() string {
	return d.Start.Format(DateLayout)
}

// EndDate formats the last day of the range.
func (d DateRange) EndDate() string {
	return d.End.Format(DateLayout)
}

// SeasonReading is what a provider reports for one resort over a date range.
type SeasonReading struct {
	ProviderName string
	Resort       string
	Range        DateRange

	// SnowfallCM is the sum of every numeric daily value.
	SnowfallCM float64
	Days       int
	Skipped    int // null or non-numeric days
}
