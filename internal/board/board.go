// Package board renders season totals into the fixed 6x22 split-flap layout.
package board

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// Width is the number of characters per display line.
	Width = 22
	// Lines is the number of display lines.
	Lines = 6
	// ResortRows is the number of lines left for resorts after title and timestamp.
	ResortRows = Lines - 2

	Title = "SEASON SNOW TOTALS"

	fill          = "."
	inchMark      = `"`
	updatedLayout = "Jan 02 15:04"
)

// ErrResortCount is returned when the label count does not fill the resort rows.
var ErrResortCount = errors.New("board: wrong number of resort rows")

// Payload is one rendered board, top line first.
type Payload [Lines]string

// Text joins the lines with newlines, as the display expects.
func (p Payload) Text() string {
	return strings.Join(p[:], "\n")
}

// Formatter renders boards for a fixed list of resort labels.
type Formatter struct {
	labels []string
	loc    *time.Location
}

// NewFormatter creates a Formatter. Labels keep their order on the board.
// A nil loc renders the timestamp in UTC.
func NewFormatter(labels []string, loc *time.Location) (*Formatter, error) {
	if len(labels) != ResortRows {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrResortCount, len(labels), ResortRows)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{
		labels: append([]string(nil), labels...),
		loc:    loc,
	}, nil
}

// Render lays out values. A label missing from values shows as zero.
func (f *Formatter) Render(values map[string]float64, at time.Time) Payload {
	var p Payload
	p[0] = Center(Title)
	for i, label := range f.labels {
		p[i+1] = Row(label, values[label])
	}
	p[Lines-1] = UpdatedLine(at, f.loc)
	return p
}

// Row renders `LABEL.....12.3"` at exactly Width characters. At least one
// fill character is always present; anything past Width is cut off.
func Row(label string, value float64) string {
	lbl := strings.ToUpper(label)
	val := fmt.Sprintf("%.1f%s", value, inchMark)

	dots := Width - utf8.RuneCountInString(lbl) - utf8.RuneCountInString(val)
	if dots < 1 {
		dots = 1
	}
	return truncate(lbl + strings.Repeat(fill, dots) + val)
}

// UpdatedLine renders e.g. "UPDATED NOV 02 05:00", centered.
func UpdatedLine(at time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	ts := "UPDATED " + at.In(loc).Format(updatedLayout)
	return Center(strings.ToUpper(ts))
}

// Center pads s with spaces to Width, odd padding going to the right.
// Longer input is cut to Width.
func Center(s string) string {
	n := utf8.RuneCountInString(s)
	if n >= Width {
		return truncate(s)
	}
	pad := Width - n
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= Width {
		return s
	}
	return string([]rune(s)[:Width])
}
