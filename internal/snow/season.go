package snow

import (
	"fmt"
	"time"
)

// SeasonStartPolicy picks day zero of the season for a given "today".
type SeasonStartPolicy func(today time.Time) time.Time

const (
	seasonStartMonth = time.October
	seasonStartDay   = 1
)

// CalendarYearStart returns October 1 of today's calendar year.
//
// Before October this is a date in the future, so the resulting range is
// inverted. The range is sent upstream as computed; a rejection there is an
// ordinary fetch failure and the stored total is kept.
func CalendarYearStart(today time.Time) time.Time {
	return time.Date(today.Year(), seasonStartMonth, seasonStartDay, 0, 0, 0, 0, today.Location())
}

// RollingSeasonStart returns the most recent October 1 on or before today.
func RollingSeasonStart(today time.Time) time.Time {
	start := CalendarYearStart(today)
	if start.After(today) {
		start = start.AddDate(-1, 0, 0)
	}
	return start
}

// PolicyByName resolves a configured policy name.
func PolicyByName(name string) (SeasonStartPolicy, error) {
	switch name {
	case "", "calendar":
		return CalendarYearStart, nil
	case "rolling":
		return RollingSeasonStart, nil
	default:
		return nil, fmt.Errorf("unknown season start policy %q", name)
	}
}

// SeasonRange computes season start through today, both as UTC calendar days.
func SeasonRange(now time.Time, policy SeasonStartPolicy) DateRange {
	if policy == nil {
		policy = CalendarYearStart
	}
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return DateRange{
		Start: policy(today),
		End:   today,
	}
}
