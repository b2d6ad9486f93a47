package budget

import "time"

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// CurrentMonth returns the calendar month containing now, in now's location.
func CurrentMonth(now time.Time) Window {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return Window{Start: start, End: start.AddDate(0, 1, 0)}
}

// MonthToDate returns the start of now's month up to and including now.
func MonthToDate(now time.Time) Window {
	m := CurrentMonth(now)
	return Window{Start: m.Start, End: now.Add(time.Nanosecond)}
}

// Month returns the calendar month of the given year and month in loc.
func Month(year int, month time.Month, loc *time.Location) Window {
	return CurrentMonth(time.Date(year, month, 1, 0, 0, 0, 0, loc))
}

// LastNDays returns the n days ending at now.
func LastNDays(now time.Time, n int) Window {
	return Window{Start: now.AddDate(0, 0, -n), End: now}
}

// Lookback windows used by the scheduled and interactive flows.
const (
	WeeklyLookbackDays   = 7
	AnalysisLookbackDays = 30
)
