package timecalc

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ParseDate parses user supplied dates permissively: ISO and US dates,
// timestamps, "January 2, 2006", unix seconds, and the relative words
// now, today, yesterday and tomorrow (resolved against now).
func ParseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}

	switch strings.ToLower(s) {
	case "now":
		return now, nil
	case "today":
		return StartOfDay(now), nil
	case "yesterday":
		return StartOfDay(now).AddDate(0, 0, -1), nil
	case "tomorrow":
		return StartOfDay(now).AddDate(0, 0, 1), nil
	}

	t, err := dateparse.ParseIn(s, now.Location())
	if err != nil {
		return time.Time{}, err
	}
	if t.Unix() <= 0 {
		return time.Time{}, fmt.Errorf("date %q is not after the epoch", s)
	}
	return t, nil
}

// FormatHours formats decimal hours as "7.50h (7h 30m)".
func FormatHours(hours float64) string {
	minutes := int64(hours*60 + 0.5)
	return fmt.Sprintf("%.2fh (%s)", hours, FormatDuration(minutes*60))
}

// FormatDuration formats seconds as a human-readable string like "1h 40m" or "45m" or "30s".
func FormatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}

// WeekRange returns the Monday and Sunday of the ISO week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	// Go's weekday: Sunday=0, Monday=1, …, Saturday=6
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // treat Sunday as 7 (ISO)
	}
	monday := t.AddDate(0, 0, -(wd - 1))
	monday = time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, t.Location())
	sunday := monday.AddDate(0, 0, 6)
	sunday = time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 23, 59, 59, 0, t.Location())
	return monday, sunday
}

// ISOWeekLabel returns a label like "2026-W09".
func ISOWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59 of the same day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// ResolveRange turns optional --from/--to flag values into a range. Both
// empty yields the ISO week containing now; a lone from runs until the
// end of today.
func ResolveRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	if from == "" && to == "" {
		start, end := WeekRange(now)
		return start, end, nil
	}
	if from == "" {
		return time.Time{}, time.Time{}, errors.New("--from is required when --to is specified")
	}
	start, err := ParseDate(from, now)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --from value %q: %w", from, err)
	}
	end := EndOfDay(now)
	if to != "" {
		t, err := ParseDate(to, now)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to value %q: %w", to, err)
		}
		end = EndOfDay(t)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	return StartOfDay(start), end, nil
}
