package ui

import (
	"fmt"
	"time"
)

// taskDateLayout is the timestamp form `task export` emits.
const taskDateLayout = "20060102T150405Z"

// formatDate renders a raw export date for a table cell. Empty renders as a
// dash and anything unparseable comes back verbatim; date strings are opaque
// to every other layer.
func formatDate(raw string, relative bool, now time.Time) string {
	if raw == "" || raw == "-" {
		return "-"
	}
	t, err := time.Parse(taskDateLayout, raw)
	if err != nil {
		return raw
	}
	if relative {
		return formatRelative(t, now)
	}
	return t.Format("02-01-2006")
}

// formatRelative buckets a date against now by calendar-day distance.
func formatRelative(t, now time.Time) string {
	days := calendarDays(t, now)

	switch days {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	case -1:
		return "yesterday"
	}

	past := days < 0
	if past {
		days = -days
	}

	var phrase string
	switch {
	case days < 7:
		phrase = plural(days, "day")
	case days < 30:
		phrase = plural(days/7, "week")
	case days < 365:
		phrase = plural(days/30, "month")
	default:
		phrase = plural(days/365, "year")
	}

	if past {
		return phrase + " ago"
	}
	return "in " + phrase
}

func calendarDays(t, now time.Time) int {
	midnight := func(x time.Time) time.Time {
		return time.Date(x.Year(), x.Month(), x.Day(), 0, 0, 0, 0, time.UTC)
	}
	return int(midnight(t).Sub(midnight(now)).Hours() / 24)
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
