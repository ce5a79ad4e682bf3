package feed

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var relativeTimePattern = regexp.MustCompile(`(\d+)\s*(second|minute|hour|day|week|month|year)s?\s*ago`)

// absoluteLayouts are the absolute publish-time formats accepted as-is.
var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ResolvePublished converts a publish time as received ("3 weeks ago",
// "2024-05-01") into an absolute time relative to now. Anything it cannot
// read is treated as published just now.
func ResolvePublished(s string, now time.Time) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t
		}
	}
	return ResolveRelative(s, now)
}

// ResolveRelative parses "<n> <unit>[s] ago" and subtracts it from now.
// Weeks become 7 days; months and years move the calendar fields.
func ResolveRelative(s string, now time.Time) time.Time {
	m := relativeTimePattern.FindStringSubmatch(strings.ToLower(s))
	if len(m) < 3 {
		return now
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return now
	}
	switch m[2] {
	case "second":
		return subtractUnits(now, n, 24*60*60, time.Second)
	case "minute":
		return subtractUnits(now, n, 24*60, time.Minute)
	case "hour":
		return subtractUnits(now, n, 24, time.Hour)
	case "day":
		return subtractDays(now, n)
	case "week":
		return subtractDays(now, min(n, maxAgeDays)*7)
	case "month":
		return now.AddDate(0, -min(n, maxAgeDays/28), 0)
	case "year":
		return now.AddDate(-min(n, maxAgeDays/365), 0, 0)
	}
	return now
}

// maxAgeDays caps how far back a relative time reaches.
const maxAgeDays = 100_000_000

// subtractUnits goes back n units, perDay of which make a day, without
// overflowing time.Duration.
func subtractUnits(now time.Time, n, perDay int, unit time.Duration) time.Time {
	days, rest := n/perDay, n%perDay
	return subtractDays(now, days).Add(-time.Duration(rest) * unit)
}

func subtractDays(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -min(days, maxAgeDays))
}
