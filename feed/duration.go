package feed

import (
	"math"
	"strconv"
	"strings"
)

// ShortThresholdMinutes splits the short bucket from the long bucket.
const ShortThresholdMinutes = 10

// ShortThresholdSeconds is ShortThresholdMinutes for second-valued callers.
const ShortThresholdSeconds = ShortThresholdMinutes * 60

// NormalizeDuration returns the canonical duration in whole minutes together
// with the exact second count. Unknown or malformed durations yield 0, 0.
func NormalizeDuration(d Duration) (minutes, seconds int) {
	if d.HasSeconds {
		if d.Seconds <= 0 {
			return 0, 0
		}
		return MinutesFromSeconds(d.Seconds), d.Seconds
	}
	return ParseDurationText(d.Text), durationTextSeconds(d.Text)
}

// MinutesFromSeconds rounds a second count to the nearest minute.
func MinutesFromSeconds(sec int) int {
	if sec <= 0 {
		return 0
	}
	return int(math.Round(float64(sec) / 60))
}

// ParseDurationText converts "SS", "MM:SS" or "H:MM:SS" into minutes.
//
// "SS" and "MM:SS" round to the nearest minute. "H:MM:SS" has minute
// resolution: "1:23:45" is 83. Segments that fail to parse count as 0; more
// than three segments, "Unknown" or an empty string give 0.
func ParseDurationText(s string) int {
	parts, ok := durationSegments(s)
	if !ok {
		return 0
	}
	switch len(parts) {
	case 1:
		return MinutesFromSeconds(parts[0])
	case 2:
		return int(math.Round(float64(parts[0]) + float64(parts[1])/60))
	case 3:
		return parts[0]*60 + parts[1]
	}
	return 0
}

func durationTextSeconds(s string) int {
	parts, ok := durationSegments(s)
	if !ok {
		return 0
	}
	total := 0
	for _, p := range parts {
		total = total*60 + p
	}
	return total
}

func durationSegments(s string) ([]int, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "unknown") {
		return nil, false
	}
	raw := strings.Split(s, ":")
	if len(raw) > 3 {
		return nil, false
	}
	parts := make([]int, len(raw))
	for i, r := range raw {
		n, err := strconv.Atoi(strings.TrimSpace(r))
		if err != nil || n < 0 {
			n = 0
		}
		parts[i] = n
	}
	return parts, true
}
