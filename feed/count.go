package feed

import (
	"strconv"
	"strings"
)

// ParseCount reads a count from display text by dropping every non-digit
// ("1,234 views" is 1234). Text without digits, or too large to fit, is 0.
func ParseCount(s string) int64 {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
