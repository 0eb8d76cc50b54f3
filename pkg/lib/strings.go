package lib

import (
	"strings"
	"time"
)

func LimitStringLength(s string, max int) (string, bool) {
	asRunes := []rune(s)

	if len(asRunes) > max {
		return string(asRunes[:max]), true
	}

	return s, false
}

// Ellipsize shortens s to max runes, marking the cut with an ellipsis.
func Ellipsize(s string, max int) string {
	out, limited := LimitStringLength(s, max)
	if limited {
		return strings.TrimSpace(out) + "…"
	}
	return out
}

// FormatTime renders t the way every snapshot document does.
func FormatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}
