package render

import (
	"fmt"
	"time"
)

// absoluteFormat is used once a comment is older than a day.
const absoluteFormat = "2006-01-02 15:04"

// FormatTimestamp renders a creation time relative to now: "just now"
// under an hour, "Nh ago" under a day, absolute date+time beyond that.
// Deterministic for a fixed now, which the renderer requires.
func FormatTimestamp(t, now time.Time) string {
	age := now.Sub(t)
	switch {
	case age < time.Hour:
		return "just now"
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return t.Format(absoluteFormat)
	}
}
