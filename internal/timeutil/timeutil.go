// Package timeutil provides time formatting utilities.
package timeutil

import (
	"fmt"
	"time"
)

// FormatDuration formats a duration for humans.
// Sub-second durations are shown in milliseconds, longer ones are rounded to
// the second and shown as "Xm Ys" or "Ys".
//
// Examples:
//   - 350ms
//   - 45s
//   - 1m 23s
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	d = d.Round(time.Second)
	minutes := d / time.Minute
	seconds := (d % time.Minute) / time.Second

	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

// Since formats the time elapsed since start.
func Since(start time.Time) string {
	return FormatDuration(time.Since(start))
}
