package timeutil_test

import (
	"testing"
	"time"

	"github.com/sgaunet/repohost/internal/timeutil"
	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{name: "zero", duration: 0, expected: "0ms"},
		{name: "negative clamps", duration: -time.Second, expected: "0ms"},
		{name: "milliseconds", duration: 350 * time.Millisecond, expected: "350ms"},
		{name: "just under a second", duration: 999 * time.Millisecond, expected: "999ms"},
		{name: "one second", duration: time.Second, expected: "1s"},
		{name: "rounds half up", duration: 1500 * time.Millisecond, expected: "2s"},
		{name: "59 seconds", duration: 59 * time.Second, expected: "59s"},
		{name: "one minute", duration: time.Minute, expected: "1m 0s"},
		{name: "minutes and seconds", duration: 83 * time.Second, expected: "1m 23s"},
		{name: "no hour unit", duration: 2 * time.Hour, expected: "120m 0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, timeutil.FormatDuration(tt.duration))
		})
	}
}

func TestSince(t *testing.T) {
	assert.Equal(t, "0ms", timeutil.Since(time.Now().Add(time.Hour)))
	assert.Equal(t, "1m 0s", timeutil.Since(time.Now().Add(-time.Minute)))
}
