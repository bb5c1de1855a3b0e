package util

import (
	"fmt"
	"strings"
	"time"
)

var clockFormats = []string{"15:04", "3:04PM", "3:04 PM", "03:04PM", "03:04 PM"}

// ParseClock parses a wall-clock time in 24-hour ("23:30") or 12-hour
// ("11:30PM") form and returns the next occurrence of it after now. A time
// that has already passed today rolls over to tomorrow.
func ParseClock(clock string, now time.Time) (time.Time, error) {
	clock = strings.TrimSpace(strings.ToUpper(clock))

	for _, format := range clockFormats {
		t, err := time.Parse(format, clock)
		if err != nil {
			continue
		}
		at := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
		if !at.After(now) {
			at = at.AddDate(0, 0, 1)
		}
		return at, nil
	}

	return time.Time{}, fmt.Errorf("invalid time format: %s\n\nValid formats:\n"+
		"• 24-hour format: HH:MM (e.g., '23:30', '09:45')\n"+
		"• 12-hour format: HH:MM[AM|PM] (e.g., '11:30PM', '9:45 AM')", clock)
}
