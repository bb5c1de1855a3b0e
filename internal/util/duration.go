package util

import (
	"fmt"
	"strconv"
	"time"
)

// ParseDuration accepts either a whole number of minutes ("90") or a Go
// duration string ("1h30m").
func ParseDuration(input string) (time.Duration, error) {
	if minutes, err := strconv.Atoi(input); err == nil {
		if minutes < 0 {
			return 0, fmt.Errorf("negative duration: %s", input)
		}
		return time.Duration(minutes) * time.Minute, nil
	}

	duration, err := time.ParseDuration(input)
	if err != nil || duration < 0 {
		return 0, fmt.Errorf("invalid duration format: %s\n\nValid formats:\n"+
			"• minutes: e.g. '30'\n"+
			"• duration: e.g. '1h30m', '45s'", input)
	}
	return duration, nil
}
