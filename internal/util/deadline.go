package util

import (
	"errors"
	"time"
)

// ErrConflictingDeadline is returned when both a duration and a clock time
// are given.
var ErrConflictingDeadline = errors.New("use either a duration or an end time, not both")

// Deadline turns the optional --for and --until values into an absolute end
// time. The zero time means the session runs until interrupted.
func Deadline(forValue, untilValue string, now time.Time) (time.Time, error) {
	switch {
	case forValue != "" && untilValue != "":
		return time.Time{}, ErrConflictingDeadline
	case forValue != "":
		d, err := ParseDuration(forValue)
		if err != nil {
			return time.Time{}, err
		}
		if d == 0 {
			return time.Time{}, nil
		}
		return now.Add(d), nil
	case untilValue != "":
		return ParseClock(untilValue, now)
	}
	return time.Time{}, nil
}
