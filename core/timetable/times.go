package timetable

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

const TimeLayout = "15:04"

var ErrInvalidTime = errors.New("invalid time, expected HH:MM")

// ParseTime parses a time of day in the "HH:MM" or "HH:MM:SS" format.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{TimeLayout, "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Wrapf(ErrInvalidTime, "parsing %q", s)
}

// CleanTime normalizes a time of day to "HH:MM". Invalid values are only trimmed.
func CleanTime(s string) string {
	t, err := ParseTime(s)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return t.Format(TimeLayout)
}

func ValidTime(s string) bool {
	_, err := ParseTime(s)
	return err == nil
}
