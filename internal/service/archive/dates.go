package archive

import (
	"fmt"
	"strings"
	"time"

	"delivery-orchestrator/internal/apperr"
)

type dateLayout struct {
	layout  string
	dayOnly bool
}

var dateLayouts = []dateLayout{
	{"2006-01-02", true},
	{"2006-01-02 15:04:05", false},
	{"02/01/2006", true},
	{"02/01/2006 15:04:05", false},
}

// ParseDate accepts ISO and day-first dates, with or without a time, in UTC.
// A bare date is the start of that day.
func ParseDate(s string) (time.Time, error) {
	t, _, err := parseDate(s)
	return t, err
}

// ParseEndDate is ParseDate for inclusive upper bounds: a bare date is the last
// instant of that day.
func ParseEndDate(s string) (time.Time, error) {
	t, dayOnly, err := parseDate(s)
	if err != nil || !dayOnly {
		return t, err
	}
	return t.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}

func parseDate(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	for _, l := range dateLayouts {
		if t, err := time.ParseInLocation(l.layout, s, time.UTC); err == nil {
			return t, l.dayOnly, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("%w: unrecognized date %q, use YYYY-MM-DD or DD/MM/YYYY", apperr.ErrInvalid, s)
}
