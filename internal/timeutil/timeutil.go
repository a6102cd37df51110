package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/uplearn/tutor-scheduler/internal/clock"
)

const dateLayout = "2006-01-02"

// ParseHour parses "HH", "HH:MM" or "HH:MM:SS" into an hour of day.
// Anything not landing exactly on the hour is rejected.
func ParseHour(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid hour %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour %q", s)
	}
	for _, rest := range parts[1:] {
		if rest != "00" {
			return 0, fmt.Errorf("hour %q is not on the hour", s)
		}
	}
	return h, nil
}

// FormatHour renders an hour of day as "HH:00".
func FormatHour(h int) string {
	return fmt.Sprintf("%02d:00", h)
}

// ParseDate parses a "YYYY-MM-DD" civil date in the service zone.
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, s, clock.Zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return d, nil
}

// NormalizeDate strips the time-of-day component, keeping the civil date
// in the service zone. Safe to call on dates scanned from the database.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Year(), t.Month(), t.Day()
	return time.Date(y, m, d, 0, 0, 0, 0, clock.Zone)
}

// FormatDate renders a civil date as "YYYY-MM-DD".
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// StartOfHour returns the instant at which the given civil date/hour begins.
func StartOfHour(date time.Time, hour int) time.Time {
	d := NormalizeDate(date)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, clock.Zone)
}

// IsPast reports whether the given civil date/hour is strictly before now.
func IsPast(date time.Time, hour int, now time.Time) bool {
	return StartOfHour(date, hour).Before(now)
}
