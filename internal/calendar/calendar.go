// Package calendar decides whether a GTFS service runs on a given date and time.
package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"transitmap.onebusaway.org/internal/dataset"
)

// DateLayout is the GTFS service date layout.
const DateLayout = "20060102"

var errBadClock = errors.New("invalid time of day")

// IsTripActive reports whether a trip bound to service runs on date (YYYYMMDD)
// at clock (HH:MM[:SS]). An empty clock skips the time-of-day window.
//
// Checks run in this order and stop at the first definitive answer: missing
// service, date range, calendar exceptions (first matching entry wins),
// weekday flags, time-of-day window.
func IsTripActive(service *dataset.Service, date, clock string) bool {
	if service == nil {
		return false
	}

	if !InDateRange(service, date) {
		return false
	}

	if active, matched := CheckExceptions(service, date); matched {
		return active
	}

	weekday, err := Weekday(date)
	if err != nil || !service.Days[weekday] {
		return false
	}

	if clock != "" && service.StartTime != "" && service.EndTime != "" {
		return InTimeWindow(service, clock)
	}

	return true
}

// InDateRange compares zero-padded dates lexically. Empty bounds are open.
func InDateRange(service *dataset.Service, date string) bool {
	if service.StartDate != "" && date < service.StartDate {
		return false
	}
	if service.EndDate != "" && date > service.EndDate {
		return false
	}
	return true
}

// CheckExceptions scans the exceptions in order. matched is false when no
// entry has the given date.
func CheckExceptions(service *dataset.Service, date string) (active bool, matched bool) {
	for _, exception := range service.Exceptions {
		if exception.Date == date {
			return exception.Type == dataset.ExceptionAdded, true
		}
	}
	return false, false
}

// InTimeWindow reports whether clock falls inside [StartTime, EndTime],
// inclusive. Bounds past 24:00:00 are compared as-is.
func InTimeWindow(service *dataset.Service, clock string) bool {
	current, err := ParseClock(clock)
	if err != nil {
		return false
	}
	start, err := ParseClock(service.StartTime)
	if err != nil {
		return false
	}
	end, err := ParseClock(service.EndTime)
	if err != nil {
		return false
	}
	return start <= current && current <= end
}

// Weekday returns the proleptic Gregorian day of week of a YYYYMMDD date.
func Weekday(date string) (time.Weekday, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0, fmt.Errorf("invalid service date %q: %w", date, err)
	}
	return t.Weekday(), nil
}

// ParseClock converts "H:MM" or "H:MM:SS" into seconds since midnight.
// Hours are not limited to 23.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", errBadClock, s)
	}

	var fields [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: %q", errBadClock, s)
		}
		fields[i] = n
	}
	if fields[1] > 59 || fields[2] > 59 {
		return 0, fmt.Errorf("%w: %q", errBadClock, s)
	}
	return fields[0]*3600 + fields[1]*60 + fields[2], nil
}

// FormatDate renders t as a service date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatClock renders t as HH:MM.
func FormatClock(t time.Time) string {
	return t.Format("15:04")
}

// NormalizeDate accepts YYYYMMDD or the YYYY-MM-DD value of a date picker and
// returns YYYYMMDD.
func NormalizeDate(s string) (string, error) {
	compact := strings.ReplaceAll(strings.TrimSpace(s), "-", "")
	if _, err := time.Parse(DateLayout, compact); err != nil {
		return "", fmt.Errorf("invalid date %q", s)
	}
	return compact, nil
}
