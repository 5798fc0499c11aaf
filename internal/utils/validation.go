package utils

import (
	"errors"
	"net/url"
	"regexp"

	"transitmap.onebusaway.org/internal/calendar"
)

// Allow alphanumeric, underscore, hyphen, dot and colon - common in transit IDs
var validIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)

// ValidateID validates that an ID is safe and within reasonable limits
func ValidateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}

	if len(id) > 100 {
		return errors.New("id too long (max 100 characters)")
	}

	if !validIDPattern.MatchString(id) {
		return errors.New("id contains invalid characters")
	}

	return nil
}

// ValidateLatitude validates latitude values
func ValidateLatitude(lat float64) error {
	if lat < -90.0 || lat > 90.0 {
		return errors.New("latitude must be between -90 and 90")
	}
	return nil
}

// ValidateLongitude validates longitude values
func ValidateLongitude(lon float64) error {
	if lon < -180.0 || lon > 180.0 {
		return errors.New("longitude must be between -180 and 180")
	}
	return nil
}

// ValidateDate validates service dates given as YYYY-MM-DD or YYYYMMDD.
// Empty dates are allowed.
func ValidateDate(date string) error {
	if date == "" {
		return nil
	}
	if _, err := calendar.NormalizeDate(date); err != nil {
		return errors.New("invalid date format, use YYYY-MM-DD or YYYYMMDD")
	}
	return nil
}

// ValidateClock validates a time of day given as H:MM or H:MM:SS. Hours past
// 23 are allowed for service running after midnight. Empty values are allowed.
func ValidateClock(clock string) error {
	if clock == "" {
		return nil
	}
	if _, err := calendar.ParseClock(clock); err != nil {
		return errors.New("invalid time format, use HH:MM or HH:MM:SS")
	}
	return nil
}

// ParseDateTimeParams reads the date and time query parameters. The date is
// returned as YYYYMMDD. Invalid values are reported in fieldErrors.
func ParseDateTimeParams(params url.Values, fieldErrors map[string][]string) (string, string, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	date := params.Get("date")
	if err := ValidateDate(date); err != nil {
		fieldErrors["date"] = append(fieldErrors["date"], err.Error())
		date = ""
	} else if date != "" {
		date, _ = calendar.NormalizeDate(date)
	}

	clock := params.Get("time")
	if err := ValidateClock(clock); err != nil {
		fieldErrors["time"] = append(fieldErrors["time"], err.Error())
		clock = ""
	}

	return date, clock, fieldErrors
}

// ValidateLocationParams validates a coordinate pair
func ValidateLocationParams(lat, lon float64) map[string][]string {
	fieldErrors := make(map[string][]string)

	if err := ValidateLatitude(lat); err != nil {
		fieldErrors["lat"] = append(fieldErrors["lat"], err.Error())
	}
	if err := ValidateLongitude(lon); err != nil {
		fieldErrors["lon"] = append(fieldErrors["lon"], err.Error())
	}

	return fieldErrors
}
