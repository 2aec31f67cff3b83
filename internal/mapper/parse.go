package mapper

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

var (
	isinPattern     = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{9}[0-9]$`)
	leiPattern      = regexp.MustCompile(`^[A-Z0-9]{18}[0-9]{2}$`)
	cfiPattern      = regexp.MustCompile(`^[A-Z]{6}$`)
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
	micPattern      = regexp.MustCompile(`^[A-Z0-9]{4}$`)
	decimalPattern  = regexp.MustCompile(`^[+-]?[0-9]+(\.[0-9]+)?$`)
	integerPattern  = regexp.MustCompile(`^[+-]?[0-9]+$`)
	countPattern    = regexp.MustCompile(`^[0-9]+$`)
)

// Accepted date layouts: calendar date, RFC 3339 date-time, and zone-less date-time.
var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

// parseDate returns the calendar day of s at UTC midnight.
// For date-times the day is taken as written, in the value's own offset.
func parseDate(field, s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, invalid(field, fmt.Errorf("not a date: %q", s))
}

func parseOptionalDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseDate(field, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseDecimal accepts plain decimal notation only: no grouping separators,
// no exponent, '.' as the decimal point.
func parseDecimal(field, s string) (decimal.Decimal, error) {
	if !decimalPattern.MatchString(s) {
		return decimal.Decimal{}, invalid(field, fmt.Errorf("not a decimal: %q", s))
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, invalid(field, err)
	}
	return d, nil
}

func parseOptionalDecimal(field, s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := parseDecimal(field, s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseInt(field, s string) (int, error) {
	if !integerPattern.MatchString(s) {
		return 0, invalid(field, fmt.Errorf("not an integer: %q", s))
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, invalid(field, err)
	}
	return n, nil
}

// parseCount accepts unsigned integers only.
func parseCount(field, s string) (int, error) {
	if !countPattern.MatchString(s) {
		return 0, invalid(field, fmt.Errorf("not an unsigned integer: %q", s))
	}
	return parseInt(field, s)
}

// parseBool follows xs:boolean.
func parseBool(field, s string) (bool, error) {
	switch s {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, invalid(field, fmt.Errorf("not a boolean: %q", s))
}

func checkShape(field, s string, re *regexp.Regexp) error {
	if !re.MatchString(s) {
		return invalid(field, fmt.Errorf("malformed value %q", s))
	}
	return nil
}
