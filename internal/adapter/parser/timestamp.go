package parser

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrTimestampFormat is returned when a timestamp does not have the
// exporter's shape or names an impossible date.
var ErrTimestampFormat = errors.New("unrecognized timestamp")

// D/M/Y, H:MM[:SS] with an optional meridiem. Dates are always day first.
//
//	25/7/25, 12:41:11 a. m.
//	1/1/2024, 9:05 p.m.
//	01/02/24 10:00 PM
//	01/02/24, 22:00
var timestampRe = regexp.MustCompile(`(?i)^(\d{1,2})/(\d{1,2})/(\d{4}|\d{2}),?\s+(\d{1,2}):(\d{2})(?::(\d{2}))?(?:\s*([ap])\.?\s?m\.?)?$`)

// ParseTimestamp converts an exported timestamp into an instant in UTC.
// Two-digit years are in the 2000s.
func ParseTimestamp(text string) (time.Time, error) {
	m := timestampRe.FindStringSubmatch(strings.TrimSpace(normalizeSpaces(text)))
	if m == nil {
		return time.Time{}, ErrTimestampFormat
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	second := 0
	if m[6] != "" {
		second, _ = strconv.Atoi(m[6])
	}

	if len(m[3]) == 2 {
		year += 2000
	}

	switch strings.ToLower(m[7]) {
	case "p":
		if hour < 1 || hour > 12 {
			return time.Time{}, ErrTimestampFormat
		}
		if hour != 12 {
			hour += 12
		}
	case "a":
		if hour < 1 || hour > 12 {
			return time.Time{}, ErrTimestampFormat
		}
		if hour == 12 {
			hour = 0
		}
	default:
		if hour > 23 {
			return time.Time{}, ErrTimestampFormat
		}
	}

	if month < 1 || month > 12 || minute > 59 || second > 59 {
		return time.Time{}, ErrTimestampFormat
	}

	ts := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	// time.Date normalizes 31/2 into March.
	if ts.Day() != day || int(ts.Month()) != month {
		return time.Time{}, ErrTimestampFormat
	}
	return ts, nil
}
