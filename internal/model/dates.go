package model

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ddmmyyyySlash  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	ddmmyyyyDash   = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`)
	bareYear       = regexp.MustCompile(`^(\d{4})$`)
)

// ParseDate tries, in order, ISO-8601, DD/MM/YYYY, DD-MM-YYYY, then a
// bare year (mapped to YYYY-01-01). It returns (time.Time{}, false) on
// failure rather than a best-effort guess — the teacher's parseDateRobust
// never returns a partial guess either; it returns a zero value plus an
// error and lets the caller decide, which here becomes the boolean ok.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}

	if m := ddmmyyyySlash.FindStringSubmatch(s); m != nil {
		if t, ok := buildDate(m[1], m[2], m[3]); ok {
			return t, true
		}
	}
	if m := ddmmyyyyDash.FindStringSubmatch(s); m != nil {
		if t, ok := buildDate(m[1], m[2], m[3]); ok {
			return t, true
		}
	}
	if m := bareYear.FindStringSubmatch(s); m != nil {
		year, err := strconv.Atoi(m[1])
		if err == nil {
			return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC), true
		}
	}

	return time.Time{}, false
}

func buildDate(dayStr, monthStr, yearStr string) (time.Time, bool) {
	day, err1 := strconv.Atoi(dayStr)
	month, err2 := strconv.Atoi(monthStr)
	year, err3 := strconv.Atoi(yearStr)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return t, true
}

// FormatDate renders t as the canonical YYYY-MM-DD form used throughout
// the artifact's date fields, the counterpart ParseDate round-trips
// against.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
