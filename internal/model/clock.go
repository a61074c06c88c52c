package model

import (
    "fmt"
    "strings"
    "time"
)

// DateLayout is the wire and storage format for calendar days.
const DateLayout = "2006-01-02"

// ParseDate parses a "YYYY-MM-DD" string into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
    d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
    if err != nil {
        return time.Time{}, fmt.Errorf("invalid date %q", s)
    }
    return d, nil
}

// ParseClock normalizes "HH:MM" or "HH:MM:SS" into "HH:MM".  MySQL TIME
// columns scan as "HH:MM:SS", so repositories pass their values through
// here as well.
func ParseClock(s string) (string, error) {
    s = strings.TrimSpace(s)
    for _, layout := range []string{"15:04", "15:04:05"} {
        if t, err := time.Parse(layout, s); err == nil {
            return t.Format("15:04"), nil
        }
    }
    return "", fmt.Errorf("invalid time %q", s)
}

// TruncateDay returns t's calendar day at UTC midnight.
func TruncateDay(t time.Time) time.Time {
    t = t.UTC()
    return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from a to b.  The
// result is negative when b is before a.
func DaysBetween(a, b time.Time) int {
    return int(TruncateDay(b).Sub(TruncateDay(a)).Hours() / 24)
}
