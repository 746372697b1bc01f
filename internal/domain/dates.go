package domain

import "time"

const (
	// DateLayout is the wire format for calendar dates.
	DateLayout = "2006-01-02"
	// ActivityTimeLayout is the local timestamp format stamped on activities.
	ActivityTimeLayout = "2006-01-02 15:04"
)

// DateOf truncates t to its calendar date in loc, returned at UTC midnight so
// that Year/Month/Day read back the municipal date.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, time.UTC)
}

// FormatDate renders a calendar date.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// Clock supplies the current time; tests inject fixed clocks.
type Clock func() time.Time

// Now returns the current time, falling back to time.Now.
func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}
