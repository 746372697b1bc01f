package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultTrackingPrefix is the municipality code leading every tracking number.
const DefaultTrackingPrefix = "VM"

var trackingPattern = regexp.MustCompile(`^([A-Z]+)-(\d{4})-(\d{3,})$`)

// FormatTrackingNumber renders PREFIX-YEAR-SEQ with at least three sequence digits.
func FormatTrackingNumber(prefix string, year, seq int) string {
	if prefix == "" {
		prefix = DefaultTrackingPrefix
	}
	return fmt.Sprintf("%s-%04d-%03d", prefix, year, seq)
}

// ParseTrackingNumber splits a tracking number into its parts.
func ParseTrackingNumber(code string) (prefix string, year, seq int, ok bool) {
	m := trackingPattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(code)))
	if m == nil {
		return "", 0, 0, false
	}
	year, _ = strconv.Atoi(m[2])
	seq, err := strconv.Atoi(m[3])
	if err != nil {
		return "", 0, 0, false
	}
	return m[1], year, seq, true
}

// NormalizeTrackingNumber upper-cases and trims a user-entered code.
func NormalizeTrackingNumber(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
