package http

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// errInvalidDate marks a date field that was present but not parseable, so
// handlers can report it separately from a bad amount.
var errInvalidDate = errors.New("invalid date")

// formatEuros formats cents as a Euro currency string (e.g., "€12,34").
func formatEuros(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	euros := cents / 100
	rem := cents % 100
	s := strconv.FormatInt(euros, 10) + "," + fmt.Sprintf("%02d", rem)
	if neg {
		return "-€" + s
	}
	return "€" + s
}

// centsToInput renders cents as a plain decimal with comma separator,
// matching what the amount fields accept back.
func centsToInput(cents int64) string {
	return fmt.Sprintf("%d,%02d", cents/100, cents%100)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// parseDate parses a date string in YYYY-MM-DD format. Empty input yields nil.
func parseDate(dateStr string) (*time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", errInvalidDate, dateStr)
	}
	return &parsed, nil
}
