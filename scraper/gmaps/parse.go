package gmaps

import (
	"regexp"
	"strconv"
	"strings"
)

var nonDigit = regexp.MustCompile(`\D`)

// parseRating turns a card's rating text ("4.5" or "4,5") into a float,
// zero when absent or out of the 0-5 band.
func parseRating(raw string) float64 {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > 5 {
		return 0
	}
	return v
}

// parseReviews extracts the count from review text like "(1,234)".
func parseReviews(raw string) int {
	cleaned := nonDigit.ReplaceAllString(raw, "")
	if cleaned == "" {
		return 0
	}
	n, err := strconv.Atoi(cleaned)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
