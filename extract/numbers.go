package extract

import (
	"fmt"
	"strconv"
	"strings"

	"kickstarter-scraper/models"
)

// ExtractFloat concatenates every digit and decimal point in text and parses
// the result, so "$1,234.56 pledged" becomes 1234.56. Returns ErrNoDigits
// when text holds no digits at all: a field with no number was not observed,
// it is not zero.
func ExtractFloat(text string) (float64, error) {
	var b strings.Builder
	digits := false
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits = true
			b.WriteRune(r)
		} else if r == '.' {
			b.WriteRune(r)
		}
	}
	if !digits {
		return 0, models.ErrNoDigits
	}
	v, err := strconv.ParseFloat(strings.Trim(b.String(), "."), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", text, err)
	}
	return v, nil
}

// ExtractInt concatenates every digit in text and parses the result.
func ExtractInt(text string) (int, error) {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, models.ErrNoDigits
	}
	v, err := strconv.Atoi(b.String())
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", text, err)
	}
	return v, nil
}

// StripDigits returns text without digits and without any rune in excluded,
// trimmed of whitespace. Used to recover currency glyphs sitting next to
// amounts, e.g. "£1,200.50" with excluded ".," yields "£".
func StripDigits(text, excluded string) string {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			continue
		}
		if strings.ContainsRune(excluded, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
