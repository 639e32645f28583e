package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kickstarter-scraper/models"
)

func TestExtractFloat(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"$1,234.56 pledged", 1234.56},
		{"£12,000", 12000},
		{"About $12.00", 12.00},
		{"7", 7},
		{"CA$ 99.9", 99.9},
	}
	for _, tt := range tests {
		got, err := ExtractFloat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestExtractFloatNoDigits(t *testing.T) {
	_, err := ExtractFloat("no numbers here")
	assert.ErrorIs(t, err, models.ErrNoDigits)

	_, err = ExtractFloat("")
	assert.ErrorIs(t, err, models.ErrNoDigits)

	// A stray dot alone is not a number either.
	_, err = ExtractFloat("...")
	assert.ErrorIs(t, err, models.ErrNoDigits)
}

func TestExtractInt(t *testing.T) {
	got, err := ExtractInt("1,234 backers")
	require.NoError(t, err)
	assert.Equal(t, 1234, got)

	_, err = ExtractInt("backers")
	assert.ErrorIs(t, err, models.ErrNoDigits)
}

func TestStripDigits(t *testing.T) {
	assert.Equal(t, "£", StripDigits("£1,200.50", ".,"))
	assert.Equal(t, "$", StripDigits("$12.00", ".,"))
	assert.Equal(t, "kr", StripDigits(" 1 200 kr", ".,"))
}
