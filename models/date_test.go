package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDate(t *testing.T) {
	d := DateOf(time.Date(2019, 5, 1, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, Date{Year: 2019, Month: 5, Day: 1}, d)
	assert.Equal(t, "2019-05-01", d.String())
	assert.False(t, d.IsZero())
	assert.True(t, Date{}.IsZero())
}

func TestDaysUntil(t *testing.T) {
	start := Date{Year: 2019, Month: 4, Day: 1}
	end := Date{Year: 2019, Month: 5, Day: 1}
	assert.Equal(t, 30, start.DaysUntil(end))
	assert.Equal(t, 0, start.DaysUntil(start))
	assert.Equal(t, -30, end.DaysUntil(start))
}

func TestDurationDays(t *testing.T) {
	rec := &CampaignRecord{
		StartDate: Some(Date{Year: 2019, Month: 4, Day: 1}),
		EndDate:   Some(Date{Year: 2019, Month: 5, Day: 1}),
	}
	assert.Equal(t, Some(30), rec.DurationDays())

	rec.StartDate = None[Date]()
	assert.True(t, rec.DurationDays().Missing())

	// Reversed dates mean a bad source, not a negative duration.
	rec.StartDate = Some(Date{Year: 2019, Month: 6, Day: 1})
	rec.EndDate = Some(Date{Year: 2019, Month: 5, Day: 1})
	assert.True(t, rec.DurationDays().Missing())
}
