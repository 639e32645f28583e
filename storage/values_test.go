package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kickstarter-scraper/models"
)

func TestNullConversions(t *testing.T) {
	assert.False(t, nullString(models.None[string]()).Valid)
	assert.False(t, nullString(models.NA[string]()).Valid)

	s := nullString(models.Some("x"))
	assert.True(t, s.Valid)
	assert.Equal(t, "x", s.String)

	f := nullFloat(models.Some(1.5))
	assert.True(t, f.Valid)
	assert.Equal(t, 1.5, f.Float64)

	n := nullInt(models.Some(7))
	assert.True(t, n.Valid)
	assert.Equal(t, int64(7), n.Int64)

	d := nullDate(models.Some(models.Date{Year: 2019, Month: 5, Day: 1}))
	assert.True(t, d.Valid)
	assert.Equal(t, "2019-05-01", d.String)
	assert.False(t, nullDate(models.None[models.Date]()).Valid)
}

// All three field states must survive the round trip to a column: the QA
// queries distinguish "the page dropped this" from "this era never had it".
func TestTriState(t *testing.T) {
	v := triState(models.Some(true))
	assert.True(t, v.Valid)
	assert.Equal(t, "true", v.String)

	v = triState(models.Some(false))
	assert.True(t, v.Valid)
	assert.Equal(t, "false", v.String)

	v = triState(models.NA[bool]())
	assert.True(t, v.Valid)
	assert.Equal(t, "n/a", v.String)

	assert.False(t, triState(models.None[bool]()).Valid)
}

func TestJSONText(t *testing.T) {
	assert.Equal(t, `["a","b"]`, jsonText([]string{"a", "b"}))
	assert.Equal(t, "null", jsonText(nil))
}
