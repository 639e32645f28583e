package storage

import (
	"database/sql"
	"encoding/json"

	"kickstarter-scraper/models"
)

// Column value conversion. Missing and not-applicable both map to NULL for
// typed columns; fields where the distinction matters downstream use a text
// column via triState instead.

func nullString(o models.Opt[string]) sql.NullString {
	v, ok := o.Get()
	return sql.NullString{String: v, Valid: ok}
}

func nullFloat(o models.Opt[float64]) sql.NullFloat64 {
	v, ok := o.Get()
	return sql.NullFloat64{Float64: v, Valid: ok}
}

func nullInt(o models.Opt[int]) sql.NullInt64 {
	v, ok := o.Get()
	return sql.NullInt64{Int64: int64(v), Valid: ok}
}

func nullBool(o models.Opt[bool]) sql.NullBool {
	v, ok := o.Get()
	return sql.NullBool{Bool: v, Valid: ok}
}

func nullDate(o models.Opt[models.Date]) sql.NullString {
	v, ok := o.Get()
	return sql.NullString{String: v.String(), Valid: ok}
}

// triState keeps all three field states distinct: "true"/"false" when
// observed, "n/a" when the page era never exposes the field, NULL when the
// page should have carried it but did not.
func triState(o models.Opt[bool]) sql.NullString {
	if o.IsNA() {
		return sql.NullString{String: "n/a", Valid: true}
	}
	if v, ok := o.Get(); ok {
		if v {
			return sql.NullString{String: "true", Valid: true}
		}
		return sql.NullString{String: "false", Valid: true}
	}
	return sql.NullString{}
}

// jsonText serializes nested structures into a TEXT column. Marshal cannot
// fail for the record types stored here.
func jsonText(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
