package services

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"kickstarter-scraper/models"
)

// LoadSeeds reads the discovery CSV that drives a campaign run. Each row is
// one project summary from the discovery API export; the url column is the
// only mandatory one, everything else fills gaps the page itself may not
// carry anymore.
func LoadSeeds(path string) ([]models.ProjectSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("seed file %s has no data rows", path)
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	if _, ok := col["url"]; !ok {
		return nil, fmt.Errorf("seed file %s has no url column", path)
	}

	field := func(row []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var seeds []models.ProjectSummary
	for _, row := range rows[1:] {
		url := field(row, "url")
		if url == "" {
			continue
		}
		seeds = append(seeds, models.ProjectSummary{
			URL:               url,
			Name:              field(row, "name"),
			CreatorID:         field(row, "creator_id"),
			Blurb:             field(row, "blurb"),
			OriginalCurrency:  field(row, "original_currency"),
			ConvertedCurrency: field(row, "converted_currency"),
			ConversionRate:    parseFloatField(field(row, "conversion_rate")),
			Goal:              parseFloatField(field(row, "goal")),
			Pledged:           parseFloatField(field(row, "pledged")),
			Backers:           int(parseFloatField(field(row, "backers"))),
			State:             field(row, "state"),
			StaffPick:         field(row, "staff_pick") == "true",
			Location:          field(row, "location"),
			Category:          field(row, "category"),
			Subcategory:       field(row, "subcategory"),
			CreatedDate:       parseISODate(field(row, "created_date")),
			LaunchedDate:      parseISODate(field(row, "launched_date")),
			DeadlineDate:      parseISODate(field(row, "deadline_date")),
		})
	}
	return seeds, nil
}

// LoadCreatorIDs reads creator IDs from either a JSON string array or a plain
// list with one ID per line (blanks and # comments skipped).
func LoadCreatorIDs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open creator ID file: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	first, err := firstNonSpaceByte(reader)
	if err != nil {
		return nil, fmt.Errorf("read creator ID file: %w", err)
	}
	if first == '[' {
		var ids []string
		if err := json.NewDecoder(reader).Decode(&ids); err != nil {
			return nil, fmt.Errorf("decode creator ID list: %w", err)
		}
		return ids, nil
	}

	var ids []string
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read creator ID file: %w", err)
	}
	return ids, nil
}

// firstNonSpaceByte peeks past leading whitespace without consuming anything.
func firstNonSpaceByte(r *bufio.Reader) (byte, error) {
	for peek := 1; ; peek++ {
		buf, err := r.Peek(peek)
		if err != nil {
			return 0, err
		}
		b := buf[peek-1]
		if b != ' ' && b != '\t' && b != '\n' && b != '\r' {
			return b, nil
		}
	}
}

func parseFloatField(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseISODate(s string) models.Date {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return models.Date{}
	}
	return models.DateOf(t)
}
