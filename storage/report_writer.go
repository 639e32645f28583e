package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kickstarter-scraper/utils"
)

// MissingFieldRow lists the important fields one record came back without.
type MissingFieldRow struct {
	URL    string
	Fields []string
}

// ReportWriter writes the per-run quality report: which records were stored
// with important fields missing, so selector drift shows up in one file
// instead of buried in logs.
type ReportWriter struct {
	filePath string
	logger   *utils.Logger
}

// NewReportWriter creates a new ReportWriter
func NewReportWriter(filePath string, logger *utils.Logger) *ReportWriter {
	return &ReportWriter{filePath: filePath, logger: logger}
}

// WriteMissingFields writes one CSV row per affected record
func (w *ReportWriter) WriteMissingFields(rows []MissingFieldRow) error {
	// Ensure output directory exists
	dir := filepath.Dir(w.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(w.filePath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"url", "missing_fields"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range rows {
		if err := writer.Write([]string{row.URL, strings.Join(row.Fields, ";")}); err != nil {
			w.logger.Error("Failed to write CSV row for '%s': %v", row.URL, err)
		}
	}

	w.logger.Info("Missing-field report written to: %s (%d rows)", w.filePath, len(rows))
	return nil
}
