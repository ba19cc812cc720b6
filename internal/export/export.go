// Package export dumps record sets to tabular and structured files. The
// format is selected by the destination's extension; anything unrecognized
// falls back to JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Tarachineno/standard-checker/internal/standards"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

var csvHeader = []string{
	"id", "number", "type", "number_part", "version", "status",
	"directive", "extracted_at", "source", "last_updated", "notes",
}

// Exporter writes record sets to files.
type Exporter struct {
	logger *log.Logger
}

// NewExporter creates an exporter.
func NewExporter(logger *log.Logger) *Exporter {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Exporter{logger: logger}
}

// Export writes the records to path, choosing the format by extension:
// .csv, .xlsx, .yaml/.yml, else JSON.
func (e *Exporter) Export(records []standards.Record, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("cannot create export directory: %w", err)
	}

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		err = e.writeCSV(records, path)
	case ".xlsx":
		err = e.writeXLSX(records, path)
	case ".yaml", ".yml":
		err = e.writeYAML(records, path)
	default:
		err = e.writeJSON(records, path)
	}
	if err != nil {
		return err
	}

	e.logger.Printf("exported %d record(s): %s", len(records), path)
	return nil
}

func recordRow(rec standards.Record) []string {
	year := ""
	if rec.Year != nil {
		year = *rec.Year
	}
	directive := ""
	if rec.Directive != nil {
		directive = *rec.Directive
	}
	return []string{
		rec.ID, rec.Number, string(rec.Family), rec.NumberBody, year,
		rec.Status, directive, rec.ExtractedAt, rec.Source,
		rec.LastUpdated, rec.Notes,
	}
}

func (e *Exporter) writeCSV(records []standards.Record, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create export file %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("cannot write CSV header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(recordRow(rec)); err != nil {
			return fmt.Errorf("cannot write CSV row for %s: %w", rec.ID, err)
		}
	}
	w.Flush()
	return w.Error()
}

func (e *Exporter) writeJSON(records []standards.Record, path string) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot serialize records: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (e *Exporter) writeYAML(records []standards.Record, path string) error {
	data, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("cannot serialize records: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// writeXLSX writes a Standards sheet plus a Statistics sheet summarizing
// counts by family, status, and source.
func (e *Exporter) writeXLSX(records []standards.Record, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	const standardsSheet = "Standards"
	if err := f.SetSheetName("Sheet1", standardsSheet); err != nil {
		return fmt.Errorf("cannot rename sheet: %w", err)
	}

	if err := setRow(f, standardsSheet, 1, csvHeader); err != nil {
		return err
	}
	for i, rec := range records {
		if err := setRow(f, standardsSheet, i+2, recordRow(rec)); err != nil {
			return err
		}
	}

	if err := e.writeStatsSheet(f, records); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("cannot write workbook %s: %w", path, err)
	}
	return nil
}

func (e *Exporter) writeStatsSheet(f *excelize.File, records []standards.Record) error {
	const statsSheet = "Statistics"
	if _, err := f.NewSheet(statsSheet); err != nil {
		return fmt.Errorf("cannot create statistics sheet: %w", err)
	}

	byFamily := make(map[string]int)
	byStatus := make(map[string]int)
	bySource := make(map[string]int)
	for _, rec := range records {
		byFamily[string(rec.Family)]++
		byStatus[rec.Status]++
		bySource[rec.Source]++
	}

	rows := [][]string{
		{"Metric", "Value"},
		{"total_count", fmt.Sprint(len(records))},
	}
	rows = append(rows, countRows("type", byFamily)...)
	rows = append(rows, countRows("status", byStatus)...)
	rows = append(rows, countRows("source", bySource)...)

	for i, row := range rows {
		if err := setRow(f, statsSheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func countRows(prefix string, counts map[string]int) [][]string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{prefix + ": " + k, fmt.Sprint(counts[k])})
	}
	return rows
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("cannot address cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("cannot write cell %s: %w", cell, err)
		}
	}
	return nil
}
