package standards

import (
	"fmt"
	"io"
	"log"
	"strings"
)

// Source is the document-side contract the extractor consumes: per-document
// full text and the table rows discovered across all pages, in page order.
type Source interface {
	FullText() string
	TableRows() [][]string
}

// Extractor runs the pattern catalog over document text and table cells and
// produces normalized, deduplicated records.
type Extractor struct {
	catalog *Catalog
	logger  *log.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithLogger sets the logger used for non-fatal parse warnings.
func WithLogger(logger *log.Logger) ExtractorOption {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor creates an extractor with the default pattern catalog.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		catalog: NewCatalog(),
		logger:  log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs the full pipeline over a readable document: text-sourced
// matches first, then table-sourced matches enriched from their owning rows,
// deduplicated by record id with the first occurrence winning. Malformed
// individual matches are skipped with a warning and never abort extraction.
func (e *Extractor) Extract(src Source) []Record {
	records := e.extractFromText(src.FullText())
	records = append(records, e.extractFromTables(src.TableRows())...)
	unique := Dedup(records)
	e.logger.Printf("extracted %d standard(s) (%d before dedup)", len(unique), len(records))
	return unique
}

// ExtractText runs the catalog over a bare text span, without table
// enrichment. Used for ad-hoc text input alongside the document path.
func (e *Extractor) ExtractText(text string) []Record {
	return Dedup(e.extractFromText(text))
}

func (e *Extractor) extractFromText(text string) []Record {
	var records []Record
	for _, m := range e.catalog.FindAll(text) {
		rec, ok := e.normalize(m)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records
}

func (e *Extractor) extractFromTables(rows [][]string) []Record {
	var records []Record
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		for _, cell := range row {
			if cell == "" {
				continue
			}
			for _, m := range e.catalog.FindAll(cell) {
				rec, ok := e.normalize(m)
				if !ok {
					continue
				}
				EnrichFromRow(&rec, row)
				records = append(records, rec)
			}
		}
	}
	return records
}

// normalize converts one raw match into a candidate record. A match whose
// number body is empty after trimming is discarded as a parse warning.
func (e *Extractor) normalize(m Match) (Record, bool) {
	family := ResolveFamily(m.Text)
	body := strings.TrimSpace(m.Body)
	if body == "" {
		e.logger.Printf("warning: discarding malformed %s match %q: empty number body", m.Pattern, m.Text)
		return Record{}, false
	}

	number := fmt.Sprintf("%s %s", family, body)
	var year *string
	yearKey := "null"
	if m.Year != "" {
		y := m.Year
		year = &y
		yearKey = y
		number += ":" + y
	}

	now := Now()
	return Record{
		ID:          fmt.Sprintf("%s_%s_%s", family, body, yearKey),
		Number:      number,
		Family:      family,
		NumberBody:  body,
		Year:        year,
		Status:      StatusActive,
		ExtractedAt: now,
		LastUpdated: now,
		Source:      SourcePDF,
	}, true
}

// Dedup drops records whose id was already seen, keeping the first
// occurrence. It is idempotent: Dedup(Dedup(l)) == Dedup(l).
func Dedup(records []Record) []Record {
	seen := make(map[string]struct{}, len(records))
	unique := make([]Record, 0, len(records))
	for _, rec := range records {
		if _, dup := seen[rec.ID]; dup {
			continue
		}
		seen[rec.ID] = struct{}{}
		unique = append(unique, rec)
	}
	return unique
}
