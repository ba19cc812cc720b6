package standards

import (
	"regexp"
	"strings"
)

// statusKeyword maps a lifecycle keyword found in table-row text to the
// status tag it implies. Order is priority: the first keyword present in the
// row wins, so "withdrawn" beats a stray "active" in the same row.
type statusKeyword struct {
	keyword string
	status  string
}

var statusKeywords = []statusKeyword{
	{"withdrawn", StatusWithdrawn},
	{"superseded", StatusSuperseded},
	{"current", StatusCurrent},
	{"active", StatusActive},
	{"published", StatusPublished},
}

// directivePattern recognizes a regulatory directive reference in row text.
type directivePattern struct {
	tag string
	re  *regexp.Regexp
}

var directivePatterns = []directivePattern{
	{"RED 2014/53/EU", regexp.MustCompile(`(?i)RED\s+2014/53/EU`)},
	{"LVD 2014/35/EU", regexp.MustCompile(`(?i)LVD\s+2014/35/EU`)},
	{"EMC 2014/30/EU", regexp.MustCompile(`(?i)EMC\s+2014/30/EU`)},
	{"RoHS 2011/65/EU", regexp.MustCompile(`(?i)RoHS\s+2011/65/EU`)},
}

// EnrichFromRow scans the table row a record was found in and attaches a
// lifecycle status and a directive tag on the first keyword/pattern hit.
// This is best-effort: no hit leaves the extraction defaults in place.
func EnrichFromRow(rec *Record, row []string) {
	var cells []string
	for _, cell := range row {
		if cell != "" {
			cells = append(cells, cell)
		}
	}
	rowText := strings.Join(cells, " ")
	lower := strings.ToLower(rowText)

	for _, sk := range statusKeywords {
		if strings.Contains(lower, sk.keyword) {
			rec.Status = sk.status
			break
		}
	}

	for _, dp := range directivePatterns {
		if dp.re.MatchString(rowText) {
			tag := dp.tag
			rec.Directive = &tag
			break
		}
	}
}
