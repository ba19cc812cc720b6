package standards

import "regexp"

// Pattern is one recognition pattern in the catalog. Each pattern targets a
// single numbering convention and captures the number body in group 1 and an
// optional colon-delimited 4-digit year in group 2.
type Pattern struct {
	Name string
	re   *regexp.Regexp
}

// Match is one raw pattern hit in a text span, before normalization.
type Match struct {
	Pattern string
	Text    string // full matched substring
	Body    string // captured number body, untrimmed
	Year    string // captured year, empty when the source had no :YYYY suffix
}

// Catalog is the ordered list of recognition patterns. Order matters for
// family resolution: the EN pattern admits the ETSI prefix so that
// ResolveFamily can distinguish "ETSI EN" from plain "EN" on the full match,
// and the ISO pattern admits "/IEC" for the same reason.
type Catalog struct {
	patterns []Pattern
}

func defaultPatterns() []Pattern {
	return []Pattern{
		{
			// EN 301 489-17:2017 or ETSI EN 301 489-17:2017. The body class
			// keeps internal whitespace: "301 489-17" is one number.
			Name: "en",
			re:   regexp.MustCompile(`(?i)(?:ETSI\s+)?EN\s+([\d\s.\-]+)(?::(\d{4}))?`),
		},
		{
			// IEC 62368-1:2014
			Name: "iec",
			re:   regexp.MustCompile(`(?i)IEC\s+([\d.\-]+)(?::(\d{4}))?`),
		},
		{
			// ISO 9001:2015 or ISO/IEC 17025:2017
			Name: "iso",
			re:   regexp.MustCompile(`(?i)ISO(?:/IEC)?\s+([\d.\-]+)(?::(\d{4}))?`),
		},
		{
			// CISPR 11:2015
			Name: "cispr",
			re:   regexp.MustCompile(`(?i)CISPR\s+([\d.\-]+)(?::(\d{4}))?`),
		},
	}
}

// NewCatalog returns the catalog of supported numbering conventions.
func NewCatalog() *Catalog {
	return &Catalog{patterns: defaultPatterns()}
}

// FindAll runs every pattern over the text in catalog order and returns the
// raw matches in discovery order.
func (c *Catalog) FindAll(text string) []Match {
	var matches []Match
	for _, p := range c.patterns {
		for _, groups := range p.re.FindAllStringSubmatch(text, -1) {
			m := Match{
				Pattern: p.Name,
				Text:    groups[0],
				Body:    groups[1],
			}
			if len(groups) > 2 {
				m.Year = groups[2]
			}
			matches = append(matches, m)
		}
	}
	return matches
}
