package standards

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogFindAll(t *testing.T) {
	catalog := NewCatalog()

	tests := []struct {
		name    string
		text    string
		pattern string
		body    string
		year    string
	}{
		{
			name:    "EN with year",
			text:    "EN 301 489-17:2017",
			pattern: "en",
			body:    "301 489-17",
			year:    "2017",
		},
		{
			name:    "ETSI prefixed EN",
			text:    "ETSI EN 300 328:2019",
			pattern: "en",
			body:    "300 328",
			year:    "2019",
		},
		{
			name:    "IEC with part number",
			text:    "IEC 62368-1:2014",
			pattern: "iec",
			body:    "62368-1",
			year:    "2014",
		},
		{
			name:    "CISPR",
			text:    "CISPR 11:2015",
			pattern: "cispr",
			body:    "11",
			year:    "2015",
		},
		{
			name:    "EN without year",
			text:    "EN 55032",
			pattern: "en",
			body:    "55032",
			year:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := catalog.FindAll(tt.text)
			if len(matches) == 0 {
				t.Fatalf("no match for %q", tt.text)
			}
			m := matches[0]
			assert.Equal(t, tt.pattern, m.Pattern)
			assert.Equal(t, tt.body, strings.TrimSpace(m.Body))
			assert.Equal(t, tt.year, m.Year)
		})
	}
}

func TestCatalogFindAllMultiple(t *testing.T) {
	catalog := NewCatalog()

	matches := catalog.FindAll("EN 301 489-17:2017 and IEC 62368-1:2014 and ISO 9001:2015")
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d: %+v", len(matches), matches)
	}
}

func TestCatalogISOIECDoubleHit(t *testing.T) {
	catalog := NewCatalog()

	// A slash-joined reference is hit by both the iec and the iso pattern;
	// the records stay distinct because their families differ.
	matches := catalog.FindAll("ISO/IEC 17025:2017")
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d: %+v", len(matches), matches)
	}
}

func TestCatalogNoMatch(t *testing.T) {
	catalog := NewCatalog()

	if matches := catalog.FindAll("no standards mentioned here"); matches != nil {
		t.Errorf("expected no matches, got %+v", matches)
	}
}

func TestResolveFamily(t *testing.T) {
	tests := []struct {
		matched string
		want    Family
	}{
		{"ETSI EN 300 328", FamilyETSIEN},
		{"EN 301 489-17", FamilyEN},
		{"ISO/IEC 17025", FamilyISOIEC},
		{"IEC 62368-1", FamilyIEC},
		{"ISO 9001", FamilyISO},
		{"CISPR 11", FamilyCISPR},
		{"something else", FamilyUnknown},
	}

	for _, tt := range tests {
		if got := ResolveFamily(tt.matched); got != tt.want {
			t.Errorf("ResolveFamily(%q) = %q, want %q", tt.matched, got, tt.want)
		}
	}
}

func TestRecordHasYear(t *testing.T) {
	year := "2017"
	empty := ""
	placeholder := "null"

	tests := []struct {
		name string
		year *string
		want bool
	}{
		{"real year", &year, true},
		{"nil", nil, false},
		{"empty string", &empty, false},
		{"legacy null placeholder", &placeholder, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Record{Year: tt.year}
			assert.Equal(t, tt.want, rec.HasYear())
		})
	}
}
