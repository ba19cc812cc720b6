package standards

import (
	"strings"
	"time"
)

// TimeFormat is the timestamp layout used in stored records. Legacy
// registries were written without a zone suffix, so the format keeps that
// shape rather than RFC 3339.
const TimeFormat = "2006-01-02T15:04:05"

// Family identifies the standards-issuing-body convention a reference
// belongs to.
type Family string

const (
	FamilyEN      Family = "EN"
	FamilyETSIEN  Family = "ETSI EN"
	FamilyIEC     Family = "IEC"
	FamilyISO     Family = "ISO"
	FamilyISOIEC  Family = "ISO/IEC"
	FamilyCISPR   Family = "CISPR"
	FamilyUnknown Family = "Unknown"
)

// Lifecycle status values.
const (
	StatusActive     = "Active"
	StatusWithdrawn  = "Withdrawn"
	StatusSuperseded = "Superseded"
	StatusCurrent    = "Current"
	StatusPublished  = "Published"
	StatusUnknown    = "Unknown"
)

// Provenance tags.
const (
	SourcePDF    = "PDF"
	SourceManual = "Manual"
)

// ResolveFamily determines the family tag from the raw matched text.
// More specific prefixes are checked before looser ones: "ETSI EN" must win
// over "EN", and "ISO/IEC" over both "IEC" and "ISO".
func ResolveFamily(matched string) Family {
	switch {
	case strings.Contains(matched, "ETSI EN"):
		return FamilyETSIEN
	case strings.Contains(matched, "EN"):
		return FamilyEN
	case strings.Contains(matched, "ISO/IEC"):
		return FamilyISOIEC
	case strings.Contains(matched, "IEC"):
		return FamilyIEC
	case strings.Contains(matched, "ISO"):
		return FamilyISO
	case strings.Contains(matched, "CISPR"):
		return FamilyCISPR
	default:
		return FamilyUnknown
	}
}

// VersionEntry is one row of the remote portal's work-programme result table.
type VersionEntry struct {
	Identification  string `json:"identification"`
	Status          string `json:"status"`
	PublicationDate string `json:"publication_date"`
	OJReference     string `json:"oj_reference,omitempty"`
	Title           string `json:"title"`
}

// RemoteInfo is the result of a remote portal lookup for one standard.
// Transport failures surface as an error-tagged RemoteInfo, never as an
// exception crossing into the extraction or registry core.
type RemoteInfo struct {
	StandardNumber string         `json:"standard_number,omitempty"`
	Status         string         `json:"status"`
	Versions       []VersionEntry `json:"versions"`
	TotalVersions  int            `json:"total_versions,omitempty"`
	LastUpdated    string         `json:"last_updated,omitempty"`
	Message        string         `json:"message,omitempty"`
	Error          string         `json:"error,omitempty"`
}

// Record is one normalized standard reference, extracted from a document or
// entered manually. Year is a pointer because "no year" must stay
// distinguishable from an empty-string year; the JSON tags match the registry
// document format of earlier releases ("type", "number_part", "version",
// "etsi_info").
type Record struct {
	ID          string      `json:"id"`
	Number      string      `json:"number"`
	Family      Family      `json:"type"`
	NumberBody  string      `json:"number_part"`
	Year        *string     `json:"version"`
	Status      string      `json:"status"`
	Directive   *string     `json:"directive"`
	ExtractedAt string      `json:"extracted_at"`
	Source      string      `json:"source"`
	RemoteInfo  *RemoteInfo `json:"etsi_info"`
	LastUpdated string      `json:"last_updated"`
	Notes       string      `json:"notes"`
}

// HasYear reports whether the record carries a version year. The empty
// string and the literal "null" placeholder used by older registry files
// both count as "no version".
func (r Record) HasYear() bool {
	return r.Year != nil && *r.Year != "" && *r.Year != "null"
}

// Now returns the current time in the registry timestamp format.
func Now() string {
	return time.Now().Format(TimeFormat)
}
