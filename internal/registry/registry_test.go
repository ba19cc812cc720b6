package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Tarachineno/standard-checker/internal/standards"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// memStore is an in-memory Store for registry tests.
type memStore struct {
	records []standards.Record
	saves   int
}

func (s *memStore) Load() ([]standards.Record, error) {
	return s.records, nil
}

func (s *memStore) Save(records []standards.Record) error {
	s.records = records
	s.saves++
	return nil
}

func newTestRegistry(t *testing.T, opts ...Option) (*Registry, *memStore) {
	t.Helper()
	store := &memStore{}
	reg, err := New(store, opts...)
	require.NoError(t, err)
	return reg, store
}

func enRecord() standards.Record {
	return standards.Record{
		ID:         "EN_301 489-17_2017",
		Number:     "EN 301 489-17:2017",
		Family:     standards.FamilyEN,
		NumberBody: "301 489-17",
		Year:       strPtr("2017"),
		Status:     standards.StatusActive,
		Source:     standards.SourcePDF,
	}
}

func TestAddNewRecord(t *testing.T) {
	reg, _ := newTestRegistry(t)

	id := reg.Add(enRecord())
	assert.Equal(t, "EN_301 489-17_2017", id)
	assert.Equal(t, 1, reg.Len())

	rec, ok := reg.Get(id)
	require.True(t, ok)
	assert.Equal(t, "EN 301 489-17:2017", rec.Number)
}

func TestAddAppliesDefaults(t *testing.T) {
	reg, _ := newTestRegistry(t)

	id := reg.Add(standards.Record{Number: "EN 55032:2015"})
	rec, ok := reg.Get(id)
	require.True(t, ok)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, standards.StatusUnknown, rec.Status)
	assert.Equal(t, standards.SourceManual, rec.Source)
	assert.NotEmpty(t, rec.ExtractedAt)
	assert.NotEmpty(t, rec.LastUpdated)
}

func TestAddMergesOnSameNumber(t *testing.T) {
	reg, _ := newTestRegistry(t)

	first := reg.Add(enRecord())

	// Re-ingesting the same reference resolves to the existing entry and
	// leaves everything but LastUpdated untouched.
	edited := strPtr("manually verified")
	reg.ApplyUpdate(first, Update{Notes: edited})

	second := reg.Add(enRecord())
	assert.Equal(t, first, second)
	assert.Equal(t, 1, reg.Len())

	rec, _ := reg.Get(first)
	assert.Equal(t, "manually verified", rec.Notes)
}

func TestAddMergesOnTriple(t *testing.T) {
	reg, _ := newTestRegistry(t)

	first := reg.Add(enRecord())

	// Same (family, body, year) but a differently rendered display number
	// still resolves to the stored entry.
	candidate := enRecord()
	candidate.ID = ""
	candidate.Number = "EN  301 489-17 : 2017"
	second := reg.Add(candidate)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, reg.Len())
}

func TestMergePreservesStatus(t *testing.T) {
	reg, _ := newTestRegistry(t)

	id := reg.Add(enRecord())
	withdrawn := standards.StatusWithdrawn
	reg.ApplyUpdate(id, Update{Status: &withdrawn})

	reg.Add(enRecord())
	rec, _ := reg.Get(id)
	assert.Equal(t, standards.StatusWithdrawn, rec.Status)
}

func TestYearIdentityStrict(t *testing.T) {
	reg, _ := newTestRegistry(t)

	versioned := enRecord()
	reg.Add(versioned)

	unversioned := enRecord()
	unversioned.ID = "EN_301 489-17_null"
	unversioned.Number = "EN 301 489-17"
	unversioned.Year = nil

	// Under strict identity an unversioned reference is a separate record.
	reg.Add(unversioned)
	assert.Equal(t, 2, reg.Len())
}

func TestYearIdentityCompat(t *testing.T) {
	reg, _ := newTestRegistry(t, WithCompatYearKeys())

	none := enRecord()
	none.ID = "EN_301 489-17_None"
	none.Number = ""
	none.Year = nil
	reg.Add(none)

	// In compat mode a nil year reads as the text "None", so a candidate
	// whose year is literally "None" collides with it.
	legacy := enRecord()
	legacy.ID = ""
	legacy.Number = ""
	legacy.Year = strPtr("None")
	reg.Add(legacy)

	assert.Equal(t, 1, reg.Len())
}

func TestBulkAddSavesOnce(t *testing.T) {
	reg, store := newTestRegistry(t)

	ids, err := reg.BulkAdd([]standards.Record{
		enRecord(),
		{ID: "IEC_62368-1_2014", Number: "IEC 62368-1:2014", Family: standards.FamilyIEC, NumberBody: "62368-1", Year: strPtr("2014")},
		enRecord(), // duplicate resolves to the first id
	})
	require.NoError(t, err)
	require.Len(t, ids, 3)
	assert.Equal(t, ids[0], ids[2])
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, 1, store.saves)
	assert.Len(t, store.records, 2)
}

func TestAllPreservesInsertionOrder(t *testing.T) {
	reg, _ := newTestRegistry(t)

	reg.Add(standards.Record{ID: "c", Number: "CISPR 11:2015", Family: standards.FamilyCISPR, NumberBody: "11"})
	reg.Add(standards.Record{ID: "a", Number: "EN 55032:2015", Family: standards.FamilyEN, NumberBody: "55032"})
	reg.Add(standards.Record{ID: "b", Number: "IEC 61000-3-2:2018", Family: standards.FamilyIEC, NumberBody: "61000-3-2"})

	all := reg.All()
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "a", all[1].ID)
	assert.Equal(t, "b", all[2].ID)
}

func TestRemove(t *testing.T) {
	reg, _ := newTestRegistry(t)

	id := reg.Add(enRecord())
	assert.True(t, reg.Remove(id))
	assert.Equal(t, 0, reg.Len())
	assert.False(t, reg.Remove(id))

	_, ok := reg.Get(id)
	assert.False(t, ok)
}

func TestApplyUpdateAllowList(t *testing.T) {
	reg, _ := newTestRegistry(t)
	id := reg.Add(enRecord())

	status := standards.StatusSuperseded
	directive := "RED 2014/53/EU"
	notes := "replaced by -17:2022"
	info := &standards.RemoteInfo{Status: "Success", TotalVersions: 2}

	ok := reg.ApplyUpdate(id, Update{
		Status:     &status,
		Directive:  &directive,
		Notes:      &notes,
		RemoteInfo: info,
	})
	require.True(t, ok)

	rec, _ := reg.Get(id)
	assert.Equal(t, standards.StatusSuperseded, rec.Status)
	require.NotNil(t, rec.Directive)
	assert.Equal(t, "RED 2014/53/EU", *rec.Directive)
	assert.Equal(t, "replaced by -17:2022", rec.Notes)
	require.NotNil(t, rec.RemoteInfo)
	assert.Equal(t, 2, rec.RemoteInfo.TotalVersions)

	// Untouched fields keep their values.
	assert.Equal(t, "EN 301 489-17:2017", rec.Number)
}

func TestApplyUpdateNilFieldsUntouched(t *testing.T) {
	reg, _ := newTestRegistry(t)
	id := reg.Add(enRecord())

	notes := "note only"
	reg.ApplyUpdate(id, Update{Notes: &notes})

	rec, _ := reg.Get(id)
	assert.Equal(t, standards.StatusActive, rec.Status)
	assert.Equal(t, "note only", rec.Notes)
}

func TestApplyUpdateUnknownID(t *testing.T) {
	reg, _ := newTestRegistry(t)
	assert.False(t, reg.ApplyUpdate("missing", Update{}))
}

func TestSearch(t *testing.T) {
	reg, _ := newTestRegistry(t)
	reg.Add(enRecord())
	reg.Add(standards.Record{
		ID:     "IEC_62368-1_2014",
		Number: "IEC 62368-1:2014",
		Family: standards.FamilyIEC,
		Status: standards.StatusWithdrawn,
	})

	// Substring, case-insensitive.
	results := reg.Search(map[string]any{"number": "489"})
	require.Len(t, results, 1)
	assert.Equal(t, standards.FamilyEN, results[0].Family)

	results = reg.Search(map[string]any{"status": "withdrawn"})
	require.Len(t, results, 1)
	assert.Equal(t, standards.FamilyIEC, results[0].Family)

	// Multiple criteria are ANDed.
	results = reg.Search(map[string]any{"number": "62368", "status": "active"})
	assert.Empty(t, results)

	// Unknown fields are ignored rather than excluding everything.
	results = reg.Search(map[string]any{"bogus_field": "x"})
	assert.Len(t, results, 2)
}

func TestStats(t *testing.T) {
	reg, _ := newTestRegistry(t)
	reg.Add(enRecord())
	reg.Add(standards.Record{
		ID:         "IEC_62368-1_2014",
		Number:     "IEC 62368-1:2014",
		Family:     standards.FamilyIEC,
		Year:       strPtr("2014"),
		Status:     standards.StatusWithdrawn,
		Source:     standards.SourcePDF,
		RemoteInfo: &standards.RemoteInfo{Status: "Success"},
	})
	reg.Add(standards.Record{
		ID:     "ISO_9001_null",
		Number: "ISO 9001",
		Family: standards.FamilyISO,
	})

	stats := reg.Stats()
	assert.Equal(t, 3, stats.TotalCount)
	assert.Equal(t, 1, stats.ByFamily["EN"])
	assert.Equal(t, 1, stats.ByFamily["IEC"])
	assert.Equal(t, 1, stats.ByFamily["ISO"])
	assert.Equal(t, 1, stats.ByStatus["Active"])
	assert.Equal(t, 1, stats.ByStatus["Withdrawn"])
	assert.Equal(t, 1, stats.ByStatus["Unknown"])
	assert.Equal(t, 2, stats.BySource["PDF"])
	assert.Equal(t, 1, stats.BySource["Manual"])
	assert.Equal(t, 1, stats.WithRemoteInfo)
	assert.Equal(t, 2, stats.WithVersion)
}

func TestLoadSkipsDuplicateIDs(t *testing.T) {
	store := &memStore{records: []standards.Record{
		{ID: "dup", Number: "EN 1"},
		{ID: "dup", Number: "EN 1 again"},
		{ID: "other", Number: "EN 2"},
	}}

	reg, err := New(store)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	rec, _ := reg.Get("dup")
	assert.Equal(t, "EN 1", rec.Number)
}

func TestJSONStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	store := NewJSONStore(path, nil)

	reg, err := New(store)
	require.NoError(t, err)
	reg.Add(enRecord())
	require.NoError(t, reg.Save())

	reloaded, err := New(NewJSONStore(path, nil))
	require.NoError(t, err)
	require.Equal(t, 1, reloaded.Len())

	rec, ok := reloaded.Get("EN_301 489-17_2017")
	require.True(t, ok)
	assert.Equal(t, "EN 301 489-17:2017", rec.Number)
	require.NotNil(t, rec.Year)
	assert.Equal(t, "2017", *rec.Year)
}

func TestJSONStoreMissingFile(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "absent.json"), nil)
	records, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestJSONStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	writeFile(t, path, "{not json")

	records, err := NewJSONStore(path, nil).Load()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestJSONStoreLegacyFieldNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	writeFile(t, path, `[
  {
    "id": "EN_301 489-17_2017",
    "number": "EN 301 489-17:2017",
    "type": "EN",
    "number_part": "301 489-17",
    "version": "2017",
    "status": "Active",
    "directive": null,
    "extracted_at": "2025-03-10T09:00:00",
    "source": "PDF",
    "etsi_info": null,
    "last_updated": "2025-03-10T09:00:00",
    "notes": ""
  }
]`)

	records, err := NewJSONStore(path, nil).Load()
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, standards.FamilyEN, rec.Family)
	assert.Equal(t, "301 489-17", rec.NumberBody)
	require.NotNil(t, rec.Year)
	assert.Equal(t, "2017", *rec.Year)
	assert.Nil(t, rec.Directive)
	assert.Nil(t, rec.RemoteInfo)
}
