package registry

import (
	"io"
	"log"
	"strings"
	"sync"

	"github.com/Tarachineno/standard-checker/internal/filter"
	"github.com/Tarachineno/standard-checker/internal/standards"
	"github.com/google/uuid"
)

// Registry holds the deduplicated standard records and resolves incoming
// candidates against already-stored entries. It assumes a single writer; one
// mutex guards in-process access, cross-process locking is out of scope.
type Registry struct {
	mu             sync.Mutex
	store          Store
	records        map[string]*standards.Record
	order          []string
	compatYearKeys bool
	logger         *log.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithCompatYearKeys restores the legacy identity comparison where a missing
// year reads as the text "None". Registries written by the original
// implementation stored both shapes; strict typed comparison is the default
// for new stores.
func WithCompatYearKeys() Option {
	return func(r *Registry) {
		r.compatYearKeys = true
	}
}

// New creates a registry backed by the given store and loads its contents.
// A missing or corrupt store yields an empty registry, never an error.
func New(store Store, opts ...Option) (*Registry, error) {
	r := &Registry{
		store:   store,
		records: make(map[string]*standards.Record),
		logger:  log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(r)
	}

	loaded, err := store.Load()
	if err != nil {
		return nil, err
	}
	for i := range loaded {
		rec := loaded[i]
		r.applyDefaults(&rec)
		if _, dup := r.records[rec.ID]; dup {
			continue
		}
		r.records[rec.ID] = &rec
		r.order = append(r.order, rec.ID)
	}
	r.logger.Printf("registry loaded %d standard(s)", len(r.order))
	return r, nil
}

// applyDefaults fills the fields a directly constructed record may omit.
func (r *Registry) applyDefaults(rec *standards.Record) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = standards.StatusUnknown
	}
	if rec.Source == "" {
		rec.Source = standards.SourceManual
	}
	if rec.ExtractedAt == "" {
		rec.ExtractedAt = standards.Now()
	}
	if rec.LastUpdated == "" {
		rec.LastUpdated = standards.Now()
	}
}

// Add merges a candidate into the registry and returns the id it resolved
// to. A candidate matching an existing entry only refreshes that entry's
// LastUpdated timestamp; no other field is overwritten, so manual edits
// survive re-ingestion. A non-matching candidate is inserted as-is.
func (r *Registry) Add(rec standards.Record) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.add(rec)
}

func (r *Registry) add(rec standards.Record) string {
	if existingID := r.findExisting(rec); existingID != "" {
		r.records[existingID].LastUpdated = standards.Now()
		r.logger.Printf("refreshed existing standard: %s", rec.Number)
		return existingID
	}

	r.applyDefaults(&rec)
	r.records[rec.ID] = &rec
	r.order = append(r.order, rec.ID)
	r.logger.Printf("added new standard: %s", rec.Number)
	return rec.ID
}

// findExisting resolves identity: exact display-number match, or equal
// (family, number body, year) triple.
func (r *Registry) findExisting(rec standards.Record) string {
	for _, id := range r.order {
		entry := r.records[id]
		if entry.Number != "" && entry.Number == rec.Number {
			return id
		}
		if entry.Family == rec.Family &&
			entry.NumberBody == rec.NumberBody &&
			r.yearsEqual(entry.Year, rec.Year) {
			return id
		}
	}
	return ""
}

func (r *Registry) yearsEqual(a, b *string) bool {
	if r.compatYearKeys {
		return yearText(a) == yearText(b)
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func yearText(y *string) string {
	if y == nil {
		return "None"
	}
	return *y
}

// BulkAdd merges a batch of candidates and persists the registry once.
func (r *Registry) BulkAdd(records []standards.Record) ([]string, error) {
	r.mu.Lock()
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, r.add(rec))
	}
	r.mu.Unlock()

	if err := r.Save(); err != nil {
		return ids, err
	}
	r.logger.Printf("bulk added %d standard(s)", len(ids))
	return ids, nil
}

// Get returns the record with the given id.
func (r *Registry) Get(id string) (standards.Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return standards.Record{}, false
	}
	return *rec, true
}

// All returns every record in insertion order.
func (r *Registry) All() []standards.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]standards.Record, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.records[id])
	}
	return out
}

// Len returns the number of stored records.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Remove deletes a record by id.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return false
	}
	delete(r.records, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.logger.Printf("removed standard: %s", id)
	return true
}

// Update is the set of fields a stored record may be mutated through. Nil
// fields are left untouched.
type Update struct {
	Status     *string
	Directive  *string
	Notes      *string
	RemoteInfo *standards.RemoteInfo
}

// ApplyUpdate mutates a stored record through the allow-listed fields and
// refreshes its LastUpdated timestamp.
func (r *Registry) ApplyUpdate(id string, upd Update) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return false
	}
	if upd.Status != nil {
		rec.Status = *upd.Status
	}
	if upd.Directive != nil {
		rec.Directive = upd.Directive
	}
	if upd.Notes != nil {
		rec.Notes = *upd.Notes
	}
	if upd.RemoteInfo != nil {
		rec.RemoteInfo = upd.RemoteInfo
	}
	rec.LastUpdated = standards.Now()
	r.logger.Printf("updated standard: %s", id)
	return true
}

// Search returns records matching all criteria. String criteria match as a
// case-insensitive substring against string fields; everything else must
// compare equal in text form. Unknown field names are ignored.
func (r *Registry) Search(criteria map[string]any) []standards.Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	var results []standards.Record
	for _, id := range r.order {
		rec := *r.records[id]
		if matchesCriteria(rec, criteria) {
			results = append(results, rec)
		}
	}
	return results
}

func matchesCriteria(rec standards.Record, criteria map[string]any) bool {
	for field, want := range criteria {
		value, known := filter.FieldValue(rec, field)
		if !known {
			continue
		}
		wantStr, wantIsStr := want.(string)
		gotStr, gotIsStr := value.(string)
		if wantIsStr && gotIsStr {
			if !strings.Contains(strings.ToLower(gotStr), strings.ToLower(wantStr)) {
				return false
			}
			continue
		}
		if value != want {
			return false
		}
	}
	return true
}

// Stats summarizes the registry contents.
type Stats struct {
	TotalCount     int            `json:"total_count"`
	ByFamily       map[string]int `json:"by_type"`
	ByStatus       map[string]int `json:"by_status"`
	BySource       map[string]int `json:"by_source"`
	WithRemoteInfo int            `json:"with_etsi_info"`
	WithVersion    int            `json:"with_version"`
}

// Stats computes per-family/status/source counts and existence tallies.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := Stats{
		TotalCount: len(r.order),
		ByFamily:   make(map[string]int),
		ByStatus:   make(map[string]int),
		BySource:   make(map[string]int),
	}
	for _, id := range r.order {
		rec := r.records[id]
		stats.ByFamily[string(rec.Family)]++
		stats.ByStatus[rec.Status]++
		stats.BySource[rec.Source]++
		if rec.RemoteInfo != nil {
			stats.WithRemoteInfo++
		}
		if rec.HasYear() {
			stats.WithVersion++
		}
	}
	return stats
}

// Save persists the full record set through the store.
func (r *Registry) Save() error {
	r.mu.Lock()
	records := make([]standards.Record, 0, len(r.order))
	for _, id := range r.order {
		records = append(records, *r.records[id])
	}
	r.mu.Unlock()
	return r.store.Save(records)
}
