package registry

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/Tarachineno/standard-checker/internal/standards"
)

const storeDirPerm = 0o750

// Store is the persistence contract for the registry. Load must tolerate a
// missing or corrupt store by yielding an empty set, never an error; Save
// receives the full current record set.
type Store interface {
	Load() ([]standards.Record, error)
	Save(records []standards.Record) error
}

// JSONStore persists records as a JSON array of plain field mappings, the
// registry document format of earlier releases.
type JSONStore struct {
	path   string
	logger *log.Logger
}

// NewJSONStore creates a JSON file store at the given path.
func NewJSONStore(path string, logger *log.Logger) *JSONStore {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &JSONStore{path: path, logger: logger}
}

// Load reads the stored record set. A missing, empty, or unparseable file is
// treated as an empty store.
func (s *JSONStore) Load() ([]standards.Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Printf("registry store unreadable, starting empty: %v", err)
		}
		return nil, nil
	}
	if len(data) == 0 {
		return nil, nil
	}

	var records []standards.Record
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Printf("registry store corrupt, starting empty: %v", err)
		return nil, nil
	}
	return records, nil
}

// Save writes the full record set, creating parent directories as needed.
func (s *JSONStore) Save(records []standards.Record) error {
	if err := os.MkdirAll(filepath.Dir(s.path), storeDirPerm); err != nil {
		return fmt.Errorf("cannot create registry directory: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot serialize registry: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write registry %s: %w", s.path, err)
	}
	s.logger.Printf("registry saved: %s (%d record(s))", s.path, len(records))
	return nil
}
