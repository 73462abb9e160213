// Package terminology maps between the clinic's internal names and codes and
// the external standard codes carried in exported graphs: dental procedure
// names to CDT codes, internal allergy codes to SNOMED CT codes, and FDI
// two-digit tooth numbers to anatomical descriptions.
package terminology

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// TableSpec describes the delimited reference file backing a code map. The
// delimiter and column order differ per table, so both are explicit.
type TableSpec struct {
	Path       string
	Delimiter  rune
	KeyColumn  int
	CodeColumn int
}

// CodeMap is a bidirectional key<->code mapping loaded once per instance
// from a reference table. Instances are injected, not global, so tests can
// build isolated maps and control load timing.
//
// The first caller triggers the load; concurrent first callers share that
// single attempt. A failed load is not cached: the next caller retries.
type CodeMap struct {
	spec TableSpec
	log  zerolog.Logger

	mu     sync.Mutex
	loaded bool
	codes  map[string]string
}

// NewCodeMap creates a code map over the given reference table. Nothing is
// read until the first lookup.
func NewCodeMap(spec TableSpec, log zerolog.Logger) *CodeMap {
	return &CodeMap{
		spec:  spec,
		log:   log,
		codes: make(map[string]string),
	}
}

// Forward returns the external standard code mapped to key, or "" when the
// key is unmapped. The error is non-nil only when the backing table cannot
// be loaded.
func (m *CodeMap) Forward(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoadedLocked(); err != nil {
		return "", err
	}
	return m.codes[key], nil
}

// Reverse scans all entries and returns the first key whose mapped code
// equals code, or "" when no entry matches.
func (m *CodeMap) Reverse(code string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoadedLocked(); err != nil {
		return "", err
	}
	for key, mapped := range m.codes {
		if mapped == code {
			return key, nil
		}
	}
	return "", nil
}

// ensureLoadedLocked loads the reference table on first use. Callers hold
// m.mu, which is what serializes concurrent first callers onto one load.
func (m *CodeMap) ensureLoadedLocked() error {
	if m.loaded {
		return nil
	}

	file, err := os.Open(m.spec.Path)
	if err != nil {
		return fmt.Errorf("failed to open reference table: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = m.spec.Delimiter
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to parse reference table %s: %w", m.spec.Path, err)
	}

	widest := m.spec.KeyColumn
	if m.spec.CodeColumn > widest {
		widest = m.spec.CodeColumn
	}
	for _, record := range records {
		if len(record) <= widest {
			m.log.Warn().Str("table", m.spec.Path).Strs("record", record).Msg("Skipping short record in reference table")
			continue
		}
		m.codes[record[m.spec.KeyColumn]] = record[m.spec.CodeColumn]
	}

	m.loaded = true
	m.log.Debug().Str("table", m.spec.Path).Int("entries", len(m.codes)).Msg("Loaded terminology reference table")
	return nil
}
