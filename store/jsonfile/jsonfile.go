/*
Package jsonfile provides the durable, file-backed HistoryStore.

PURPOSE:
  Persists the quotation history as a single ordered JSON array, one
  object per record. There is deliberately no database engine: the store
  must remain a plain document a person can read, back up and move.

CRASH SAFETY:
  Every append rewrites the whole file to a temporary sibling and renames
  it into place. Either the rename happens and the new record is durable,
  or the previous file is untouched. Partial writes can never corrupt
  previously stored records.

MALFORMED ENTRIES:
  Stores accumulate damage over their lifetime (hand edits, interrupted
  older tooling). Entries that fail to decode are skipped with a recorded
  warning; the store still exposes every well-formed entry. A file that is
  not a JSON array at all is an error, because rewriting it would destroy
  whatever it was.

FORWARD COMPATIBILITY:
  Unknown fields on a record are preserved: each entry is kept as its raw
  object, known fields are overlaid on write, and everything else is
  re-written unchanged.

CONCURRENCY:
  Single process, one writer. A sync.RWMutex lets reads run concurrently
  with a pending append while observing a consistent snapshot.

SEE ALSO:
  - engine/store.go: Interface definition and append-only contract
  - engine/store/memory.go: In-memory implementation for tests
*/
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/lumen/quotation-engine/engine"
)

// Store implements engine.HistoryStore on a JSON file.
type Store struct {
	path string

	mu       sync.RWMutex
	records  []engine.QuotationRecord
	raw      []map[string]json.RawMessage // parallel to records; unknown fields live here
	order    []slot                       // file order, including damaged entries
	keys     map[engine.RecordKey]int
	warnings []engine.LoadWarning
}

// slot is one position in the persisted array: either a decoded record or
// a damaged entry carried through rewrites verbatim.
type slot struct {
	damaged json.RawMessage // non-nil: rewritten unchanged
	idx     int             // otherwise: index into records
}

// Open loads the history at path, creating an empty store when the file
// does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path, keys: make(map[engine.RecordKey]int)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", engine.ErrPersistence, path, err)
	}
	if len(data) == 0 {
		return s, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		// Not an array: rewriting would destroy the file's contents.
		return nil, fmt.Errorf("%w: %s is not a record array: %v", engine.ErrMalformedEntry, path, err)
	}

	for i, raw := range entries {
		record, fields, err := decodeEntry(raw)
		if err != nil {
			warn := engine.LoadWarning{Index: i, Err: &engine.MalformedEntryError{Index: i, Cause: err}}
			s.warnings = append(s.warnings, warn)
			s.order = append(s.order, slot{damaged: raw})
			log.Printf("jsonfile: skipping entry %d in %s: %v", i, path, err)
			continue
		}
		s.keys[record.Key()] = len(s.records)
		s.order = append(s.order, slot{idx: len(s.records)})
		s.records = append(s.records, record)
		s.raw = append(s.raw, fields)
	}
	return s, nil
}

// decodeEntry parses one persisted object into a typed record plus the
// full raw field map (for unknown-field preservation).
func decodeEntry(raw json.RawMessage) (engine.QuotationRecord, map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return engine.QuotationRecord{}, nil, err
	}
	var record engine.QuotationRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return engine.QuotationRecord{}, nil, err
	}
	if record.Number == "" {
		return engine.QuotationRecord{}, nil, errors.New("missing number")
	}
	if record.Version < 1 {
		return engine.QuotationRecord{}, nil, fmt.Errorf("invalid version %d", record.Version)
	}
	return record, fields, nil
}

// encodeEntry overlays the record's known fields onto its preserved raw
// object so unknown fields survive the rewrite.
func encodeEntry(record engine.QuotationRecord, preserved map[string]json.RawMessage) (json.RawMessage, error) {
	typed, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	if len(preserved) == 0 {
		return typed, nil
	}
	var known map[string]json.RawMessage
	if err := json.Unmarshal(typed, &known); err != nil {
		return nil, err
	}
	merged := make(map[string]json.RawMessage, len(preserved))
	for k, v := range preserved {
		merged[k] = v
	}
	for k, v := range known {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// =============================================================================
// WRITES
// =============================================================================

func (s *Store) Append(_ context.Context, r engine.QuotationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.keys[r.Key()]; exists {
		return &engine.SequenceConflictError{Number: r.Number, Version: r.Version}
	}

	s.records = append(s.records, r)
	s.raw = append(s.raw, nil)
	s.order = append(s.order, slot{idx: len(s.records) - 1})
	if err := s.flushLocked(); err != nil {
		// Atomic from the caller's view: roll the in-memory state back.
		s.records = s.records[:len(s.records)-1]
		s.raw = s.raw[:len(s.raw)-1]
		s.order = s.order[:len(s.order)-1]
		return err
	}
	s.keys[r.Key()] = len(s.records) - 1
	return nil
}

func (s *Store) MarkSuperseded(_ context.Context, number string, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.keys[engine.RecordKey{Number: number, Version: version}]
	if !ok {
		return fmt.Errorf("%w: %s v%d", engine.ErrRecordNotFound, number, version)
	}
	prev := s.records[idx].Status
	s.records[idx].Status = engine.StatusSuperseded
	if err := s.flushLocked(); err != nil {
		s.records[idx].Status = prev
		return err
	}
	return nil
}

// flushLocked rewrites the whole file: marshal every entry, write to a
// temp sibling, fsync, rename into place.
func (s *Store) flushLocked() error {
	entries := make([]json.RawMessage, 0, len(s.order))
	for _, sl := range s.order {
		if sl.damaged != nil {
			entries = append(entries, sl.damaged)
			continue
		}
		record := s.records[sl.idx]
		enc, err := encodeEntry(record, s.raw[sl.idx])
		if err != nil {
			return fmt.Errorf("%w: encode %s: %v", engine.ErrPersistence, record.Key(), err)
		}
		entries = append(entries, enc)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", engine.ErrPersistence, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", engine.ErrPersistence, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %v", engine.ErrPersistence, tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: rename %s: %v", engine.ErrPersistence, s.path, err)
	}
	return nil
}

// =============================================================================
// READS
// =============================================================================

func (s *Store) All(_ context.Context) ([]engine.QuotationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]engine.QuotationRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *Store) Find(_ context.Context, f engine.Filter) ([]engine.QuotationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []engine.QuotationRecord
	for _, r := range s.records {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) MaxSequenceForYear(_ context.Context, year int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	max := 0
	for _, r := range s.records {
		y, seq, err := engine.ParseNumber(r.Number)
		if err != nil || y != year {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	return max, nil
}

func (s *Store) MaxVersion(_ context.Context, number string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	max := 0
	for _, r := range s.records {
		if r.Number == number && r.Version > max {
			max = r.Version
		}
	}
	return max, nil
}

func (s *Store) Latest(_ context.Context, number string) (engine.QuotationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *engine.QuotationRecord
	for i := range s.records {
		r := &s.records[i]
		if r.Number == number && (latest == nil || r.Version > latest.Version) {
			latest = r
		}
	}
	if latest == nil {
		return engine.QuotationRecord{}, fmt.Errorf("%w: %s", engine.ErrRecordNotFound, number)
	}
	return *latest, nil
}

// LoadWarnings returns the malformed entries skipped when the file was
// opened. Diagnostics only; the entries themselves were left in place.
func (s *Store) LoadWarnings() []engine.LoadWarning {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]engine.LoadWarning, len(s.warnings))
	copy(out, s.warnings)
	return out
}
