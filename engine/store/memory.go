// Package store provides HistoryStore implementations.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/lumen/quotation-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	records []engine.QuotationRecord
	keys    map[engine.RecordKey]int // key -> index in records
}

func NewMemory() *Memory {
	return &Memory{keys: make(map[engine.RecordKey]int)}
}

// Append adds a record. Content is append-only; duplicates are rejected.
func (m *Memory) Append(_ context.Context, r engine.QuotationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.keys[r.Key()]; exists {
		return &engine.SequenceConflictError{Number: r.Number, Version: r.Version}
	}
	m.keys[r.Key()] = len(m.records)
	m.records = append(m.records, r)
	return nil
}

func (m *Memory) All(_ context.Context) ([]engine.QuotationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]engine.QuotationRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *Memory) Find(_ context.Context, f engine.Filter) ([]engine.QuotationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []engine.QuotationRecord
	for _, r := range m.records {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) MaxSequenceForYear(_ context.Context, year int) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	max := 0
	for _, r := range m.records {
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

func (m *Memory) MaxVersion(_ context.Context, number string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	max := 0
	for _, r := range m.records {
		if r.Number == number && r.Version > max {
			max = r.Version
		}
	}
	return max, nil
}

func (m *Memory) Latest(_ context.Context, number string) (engine.QuotationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *engine.QuotationRecord
	for i := range m.records {
		r := &m.records[i]
		if r.Number == number && (latest == nil || r.Version > latest.Version) {
			latest = r
		}
	}
	if latest == nil {
		return engine.QuotationRecord{}, fmt.Errorf("%w: %s", engine.ErrRecordNotFound, number)
	}
	return *latest, nil
}

func (m *Memory) MarkSuperseded(_ context.Context, number string, version int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.keys[engine.RecordKey{Number: number, Version: version}]
	if !ok {
		return fmt.Errorf("%w: %s v%d", engine.ErrRecordNotFound, number, version)
	}
	m.records[idx].Status = engine.StatusSuperseded
	return nil
}

func (m *Memory) LoadWarnings() []engine.LoadWarning { return nil }
