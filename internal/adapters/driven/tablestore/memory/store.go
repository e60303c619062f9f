// Package memory provides an in-memory table store for tests and
// ephemeral setups. Data does not survive process restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/sift-labs/tableqa/internal/core/domain"
	"github.com/sift-labs/tableqa/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.TableStore = (*Store)(nil)

// Store is an in-memory table store. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	records []domain.TableRecord
}

// NewStore creates an empty in-memory table store.
func NewStore() *Store {
	return &Store{}
}

// InsertTables appends the records in order.
func (s *Store) InsertTables(_ context.Context, records []domain.TableRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return len(records), nil
}

// FindTables returns up to limit records matching the filter, in insertion
// order.
func (s *Store) FindTables(_ context.Context, filter domain.TableFilter, limit int) ([]domain.TableRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []domain.TableRecord
	for _, record := range s.records {
		if filter.SourceFilename != "" && record.SourceFilename != filter.SourceFilename {
			continue
		}
		matched = append(matched, record)
		if limit > 0 && len(matched) == limit {
			break
		}
	}
	return matched, nil
}

// DeleteTables removes records matching the filter.
func (s *Store) DeleteTables(_ context.Context, filter domain.TableFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []domain.TableRecord
	var removed int64
	for _, record := range s.records {
		if filter.SourceFilename == "" || record.SourceFilename == filter.SourceFilename {
			removed++
			continue
		}
		kept = append(kept, record)
	}
	s.records = kept
	return removed, nil
}

// SourceFilenames returns the distinct stored source filenames, sorted.
func (s *Store) SourceFilenames(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{}, len(s.records))
	var names []string
	for _, record := range s.records {
		if _, ok := seen[record.SourceFilename]; ok {
			continue
		}
		seen[record.SourceFilename] = struct{}{}
		names = append(names, record.SourceFilename)
	}
	sort.Strings(names)
	return names, nil
}

// Count returns the number of stored records.
func (s *Store) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
