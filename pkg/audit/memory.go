package audit

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
)

// MemoryStore implements Store in memory. It is meant for tests and for
// embedding the recorder without a database; the tailsim command always uses
// SQLiteStore.
type MemoryStore struct {
	records map[string]*Record
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
	}
}

// Store persists a copy of the record.
func (s *MemoryStore) Store(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.ID] = copyRecord(record)
	return nil
}

// Query retrieves copies of the records matching the filters.
func (s *MemoryStore) Query(ctx context.Context, query *Query) ([]*Record, error) {
	if query == nil {
		query = &Query{}
	}

	s.mu.RLock()
	results := []*Record{}
	for _, record := range s.records {
		if matchesQuery(record, query) {
			results = append(results, copyRecord(record))
		}
	}
	s.mu.RUnlock()

	asc := strings.EqualFold(query.SortOrder, "asc")
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if !a.EvaluatedAt.Equal(b.EvaluatedAt) {
			if asc {
				return a.EvaluatedAt.Before(b.EvaluatedAt)
			}
			return a.EvaluatedAt.After(b.EvaluatedAt)
		}
		if asc {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})

	if query.Offset >= len(results) {
		return []*Record{}, nil
	}
	results = results[query.Offset:]

	limit := DefaultQueryLimit
	if query.Limit > 0 {
		limit = query.Limit
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Count returns the number of records matching the filters.
func (s *MemoryStore) Count(ctx context.Context, query *Query) (int64, error) {
	if query == nil {
		query = &Query{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.records {
		if matchesQuery(record, query) {
			count++
		}
	}
	return count, nil
}

// Delete removes records matching the filters.
func (s *MemoryStore) Delete(ctx context.Context, query *Query) (int64, error) {
	if query == nil {
		query = &Query{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, record := range s.records {
		if matchesQuery(record, query) {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

func matchesQuery(record *Record, query *Query) bool {
	if query.StartTime != nil && record.EvaluatedAt.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && record.EvaluatedAt.After(*query.EndTime) {
		return false
	}
	if len(query.IDs) > 0 && !slices.Contains(query.IDs, record.ID) {
		return false
	}
	if query.RunID != "" && record.RunID != query.RunID {
		return false
	}
	if query.TraceID != "" && record.TraceID != query.TraceID {
		return false
	}
	if query.FinalDecision != "" && record.FinalDecision != query.FinalDecision {
		return false
	}
	if query.Policy != "" && !slices.Contains(record.EvaluatedPolicies, query.Policy) {
		return false
	}
	if query.ErrorsOnly && !record.HasErrors() {
		return false
	}
	return true
}

func copyRecord(record *Record) *Record {
	c := *record
	if record.PolicyDecisions != nil {
		c.PolicyDecisions = make(map[string]string, len(record.PolicyDecisions))
		for k, v := range record.PolicyDecisions {
			c.PolicyDecisions[k] = v
		}
	}
	c.EvaluatedPolicies = slices.Clone(record.EvaluatedPolicies)
	if record.Errors != nil {
		c.Errors = make(map[string]string, len(record.Errors))
		for k, v := range record.Errors {
			c.Errors[k] = v
		}
	}
	return &c
}
