package callog

import (
	"sync"
	"time"
)

// DefaultStoreCapacity bounds how many calls are retained in memory.
const DefaultStoreCapacity = 1000

// Store keeps recent LLM calls in memory for querying. When capacity is
// reached the oldest calls are dropped.
type Store struct {
	mu    sync.RWMutex
	calls []Call
	max   int
}

// NewStore creates a call store retaining up to max calls.
func NewStore(max int) *Store {
	if max <= 0 {
		max = DefaultStoreCapacity
	}
	return &Store{max: max}
}

// QueryFilter specifies filters for listing LLM calls.
type QueryFilter struct {
	PromptKey string
	Provider  string
	Model     string
	After     *time.Time
	Before    *time.Time
	Success   *bool
	Limit     int
	Offset    int
}

// Add appends a call, evicting the oldest entries past capacity.
func (s *Store) Add(call *Call) {
	if call == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, *call)
	if len(s.calls) > s.max {
		s.calls = s.calls[len(s.calls)-s.max:]
	}
}

// Get retrieves a single LLM call by ID. Returns nil if not found.
func (s *Store) Get(id string) *Call {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.calls {
		if s.calls[i].ID == id {
			call := s.calls[i]
			return &call
		}
	}
	return nil
}

// List retrieves LLM calls matching the filter, newest first.
func (s *Store) List(filter QueryFilter) []Call {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]Call, 0, len(s.calls))
	for i := len(s.calls) - 1; i >= 0; i-- {
		c := s.calls[i]
		if !matches(c, filter) {
			continue
		}
		matched = append(matched, c)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []Call{}
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched
}

// Len returns the number of retained calls.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.calls)
}

// CountByPromptKey returns call counts grouped by prompt key.
func (s *Store) CountByPromptKey() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, c := range s.calls {
		counts[c.PromptKey]++
	}
	return counts
}

// Totals aggregates token usage across retained calls.
func (s *Store) Totals() (inputTokens, outputTokens int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.calls {
		inputTokens += c.InputTokens
		outputTokens += c.OutputTokens
	}
	return inputTokens, outputTokens
}

func matches(c Call, filter QueryFilter) bool {
	if filter.PromptKey != "" && c.PromptKey != filter.PromptKey {
		return false
	}
	if filter.Provider != "" && c.Provider != filter.Provider {
		return false
	}
	if filter.Model != "" && c.Model != filter.Model {
		return false
	}
	if filter.Success != nil && c.Success != *filter.Success {
		return false
	}
	if filter.After != nil && !c.Timestamp.After(*filter.After) {
		return false
	}
	if filter.Before != nil && !c.Timestamp.Before(*filter.Before) {
		return false
	}
	return true
}
