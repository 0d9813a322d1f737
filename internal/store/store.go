// Package store holds the in-memory session record list. Records live
// for the lifetime of the process; durability comes from the persist
// package writing the full list after each change.
package store

import (
	"sync"
	"time"

	"github.com/jackzampolin/intake/internal/patient"
)

// Store is the session store for extracted patient records. IDs are
// assigned monotonically starting at 1 and never reused within a
// session.
type Store struct {
	mu      sync.RWMutex
	records []patient.Record
	lastID  int
}

// New creates an empty session store.
func New() *Store {
	return &Store{}
}

// Append adds a record for the given input and extraction result,
// assigning the next sequential ID. The stored copy is independent of
// the caller's info value.
func (s *Store) Append(patientText string, info patient.Info) patient.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	rec := patient.Record{
		ID:            s.lastID,
		PatientText:   patientText,
		ExtractedInfo: info.Clone(),
		CreatedAt:     time.Now().UTC(),
	}
	s.records = append(s.records, rec)
	return rec.Clone()
}

// All returns records in insertion order (oldest first). The returned
// slice and its records are copies.
func (s *Store) All() []patient.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]patient.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	return out
}

// Recent returns records newest first.
func (s *Store) Recent() []patient.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]patient.Record, 0, len(s.records))
	for i := len(s.records) - 1; i >= 0; i-- {
		out = append(out, s.records[i].Clone())
	}
	return out
}

// Get returns the record with the given ID.
func (s *Store) Get(id int) (patient.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.records {
		if s.records[i].ID == id {
			return s.records[i].Clone(), true
		}
	}
	return patient.Record{}, false
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// LastID returns the most recently assigned ID, 0 if none.
func (s *Store) LastID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastID
}
