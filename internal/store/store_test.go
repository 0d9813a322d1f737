package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/jackzampolin/intake/internal/patient"
)

func strPtr(s string) *string { return &s }

func testInfo(symptom string) patient.Info {
	return patient.Info{
		PrimarySymptom:     strPtr(symptom),
		AssociatedSymptoms: []string{},
		MedicalHistory:     []string{},
	}
}

func TestStore(t *testing.T) {
	t.Run("ids increment from one", func(t *testing.T) {
		s := New()

		first := s.Append("first complaint", testInfo("headache"))
		second := s.Append("second complaint", testInfo("cough"))

		if first.ID != 1 {
			t.Errorf("first ID = %d, want 1", first.ID)
		}
		if second.ID != 2 {
			t.Errorf("second ID = %d, want 2", second.ID)
		}
		if s.LastID() != 2 {
			t.Errorf("LastID() = %d, want 2", s.LastID())
		}
		if first.CreatedAt.IsZero() {
			t.Error("expected CreatedAt set")
		}
	})

	t.Run("empty store", func(t *testing.T) {
		s := New()
		if s.Len() != 0 {
			t.Errorf("Len() = %d, want 0", s.Len())
		}
		if s.LastID() != 0 {
			t.Errorf("LastID() = %d, want 0", s.LastID())
		}
		if len(s.All()) != 0 {
			t.Errorf("All() = %v, want empty", s.All())
		}
	})

	t.Run("all returns insertion order", func(t *testing.T) {
		s := New()
		s.Append("a", testInfo("headache"))
		s.Append("b", testInfo("cough"))
		s.Append("c", testInfo("fever"))

		records := s.All()
		if len(records) != 3 {
			t.Fatalf("All() returned %d records, want 3", len(records))
		}
		for i, rec := range records {
			if rec.ID != i+1 {
				t.Errorf("records[%d].ID = %d, want %d", i, rec.ID, i+1)
			}
		}
	})

	t.Run("recent returns newest first", func(t *testing.T) {
		s := New()
		s.Append("a", testInfo("headache"))
		s.Append("b", testInfo("cough"))

		records := s.Recent()
		if len(records) != 2 {
			t.Fatalf("Recent() returned %d records, want 2", len(records))
		}
		if records[0].ID != 2 || records[1].ID != 1 {
			t.Errorf("unexpected order: %d, %d", records[0].ID, records[1].ID)
		}
	})

	t.Run("get by id", func(t *testing.T) {
		s := New()
		s.Append("a", testInfo("headache"))

		rec, ok := s.Get(1)
		if !ok {
			t.Fatal("Get(1) not found")
		}
		if rec.PatientText != "a" {
			t.Errorf("PatientText = %q, want a", rec.PatientText)
		}
		if _, ok := s.Get(42); ok {
			t.Error("Get(42) should not be found")
		}
	})

	t.Run("stored records are isolated from caller", func(t *testing.T) {
		s := New()
		info := patient.Info{
			PrimarySymptom:     strPtr("headache"),
			AssociatedSymptoms: []string{"nausea"},
			MedicalHistory:     []string{},
		}
		s.Append("a", info)

		// Mutating the caller's value must not affect the stored record.
		*info.PrimarySymptom = "changed"
		info.AssociatedSymptoms[0] = "changed"

		rec, _ := s.Get(1)
		if *rec.ExtractedInfo.PrimarySymptom != "headache" {
			t.Errorf("PrimarySymptom = %q, want headache", *rec.ExtractedInfo.PrimarySymptom)
		}
		if rec.ExtractedInfo.AssociatedSymptoms[0] != "nausea" {
			t.Errorf("AssociatedSymptoms[0] = %q, want nausea", rec.ExtractedInfo.AssociatedSymptoms[0])
		}

		// Mutating a returned record must not affect the store either.
		all := s.All()
		*all[0].ExtractedInfo.PrimarySymptom = "changed"
		rec, _ = s.Get(1)
		if *rec.ExtractedInfo.PrimarySymptom != "headache" {
			t.Errorf("store mutated through All(): %q", *rec.ExtractedInfo.PrimarySymptom)
		}
	})

	t.Run("concurrent appends", func(t *testing.T) {
		s := New()
		var wg sync.WaitGroup
		const n = 50

		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				s.Append(fmt.Sprintf("complaint %d", i), testInfo("headache"))
			}(i)
		}
		wg.Wait()

		if s.Len() != n {
			t.Fatalf("Len() = %d, want %d", s.Len(), n)
		}

		// Every ID from 1..n must appear exactly once.
		seen := make(map[int]bool, n)
		for _, rec := range s.All() {
			if seen[rec.ID] {
				t.Errorf("duplicate ID %d", rec.ID)
			}
			seen[rec.ID] = true
		}
		for id := 1; id <= n; id++ {
			if !seen[id] {
				t.Errorf("missing ID %d", id)
			}
		}
	})
}
