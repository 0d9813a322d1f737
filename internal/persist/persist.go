// Package persist writes the session's patient records to a single JSON
// file. Every write replaces the whole file so the file always mirrors
// the in-memory store. The download endpoint serves the same bytes the
// writer produces.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/jackzampolin/intake/internal/patient"
)

// DataFileName is the canonical name of the persisted records file.
const DataFileName = "all_patients_data.json"

// WriteError reports a failed file write. The in-memory records are
// unaffected; callers keep serving them and surface the failure.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to persist records to %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// IsWriteError checks if an error is a WriteError.
func IsWriteError(err error) (*WriteError, bool) {
	var we *WriteError
	if errors.As(err, &we) {
		return we, true
	}
	return nil, false
}

// persistedRecord pins the on-disk element shape: exactly id,
// patient_text, and extracted_info, in that order.
type persistedRecord struct {
	ID            int          `json:"id"`
	PatientText   string       `json:"patient_text"`
	ExtractedInfo patient.Info `json:"extracted_info"`
}

// Marshal renders records in the persisted file format: a JSON array
// with two-space indentation. Output is deterministic for a given
// record list.
func Marshal(records []patient.Record) ([]byte, error) {
	out := make([]persistedRecord, 0, len(records))
	for _, rec := range records {
		info := rec.ExtractedInfo.Clone()
		info.Normalize()
		out = append(out, persistedRecord{
			ID:            rec.ID,
			PatientText:   rec.PatientText,
			ExtractedInfo: info,
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

// Writer persists the full record list to a JSON file.
type Writer struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// NewWriter creates a writer targeting path.
func NewWriter(path string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{path: path, logger: logger}
}

// Path returns the target file path.
func (w *Writer) Path() string {
	return w.path
}

// Write replaces the data file with the given records. The file is
// written to a temp path and renamed so readers never see a partial
// write.
func (w *Writer) Write(records []patient.Record) error {
	data, err := Marshal(records)
	if err != nil {
		return &WriteError{Path: w.path, Err: err}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return &WriteError{Path: w.path, Err: err}
	}
	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &WriteError{Path: w.path, Err: err}
	}
	if err := os.Rename(tmp, w.path); err != nil {
		return &WriteError{Path: w.path, Err: err}
	}

	w.logger.Debug("persisted patient records",
		"path", w.path,
		"count", len(records),
		"bytes", len(data))
	return nil
}

// Load reads records back from a data file. A missing file returns an
// empty list. Loaded records carry no created_at; the file format does
// not store it.
func Load(path string) ([]patient.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []patient.Record{}, nil
		}
		return nil, fmt.Errorf("failed to read records from %s: %w", path, err)
	}

	var persisted []persistedRecord
	if err := json.Unmarshal(data, &persisted); err != nil {
		return nil, fmt.Errorf("failed to parse records from %s: %w", path, err)
	}

	records := make([]patient.Record, 0, len(persisted))
	for _, p := range persisted {
		info := p.ExtractedInfo
		info.Normalize()
		records = append(records, patient.Record{
			ID:            p.ID,
			PatientText:   p.PatientText,
			ExtractedInfo: info,
		})
	}
	return records, nil
}
