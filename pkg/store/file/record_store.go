package file

import (
	"encoding/json"
	"fmt"
	"os"

	"taskpulse/internal/model"
)

// RecordStore owns the persisted raw record file, the durable handoff
// between fetch and report. The file always reflects the most recent
// successful fetch only.
type RecordStore struct {
	path string
}

// NewRecordStore creates a record store backed by the given file path.
func NewRecordStore(path string) *RecordStore {
	return &RecordStore{path: path}
}

// Path returns the backing file path.
func (s *RecordStore) Path() string {
	return s.path
}

// Replace overwrites the record file with the given batch. Never
// appends or merges.
func (s *RecordStore) Replace(records []model.RawRecord) error {
	if records == nil {
		records = []model.RawRecord{}
	}
	return writeBlob(s.path, records)
}

// Load reads the persisted batch. Both a bare JSON array and the
// upstream {"data": [...]} envelope are accepted, since early versions
// of the fetcher saved the envelope verbatim.
func (s *RecordStore) Load() ([]model.RawRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read record file %s: %w", s.path, err)
	}

	var records []model.RawRecord
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var envelope struct {
		Data []model.RawRecord `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("record file %s is not valid JSON: %w", s.path, err)
	}
	return envelope.Data, nil
}
