package file

import (
	"encoding/json"
	"fmt"
	"os"

	"taskpulse/internal/model"
)

// ScheduleStore owns the persisted daily trigger. Saves overwrite the
// blob wholesale; there is no partial update.
type ScheduleStore struct {
	path string
}

// NewScheduleStore creates a schedule store backed by the given path.
func NewScheduleStore(path string) *ScheduleStore {
	return &ScheduleStore{path: path}
}

// Load reads the trigger, falling back to the 18:00 default when the
// file is missing or holds an invalid time.
func (s *ScheduleStore) Load() (model.ScheduleConfig, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.DefaultSchedule(), nil
		}
		return model.ScheduleConfig{}, fmt.Errorf("failed to read schedule file %s: %w", s.path, err)
	}

	var cfg model.ScheduleConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return model.ScheduleConfig{}, fmt.Errorf("schedule file %s is not valid JSON: %w", s.path, err)
	}
	if !cfg.Valid() {
		return model.DefaultSchedule(), nil
	}
	return cfg, nil
}

// Save overwrites the trigger.
func (s *ScheduleStore) Save(cfg model.ScheduleConfig) error {
	if !cfg.Valid() {
		return fmt.Errorf("invalid schedule time %02d:%02d", cfg.Hour, cfg.Minute)
	}
	return writeBlob(s.path, cfg)
}
