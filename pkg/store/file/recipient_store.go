package file

import (
	"encoding/json"
	"fmt"
	"os"
)

// RecipientStore owns the persisted recipient list. Each mutation
// rewrites the full list.
type RecipientStore struct {
	path string
}

// NewRecipientStore creates a recipient store backed by the given path.
func NewRecipientStore(path string) *RecipientStore {
	return &RecipientStore{path: path}
}

// Load reads the recipient list. A missing file is an empty list, not
// an error: no recipients is a valid steady state.
func (s *RecipientStore) Load() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read recipients file %s: %w", s.path, err)
	}

	var recipients []string
	if err := json.Unmarshal(data, &recipients); err != nil {
		return nil, fmt.Errorf("recipients file %s is not valid JSON: %w", s.path, err)
	}
	return recipients, nil
}

// Save rewrites the full recipient list.
func (s *RecipientStore) Save(recipients []string) error {
	if recipients == nil {
		recipients = []string{}
	}
	return writeBlob(s.path, recipients)
}
