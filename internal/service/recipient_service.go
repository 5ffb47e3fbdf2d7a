package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"taskpulse/pkg/logger"
	filestore "taskpulse/pkg/store/file"
)

// MaxRecipients caps the distribution list. The report goes to a small
// team, not a mailing list.
const MaxRecipients = 10

var (
	ErrInvalidEmail   = errors.New("invalid email address")
	ErrListFull       = fmt.Errorf("recipient list is full (max %d)", MaxRecipients)
	ErrAlreadyPresent = errors.New("recipient already on the list")
)

// emailPattern requires a local part, an @, and a dotted domain. Full
// RFC 5322 parsing is overkill for an operator-maintained list.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// RecipientService maintains the persisted report distribution list.
type RecipientService struct {
	store *filestore.RecipientStore
}

func NewRecipientService(store *filestore.RecipientStore) *RecipientService {
	return &RecipientService{store: store}
}

// List returns the current distribution list. A missing list file reads
// as empty.
func (s *RecipientService) List() ([]string, error) {
	return s.store.Load()
}

// Add appends a validated address to the list and persists the result.
// Addresses are normalized to lowercase before comparison so casing
// variants never create duplicates.
func (s *RecipientService) Add(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}

	recipients, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load recipient list: %w", err)
	}
	for _, existing := range recipients {
		if existing == email {
			return fmt.Errorf("%w: %s", ErrAlreadyPresent, email)
		}
	}
	if len(recipients) >= MaxRecipients {
		return ErrListFull
	}

	recipients = append(recipients, email)
	if err := s.store.Save(recipients); err != nil {
		return fmt.Errorf("failed to persist recipient list: %w", err)
	}
	logger.Infof("recipient added: %s (%d on list)", email, len(recipients))
	return nil
}

// Remove drops an address from the list. Removing an address that is
// not on the list is a no-op: the desired end state already holds.
func (s *RecipientService) Remove(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	recipients, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load recipient list: %w", err)
	}

	kept := recipients[:0]
	found := false
	for _, existing := range recipients {
		if existing == email {
			found = true
			continue
		}
		kept = append(kept, existing)
	}
	if !found {
		logger.Warnf("recipient %s not on the list, nothing to remove", email)
		return nil
	}

	if err := s.store.Save(kept); err != nil {
		return fmt.Errorf("failed to persist recipient list: %w", err)
	}
	logger.Infof("recipient removed: %s (%d on list)", email, len(kept))
	return nil
}
