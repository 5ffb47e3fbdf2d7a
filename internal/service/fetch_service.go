package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"taskpulse/internal/model"
	"taskpulse/pkg/config"
	"taskpulse/pkg/logger"
	filestore "taskpulse/pkg/store/file"
)

// FetchErrorKind tags the cause of a failed fetch so callers can
// distinguish transport failures (retryable) from upstream contract
// breaks.
type FetchErrorKind string

const (
	FetchErrorNetwork FetchErrorKind = "network"
	FetchErrorHTTP    FetchErrorKind = "http"
	FetchErrorDecode  FetchErrorKind = "decode"
)

// FetchError is a failed fetch, tagged with its cause. Status is set
// for FetchErrorHTTP only.
type FetchError struct {
	Kind   FetchErrorKind
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchErrorHTTP:
		return fmt.Sprintf("fetch failed: upstream returned status %d", e.Status)
	default:
		return fmt.Sprintf("fetch failed (%s): %v", e.Kind, e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// dateParamLayout is the date encoding of the from_date/to_date query
// parameters.
const dateParamLayout = "2006-01-02"

// FetchService pulls task-activity records from the upstream endpoint
// and persists each successful batch as the new record file.
type FetchService struct {
	endpoint    string
	httpClient  *http.Client
	recordStore *filestore.RecordStore
}

// NewFetchService creates a fetch service against the configured
// upstream endpoint.
func NewFetchService(cfg config.SourceConfig, recordStore *filestore.RecordStore) *FetchService {
	return &FetchService{
		endpoint: cfg.Endpoint,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
		recordStore: recordStore,
	}
}

// Fetch issues one GET for the [from, to] window, extracts the record
// array and fully replaces the persisted record file with it. Callers
// are responsible for from <= to. All failures come back as a
// *FetchError; nothing is persisted on failure.
func (s *FetchService) Fetch(ctx context.Context, from, to time.Time) ([]model.RawRecord, error) {
	records, err := s.fetchRemote(ctx, from, to)
	if err != nil {
		return nil, err
	}

	if err := s.recordStore.Replace(records); err != nil {
		return nil, fmt.Errorf("failed to persist fetched records: %w", err)
	}

	logger.InfoCtx(ctx, "fetched %d task records for window %s..%s",
		len(records), from.Format(dateParamLayout), to.Format(dateParamLayout))
	return records, nil
}

func (s *FetchService) fetchRemote(ctx context.Context, from, to time.Time) ([]model.RawRecord, error) {
	reqURL, err := s.buildURL(from, to)
	if err != nil {
		return nil, &FetchError{Kind: FetchErrorNetwork, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &FetchError{Kind: FetchErrorNetwork, Err: err}
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: FetchErrorNetwork, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Kind: FetchErrorNetwork, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Kind: FetchErrorHTTP, Status: resp.StatusCode}
	}

	return decodeRecords(body)
}

func (s *FetchService) buildURL(from, to time.Time) (string, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid source endpoint %q: %w", s.endpoint, err)
	}
	q := u.Query()
	q.Set("from_date", from.Format(dateParamLayout))
	q.Set("to_date", to.Format(dateParamLayout))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// decodeRecords extracts the record array from the response body. The
// upstream normally wraps records in a {"data": [...]} envelope; when
// the envelope is absent the whole payload is treated as the array.
func decodeRecords(body []byte) ([]model.RawRecord, error) {
	var envelope struct {
		Data []model.RawRecord `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Data != nil {
		return envelope.Data, nil
	}

	var records []model.RawRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, &FetchError{Kind: FetchErrorDecode, Err: err}
	}
	return records, nil
}
