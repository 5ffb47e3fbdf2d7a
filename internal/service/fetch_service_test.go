package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"taskpulse/pkg/config"
	filestore "taskpulse/pkg/store/file"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetchService(t *testing.T, endpoint string) (*FetchService, *filestore.RecordStore) {
	t.Helper()
	store := filestore.NewRecordStore(filepath.Join(t.TempDir(), "task_data.json"))
	svc := NewFetchService(config.SourceConfig{Endpoint: endpoint, TimeoutSeconds: 2}, store)
	return svc, store
}

func fetchWindow() (time.Time, time.Time) {
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	return to.AddDate(0, 0, -1), to
}

func TestFetch_EnvelopePayload(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"from_date": r.URL.Query().Get("from_date"),
			"to_date":   r.URL.Query().Get("to_date"),
		}
		w.Write([]byte(`{"data": [{"activity_status": "Completed", "time_spent": "1:30"}, {"activity_status": "Pending", "time_spent": "0:45"}]}`))
	}))
	defer server.Close()

	svc, store := newTestFetchService(t, server.URL)
	from, to := fetchWindow()

	records, err := svc.Fetch(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2024-01-30", gotQuery["from_date"])
	assert.Equal(t, "2024-01-31", gotQuery["to_date"])

	// side effect: the record file holds the fetched batch
	persisted, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, persisted, 2)
}

func TestFetch_BareArrayFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": "1"}, {"id": "2"}, {"id": "3"}]`))
	}))
	defer server.Close()

	svc, _ := newTestFetchService(t, server.URL)
	from, to := fetchWindow()

	records, err := svc.Fetch(context.Background(), from, to)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestFetch_HTTPErrorKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	svc, store := newTestFetchService(t, server.URL)
	from, to := fetchWindow()

	_, err := svc.Fetch(context.Background(), from, to)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, FetchErrorHTTP, fetchErr.Kind)
	assert.Equal(t, http.StatusBadGateway, fetchErr.Status)

	// nothing persisted on failure
	_, err = store.Load()
	assert.Error(t, err)
}

func TestFetch_DecodeErrorKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": not-json`))
	}))
	defer server.Close()

	svc, _ := newTestFetchService(t, server.URL)
	from, to := fetchWindow()

	_, err := svc.Fetch(context.Background(), from, to)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, FetchErrorDecode, fetchErr.Kind)
}

func TestFetch_NetworkErrorKind(t *testing.T) {
	// closed server to force a connection failure
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	svc, _ := newTestFetchService(t, endpoint)
	from, to := fetchWindow()

	_, err := svc.Fetch(context.Background(), from, to)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, FetchErrorNetwork, fetchErr.Kind)
}

func TestFetch_SecondFetchReplacesRecordFile(t *testing.T) {
	payloads := []string{
		`{"data": [{"id": "1"}, {"id": "2"}]}`,
		`{"data": [{"id": "3"}]}`,
	}
	call := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payloads[call]))
		call++
	}))
	defer server.Close()

	svc, store := newTestFetchService(t, server.URL)
	from, to := fetchWindow()

	_, err := svc.Fetch(context.Background(), from, to)
	require.NoError(t, err)
	_, err = svc.Fetch(context.Background(), from, to)
	require.NoError(t, err)

	persisted, err := store.Load()
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, "3", persisted[0]["id"])
}

func TestFetchError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &FetchError{Kind: FetchErrorNetwork, Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "network")

	httpErr := &FetchError{Kind: FetchErrorHTTP, Status: 503}
	assert.Contains(t, httpErr.Error(), "503")
}
