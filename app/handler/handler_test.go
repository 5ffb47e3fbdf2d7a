package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"taskpulse/app/middleware"
	"taskpulse/internal/model"
	"taskpulse/internal/scheduler"
	"taskpulse/internal/service"
	"taskpulse/pkg/config"
	filestore "taskpulse/pkg/store/file"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMailSender struct {
	err   error
	calls int
	to    []string
}

func (s *stubMailSender) Send(_ context.Context, recipients []string, _, _, _, _ string) error {
	s.calls++
	s.to = recipients
	return s.err
}

type testEnv struct {
	engine         *gin.Engine
	recordStore    *filestore.RecordStore
	recipientStore *filestore.RecipientStore
	sender         *stubMailSender
}

func newTestEnv(t *testing.T, upstream string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()

	recordStore := filestore.NewRecordStore(filepath.Join(dir, "task_data.json"))
	recipientStore := filestore.NewRecipientStore(filepath.Join(dir, "recipients.json"))
	scheduleStore := filestore.NewScheduleStore(filepath.Join(dir, "email_time.json"))

	fetchService := service.NewFetchService(config.SourceConfig{Endpoint: upstream, TimeoutSeconds: 2}, recordStore)
	recordService := service.NewRecordService(recordStore)
	reportService := service.NewReportService(config.ReportConfig{OutputDir: filepath.Join(dir, "reports")})
	recipientService := service.NewRecipientService(recipientStore)
	sender := &stubMailSender{}

	registry := scheduler.NewRegistry(fetchService, reportService, recipientService, sender)

	engine := gin.New()
	engine.Use(middleware.Recovery())

	api := engine.Group("/api/v1")
	recordHandler := NewRecordHandler(recordService)
	api.GET("/records", recordHandler.List)
	api.GET("/records/summary", recordHandler.Summary)
	api.GET("/records/breakdown", recordHandler.Breakdown)
	api.GET("/records/export", recordHandler.Export)
	api.POST("/report/send", NewReportHandler(fetchService, reportService, recipientService, sender).Send)
	scheduleHandler := NewScheduleHandler(scheduleStore, registry)
	api.GET("/schedule", scheduleHandler.Get)
	api.PUT("/schedule", scheduleHandler.Put)
	recipientHandler := NewRecipientHandler(recipientService)
	api.GET("/recipients", recipientHandler.List)
	api.POST("/recipients", recipientHandler.Add)
	api.DELETE("/recipients/:email", recipientHandler.Remove)

	return &testEnv{
		engine:         engine,
		recordStore:    recordStore,
		recipientStore: recipientStore,
		sender:         sender,
	}
}

func (env *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	return w
}

func seedRecords(t *testing.T, env *testEnv) {
	t.Helper()
	require.NoError(t, env.recordStore.Replace([]model.RawRecord{
		{"id": "1", "uname": "asha", "college": "IIT Delhi", "activity_status": "Completed", "time_spent": "2:00"},
		{"id": "2", "uname": "ravi", "college": "IIT Delhi", "activity_status": "Pending", "time_spent": "1:30"},
	}))
}

func TestRecordsEndpoints(t *testing.T) {
	env := newTestEnv(t, "http://unused.invalid")
	seedRecords(t, env)

	w := env.do(t, http.MethodGet, "/api/v1/records?status=Completed", "")
	require.Equal(t, http.StatusOK, w.Code)
	var listResp struct {
		Total   int                `json:"total"`
		Records []model.TaskRecord `json:"records"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	require.Equal(t, 1, listResp.Total)
	assert.Equal(t, "asha", listResp.Records[0].UName)

	w = env.do(t, http.MethodGet, "/api/v1/records/summary", "")
	require.Equal(t, http.StatusOK, w.Code)
	var summary service.DashboardSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 50.0, summary.CompletionRate)

	w = env.do(t, http.MethodGet, "/api/v1/records/breakdown?by=college", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "IIT Delhi")

	w = env.do(t, http.MethodGet, "/api/v1/records/breakdown?by=nope", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/records/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "task_export_")
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
}

func TestRecords_BadDateFilter(t *testing.T) {
	env := newTestEnv(t, "http://unused.invalid")

	w := env.do(t, http.MethodGet, "/api/v1/records?from_date=31-01-2024", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecipientEndpoints(t *testing.T) {
	env := newTestEnv(t, "http://unused.invalid")

	w := env.do(t, http.MethodPost, "/api/v1/recipients", `{"email": "team@example.org"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	// duplicate
	w = env.do(t, http.MethodPost, "/api/v1/recipients", `{"email": "team@example.org"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	// malformed
	w = env.do(t, http.MethodPost, "/api/v1/recipients", `{"email": "not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/recipients", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "team@example.org")

	w = env.do(t, http.MethodDelete, "/api/v1/recipients/team@example.org", "")
	assert.Equal(t, http.StatusOK, w.Code)

	// absent address still succeeds
	w = env.do(t, http.MethodDelete, "/api/v1/recipients/ghost@example.org", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestScheduleEndpoints(t *testing.T) {
	env := newTestEnv(t, "http://unused.invalid")

	// default before any write
	w := env.do(t, http.MethodGet, "/api/v1/schedule", "")
	require.Equal(t, http.StatusOK, w.Code)
	var sched model.ScheduleConfig
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sched))
	assert.Equal(t, model.DefaultSchedule(), sched)

	// PUT twice with the same body lands in the same state
	for i := 0; i < 2; i++ {
		w = env.do(t, http.MethodPut, "/api/v1/schedule", `{"hour": 9, "minute": 30}`)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w = env.do(t, http.MethodGet, "/api/v1/schedule", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sched))
	assert.Equal(t, model.ScheduleConfig{Hour: 9, Minute: 30}, sched)

	w = env.do(t, http.MethodPut, "/api/v1/schedule", `{"hour": 24, "minute": 0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportSend_NoRecipients(t *testing.T) {
	env := newTestEnv(t, "http://unused.invalid")

	w := env.do(t, http.MethodPost, "/api/v1/report/send", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Zero(t, env.sender.calls)
}

func TestReportSend_EmptyWindowConflicts(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	}))
	defer upstream.Close()

	env := newTestEnv(t, upstream.URL)
	require.NoError(t, env.recipientStore.Save([]string{"team@example.org"}))

	w := env.do(t, http.MethodPost, "/api/v1/report/send", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Zero(t, env.sender.calls)
}

func TestReportSend_Succeeds(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [{"activity_status": "Completed", "time_spent": "1:30"}]}`))
	}))
	defer upstream.Close()

	env := newTestEnv(t, upstream.URL)
	require.NoError(t, env.recipientStore.Save([]string{"team@example.org"}))

	w := env.do(t, http.MethodPost, "/api/v1/report/send", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, env.sender.calls)
	assert.Equal(t, []string{"team@example.org"}, env.sender.to)

	var resp struct {
		RunID      string              `json:"run_id"`
		Summary    model.ReportSummary `json:"summary"`
		Recipients int                 `json:"recipients"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, 1, resp.Summary.Total)
	assert.Equal(t, 1, resp.Recipients)
}
