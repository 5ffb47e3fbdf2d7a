package service

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"testing"
	"time"

	"taskpulse/internal/model"
	filestore "taskpulse/pkg/store/file"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecordService(t *testing.T, records []model.RawRecord) *RecordService {
	t.Helper()
	store := filestore.NewRecordStore(filepath.Join(t.TempDir(), "task_data.json"))
	if records != nil {
		require.NoError(t, store.Replace(records))
	}
	return NewRecordService(store)
}

func dashboardFixture() []model.RawRecord {
	return []model.RawRecord{
		{
			"id": "1", "uname": "asha", "college": "IIT Delhi", "project": "Portal",
			"task_title": "API integration", "activity_status": "Completed",
			"time_spent": "2:00", "created_date": "15-01-2024",
		},
		{
			"id": "2", "uname": "ravi", "college": "IIT Delhi", "project": "Portal",
			"task_title": "Bug triage", "activity_status": "Pending",
			"time_spent": "1:30", "created_date": "16-01-2024",
		},
		{
			"id": "3", "uname": "meera", "college": "NIT Trichy", "project": "Analytics",
			"task_title": "Dashboard charts", "activity_status": "Completed",
			"time_spent": "0:45", "remark": "chart feed wired", "created_date": "20-01-2024",
		},
	}
}

func TestQuery_NoFilterReturnsAll(t *testing.T) {
	svc := newTestRecordService(t, dashboardFixture())

	records, err := svc.Query(RecordFilter{})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "asha", records[0].UName)
	assert.Equal(t, 120, records[0].TimeSpentMinutes)
}

func TestQuery_MissingFileReadsAsEmpty(t *testing.T) {
	svc := newTestRecordService(t, nil)

	records, err := svc.Query(RecordFilter{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestQuery_EqualityFiltersIgnoreCase(t *testing.T) {
	svc := newTestRecordService(t, dashboardFixture())

	records, err := svc.Query(RecordFilter{Status: "completed"})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = svc.Query(RecordFilter{College: "nit trichy"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "meera", records[0].UName)

	records, err = svc.Query(RecordFilter{Project: "Portal", Status: "Pending"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ravi", records[0].UName)
}

func TestQuery_FreeTextSearchSpansFields(t *testing.T) {
	svc := newTestRecordService(t, dashboardFixture())

	// matches the remark field
	records, err := svc.Query(RecordFilter{Query: "chart feed"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "meera", records[0].UName)

	// matches uname
	records, err = svc.Query(RecordFilter{Query: "ASHA"})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestQuery_DateWindow(t *testing.T) {
	svc := newTestRecordService(t, dashboardFixture())

	from := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 19, 0, 0, 0, 0, time.UTC)
	records, err := svc.Query(RecordFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ravi", records[0].UName)
}

func TestSummary_KeyMetrics(t *testing.T) {
	svc := newTestRecordService(t, dashboardFixture())

	summary, err := svc.Summary(RecordFilter{})
	require.NoError(t, err)
	assert.Equal(t, DashboardSummary{
		Total:          3,
		Completed:      2,
		CompletionRate: 66.67,
		TotalMinutes:   255,
		TotalHours:     4.25,
		UniqueColleges: 2,
	}, summary)
}

func TestSummary_EmptySetHasZeroRate(t *testing.T) {
	svc := newTestRecordService(t, []model.RawRecord{})

	summary, err := svc.Summary(RecordFilter{})
	require.NoError(t, err)
	assert.Equal(t, DashboardSummary{}, summary)
}

func TestBreakdown_GroupsSortedByCount(t *testing.T) {
	svc := newTestRecordService(t, dashboardFixture())

	groups, err := svc.Breakdown(RecordFilter{}, "college", 0)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, BreakdownGroup{Key: "IIT Delhi", Count: 2, Minutes: 210, Hours: 3.5}, groups[0])
	assert.Equal(t, BreakdownGroup{Key: "NIT Trichy", Count: 1, Minutes: 45, Hours: 0.75}, groups[1])
}

func TestBreakdown_GroupsSumToSummaryTotals(t *testing.T) {
	svc := newTestRecordService(t, dashboardFixture())
	filter := RecordFilter{Status: "Completed"}

	summary, err := svc.Summary(filter)
	require.NoError(t, err)
	groups, err := svc.Breakdown(filter, "uname", MaxBreakdownLimit)
	require.NoError(t, err)

	var count, minutes int
	for _, group := range groups {
		count += group.Count
		minutes += group.Minutes
	}
	assert.Equal(t, summary.Total, count)
	assert.Equal(t, summary.TotalMinutes, minutes)
}

func TestBreakdown_LimitAndUnknownDimension(t *testing.T) {
	svc := newTestRecordService(t, dashboardFixture())

	groups, err := svc.Breakdown(RecordFilter{}, "uname", 2)
	require.NoError(t, err)
	assert.Len(t, groups, 2)

	_, err = svc.Breakdown(RecordFilter{}, "email", 0)
	assert.ErrorIs(t, err, ErrUnknownDimension)
}

func TestBreakdown_MissingKeyGroupsAsUnspecified(t *testing.T) {
	svc := newTestRecordService(t, []model.RawRecord{
		{"id": "1", "activity_status": "Pending"},
		{"id": "2", "activity_status": "Pending"},
	})

	groups, err := svc.Breakdown(RecordFilter{}, "college", 0)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "(unspecified)", groups[0].Key)
	assert.Equal(t, 2, groups[0].Count)
}

func TestExportCSV_FilteredAndDateStamped(t *testing.T) {
	svc := newTestRecordService(t, dashboardFixture())
	now := time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)

	data, filename, err := svc.ExportCSV(RecordFilter{Status: "Completed"}, now)
	require.NoError(t, err)
	assert.Equal(t, "task_export_2024-01-31.csv", filename)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	// header + the two completed records
	assert.Len(t, rows, 3)
}
