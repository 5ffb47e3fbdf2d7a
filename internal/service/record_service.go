package service

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"taskpulse/internal/model"
	"taskpulse/pkg/normalize"
	filestore "taskpulse/pkg/store/file"
)

// Breakdown group limits for the chart feed.
const (
	DefaultBreakdownLimit = 10
	MaxBreakdownLimit     = 50
)

// ErrUnknownDimension rejects breakdown requests over fields the charts
// do not group by.
var ErrUnknownDimension = errors.New("unknown breakdown dimension")

// RecordFilter narrows the dashboard's view of the record file. Zero
// values mean "no constraint".
type RecordFilter struct {
	From      *time.Time
	To        *time.Time
	Status    string
	Project   string
	College   string
	TaskTitle string
	Query     string // free-text, case-insensitive
}

// DashboardSummary is the key-metrics panel of the dashboard.
type DashboardSummary struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	CompletionRate float64 `json:"completion_rate"` // percent, 2 decimals
	TotalMinutes   int     `json:"total_minutes"`
	TotalHours     float64 `json:"total_hours"`
	UniqueColleges int     `json:"unique_colleges"`
}

// BreakdownGroup is one bar/slice of a dashboard chart.
type BreakdownGroup struct {
	Key     string  `json:"key"`
	Count   int     `json:"count"`
	Minutes int     `json:"minutes"`
	Hours   float64 `json:"hours"`
}

// RecordService answers dashboard queries over the persisted record
// file. Records are normalized on read; a missing file reads as an
// empty dataset so a fresh deployment serves empty panels instead of
// errors.
type RecordService struct {
	store *filestore.RecordStore
}

func NewRecordService(store *filestore.RecordStore) *RecordService {
	return &RecordService{store: store}
}

// Query returns the normalized records matching the filter, in file
// order.
func (s *RecordService) Query(filter RecordFilter) ([]model.TaskRecord, error) {
	records, err := s.load()
	if err != nil {
		return nil, err
	}

	matched := make([]model.TaskRecord, 0, len(records))
	for _, record := range records {
		if filter.matches(record) {
			matched = append(matched, record)
		}
	}
	return matched, nil
}

// Summary computes the key metrics over the filtered set.
func (s *RecordService) Summary(filter RecordFilter) (DashboardSummary, error) {
	records, err := s.Query(filter)
	if err != nil {
		return DashboardSummary{}, err
	}

	summary := DashboardSummary{Total: len(records)}
	colleges := make(map[string]struct{})
	for _, record := range records {
		if record.Completed() {
			summary.Completed++
		}
		summary.TotalMinutes += record.TimeSpentMinutes
		if record.College != "" {
			colleges[record.College] = struct{}{}
		}
	}
	summary.UniqueColleges = len(colleges)
	summary.TotalHours = roundTwo(float64(summary.TotalMinutes) / 60)
	if summary.Total > 0 {
		summary.CompletionRate = roundTwo(float64(summary.Completed) / float64(summary.Total) * 100)
	}
	return summary, nil
}

// Breakdown groups the filtered set along one dimension for the charts.
// Groups are sorted by descending count (key ascending on ties) and
// truncated to the limit.
func (s *RecordService) Breakdown(filter RecordFilter, by string, limit int) ([]BreakdownGroup, error) {
	keyOf, err := dimensionKey(by)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultBreakdownLimit
	}
	if limit > MaxBreakdownLimit {
		limit = MaxBreakdownLimit
	}

	records, err := s.Query(filter)
	if err != nil {
		return nil, err
	}

	index := make(map[string]*BreakdownGroup)
	for _, record := range records {
		key := keyOf(record)
		if key == "" {
			key = "(unspecified)"
		}
		group, ok := index[key]
		if !ok {
			group = &BreakdownGroup{Key: key}
			index[key] = group
		}
		group.Count++
		group.Minutes += record.TimeSpentMinutes
	}

	groups := make([]BreakdownGroup, 0, len(index))
	for _, group := range index {
		group.Hours = roundTwo(float64(group.Minutes) / 60)
		groups = append(groups, *group)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Key < groups[j].Key
	})
	if len(groups) > limit {
		groups = groups[:limit]
	}
	return groups, nil
}

// ExportCSV serializes the filtered set for download and returns the
// bytes with a date-stamped filename.
func (s *RecordService) ExportCSV(filter RecordFilter, now time.Time) ([]byte, string, error) {
	raws, err := s.store.Load()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, "", err
		}
		raws = nil
	}

	// export keeps the raw upstream shape; filters run on the
	// normalized view of each record
	filtered := make([]model.RawRecord, 0, len(raws))
	for _, raw := range raws {
		if filter.matches(normalize.Record(raw)) {
			filtered = append(filtered, raw)
		}
	}

	data, err := MarshalCSV(filtered)
	if err != nil {
		return nil, "", fmt.Errorf("failed to serialize export CSV: %w", err)
	}
	filename := fmt.Sprintf("task_export_%s.csv", now.Format("2006-01-02"))
	return data, filename, nil
}

func (s *RecordService) load() ([]model.TaskRecord, error) {
	raws, err := s.store.Load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return normalize.Records(raws), nil
}

func (f RecordFilter) matches(record model.TaskRecord) bool {
	if f.Status != "" && !strings.EqualFold(record.ActivityStatus, f.Status) {
		return false
	}
	if f.Project != "" && !strings.EqualFold(record.Project, f.Project) {
		return false
	}
	if f.College != "" && !strings.EqualFold(record.College, f.College) {
		return false
	}
	if f.TaskTitle != "" && !strings.EqualFold(record.TaskTitle, f.TaskTitle) {
		return false
	}
	if f.From != nil || f.To != nil {
		if record.CreatedDate == nil {
			return false
		}
		if f.From != nil && record.CreatedDate.Before(*f.From) {
			return false
		}
		if f.To != nil && record.CreatedDate.After(*f.To) {
			return false
		}
	}
	if f.Query != "" {
		needle := strings.ToLower(f.Query)
		haystack := strings.ToLower(strings.Join([]string{
			record.TaskTitle, record.Remark, record.CurrentTask,
			record.UName, record.College, record.Email,
		}, "\n"))
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

func dimensionKey(by string) (func(model.TaskRecord) string, error) {
	switch by {
	case "activity_status":
		return func(r model.TaskRecord) string { return r.ActivityStatus }, nil
	case "college":
		return func(r model.TaskRecord) string { return r.College }, nil
	case "uname":
		return func(r model.TaskRecord) string { return r.UName }, nil
	case "task_title":
		return func(r model.TaskRecord) string { return r.TaskTitle }, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDimension, by)
	}
}

func roundTwo(v float64) float64 {
	return math.Round(v*100) / 100
}
