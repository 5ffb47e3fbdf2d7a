package normalize

import (
	"strconv"
	"strings"
	"time"

	"taskpulse/internal/model"
)

// ParseOutcome tags whether a value was taken from the source or
// replaced with a zero/absent default. Callers outside this package
// always receive a usable value either way; the tag exists so the
// degradation is observable in tests.
type ParseOutcome int

const (
	Parsed ParseOutcome = iota
	Defaulted
)

// sourceDateLayout is the upstream day-month-year date encoding.
const sourceDateLayout = "02-01-2006"

// nullMarkers are string values the upstream emits for absent fields.
var nullMarkers = map[string]struct{}{
	"":     {},
	"null": {},
	"NULL": {},
	"None": {},
}

// ParseDuration converts an "H:MM" string to minutes. Exactly two
// integer parts are required; any other shape yields (0, Defaulted).
func ParseDuration(s string) (int, ParseOutcome) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, Defaulted
	}
	hours, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, Defaulted
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, Defaulted
	}
	return hours*60 + minutes, Parsed
}

// CleanNull maps the upstream null markers ("null", "NULL", "None",
// empty) to the empty string; other values pass through unchanged.
func CleanNull(s string) string {
	if _, ok := nullMarkers[s]; ok {
		return ""
	}
	return s
}

// ParseDate parses an upstream day-month-year date. RFC3339 is also
// accepted so that re-normalizing an already-normalized record is a
// no-op. Unparseable dates become absent.
func ParseDate(s string) (*time.Time, ParseOutcome) {
	s = CleanNull(strings.TrimSpace(s))
	if s == "" {
		return nil, Defaulted
	}
	if t, err := time.Parse(sourceDateLayout, s); err == nil {
		return &t, Parsed
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, Parsed
	}
	return nil, Defaulted
}

// CoerceString renders any JSON value as text so that fields with
// inconsistent types across records (college names arriving as numbers
// for some rows) group and sort uniformly. Null markers collapse to "".
func CoerceString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return CleanNull(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return ""
	}
}

// Record converts one raw upstream object into a TaskRecord. Every
// field degrades independently; a malformed field never fails the
// record and a malformed record never fails the batch. Idempotent over
// an already-normalized record.
func Record(raw model.RawRecord) model.TaskRecord {
	rec := model.TaskRecord{
		ID:             CoerceString(raw["id"]),
		UName:          CoerceString(raw["uname"]),
		Email:          CoerceString(raw["email"]),
		College:        CoerceString(raw["college"]),
		Project:        CoerceString(raw["project"]),
		TaskTitle:      CoerceString(raw["task_title"]),
		Remark:         CoerceString(raw["remark"]),
		CurrentTask:    CoerceString(raw["current_task"]),
		ActivityStatus: CoerceString(raw["activity_status"]),
		TimeSpent:      CoerceString(raw["time_spent"]),
	}

	rec.TimeSpentMinutes, _ = ParseDuration(rec.TimeSpent)
	rec.CreatedDate, _ = ParseDate(CoerceString(raw["created_date"]))
	rec.UpdatedDate, _ = ParseDate(CoerceString(raw["updated_date"]))

	return rec
}

// Records normalizes a batch.
func Records(raws []model.RawRecord) []model.TaskRecord {
	out := make([]model.TaskRecord, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Record(raw))
	}
	return out
}

// TotalMinutes sums the parsed durations of a raw batch. It is the
// single source of truth for report totals.
func TotalMinutes(raws []model.RawRecord) int {
	total := 0
	for _, raw := range raws {
		minutes, _ := ParseDuration(CoerceString(raw["time_spent"]))
		total += minutes
	}
	return total
}
