package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"taskpulse/internal/model"
	"taskpulse/pkg/config"
	"taskpulse/pkg/logger"
	"taskpulse/pkg/normalize"

	"github.com/google/uuid"
)

// ErrNoRecords signals an empty record set. The builder never emits a
// zero-valued report silently; callers decide whether an empty-state
// notice is worth sending.
var ErrNoRecords = errors.New("no task records to report")

// Report is one generated report run: summary statistics, the CSV
// artifact, and the rendered message bodies.
type Report struct {
	RunID     string
	Date      time.Time
	Summary   model.ReportSummary
	Subject   string
	CSVPath   string
	CSVBytes  []byte
	HTMLBody  string
	PlainBody string
}

// ReportService turns a persisted record batch into a report run.
type ReportService struct {
	outputDir string
}

// NewReportService creates a report service writing artifacts under the
// configured output directory.
func NewReportService(cfg config.ReportConfig) *ReportService {
	return &ReportService{outputDir: cfg.OutputDir}
}

// Build computes the summary, serializes the CSV artifact to a
// date-stamped file, and renders the HTML and plain-text bodies.
// Returns ErrNoRecords for an empty batch.
func (s *ReportService) Build(records []model.RawRecord, reportDate time.Time) (*Report, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	summary := Summarize(records)

	csvBytes, err := MarshalCSV(records)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize report CSV: %w", err)
	}

	dateStr := reportDate.Format("2006-01-02")
	csvPath := filepath.Join(s.outputDir, fmt.Sprintf("task_report_%s.csv", dateStr))
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report output directory: %w", err)
	}
	if err := os.WriteFile(csvPath, csvBytes, 0644); err != nil {
		return nil, fmt.Errorf("failed to write report artifact %s: %w", csvPath, err)
	}

	report := &Report{
		RunID:     uuid.NewString(),
		Date:      reportDate,
		Summary:   summary,
		Subject:   fmt.Sprintf("Daily Task Report - %s", dateStr),
		CSVPath:   csvPath,
		CSVBytes:  csvBytes,
		HTMLBody:  renderHTMLBody(summary, dateStr, filepath.Base(csvPath)),
		PlainBody: renderPlainBody(summary, dateStr),
	}

	logger.Infof("report %s built for %s: %d records, %d completed, %.2f hours",
		report.RunID, dateStr, summary.Total, summary.Completed, summary.TotalHours)
	return report, nil
}

// Summarize computes the derived statistics for a record batch. All
// fields are zero for an empty batch.
func Summarize(records []model.RawRecord) model.ReportSummary {
	summary := model.ReportSummary{Total: len(records)}
	for _, raw := range records {
		if normalize.CoerceString(raw["activity_status"]) == model.StatusCompleted {
			summary.Completed++
		}
	}
	summary.TotalMinutes = normalize.TotalMinutes(records)
	summary.TotalHours = math.Round(float64(summary.TotalMinutes)/60*100) / 100
	return summary
}

// MarshalCSV serializes a heterogeneous record batch. The header is the
// sorted union of keys across all records; records missing a key get an
// empty cell, so shape drift between API responses never breaks rows.
func MarshalCSV(records []model.RawRecord) ([]byte, error) {
	keySet := make(map[string]struct{})
	for _, raw := range records {
		for key := range raw {
			keySet[key] = struct{}{}
		}
	}
	header := make([]string, 0, len(keySet))
	for key := range keySet {
		header = append(header, key)
	}
	sort.Strings(header)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	row := make([]string, len(header))
	for _, raw := range records {
		for i, key := range header {
			row[i] = normalize.CoerceString(raw[key])
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderHTMLBody(summary model.ReportSummary, dateStr, attachmentName string) string {
	return fmt.Sprintf(`<html>
  <body style="font-family:Arial,sans-serif; color:#333;">
    <h2 style="color:#2E86C1;">Daily Task Report — %s</h2>
    <p>Here is your task summary:</p>
    <table style="border-collapse:collapse; width:100%%; max-width:600px;">
      <tr>
        <th style="background:#f2f2f2; padding:8px; border:1px solid #ddd;">Metric</th>
        <th style="background:#f2f2f2; padding:8px; border:1px solid #ddd;">Value</th>
      </tr>
      <tr>
        <td style="padding:8px; border:1px solid #ddd;">Total Tasks</td>
        <td style="padding:8px; border:1px solid #ddd;">%d</td>
      </tr>
      <tr>
        <td style="padding:8px; border:1px solid #ddd;">Completed Tasks</td>
        <td style="padding:8px; border:1px solid #ddd;">%d</td>
      </tr>
      <tr>
        <td style="padding:8px; border:1px solid #ddd;">Total Time Spent</td>
        <td style="padding:8px; border:1px solid #ddd;">%.2f hours</td>
      </tr>
    </table>
    <p style="margin-top:20px;">Attached: <strong>%s</strong></p>
    <p style="color:#555; font-size:0.9em;">Regards,<br/>TaskPulse</p>
  </body>
</html>`, dateStr, summary.Total, summary.Completed, summary.TotalHours, attachmentName)
}

func renderPlainBody(summary model.ReportSummary, dateStr string) string {
	return fmt.Sprintf(
		"Daily Task Report — %s\n\nTotal Tasks: %d\nCompleted Tasks: %d\nTotal Time Spent: %.2f hours\n\nThe full task list is attached as CSV. Open this email in an HTML-capable client for the formatted summary.\n",
		dateStr, summary.Total, summary.Completed, summary.TotalHours)
}
