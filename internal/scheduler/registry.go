// Package scheduler owns the single daily report trigger. One cron
// entry, keyed by job name, fires the fetch→build→send pipeline; a run
// failure is logged and absorbed so the next day's trigger always
// survives.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"taskpulse/internal/model"
	"taskpulse/internal/service"
	"taskpulse/pkg/logger"

	"github.com/robfig/cron/v3"
)

// JobDailyEmail names the only registered job.
const JobDailyEmail = "daily_email"

// RunOutcome classifies one pipeline run.
type RunOutcome string

const (
	RunSent    RunOutcome = "sent"
	RunSkipped RunOutcome = "skipped" // nothing to send or nobody to send to
	RunFailed  RunOutcome = "failed"
)

// ErrInvalidSchedule rejects trigger times outside the 24h clock.
var ErrInvalidSchedule = errors.New("invalid schedule time")

// Fetcher pulls the latest record window.
type Fetcher interface {
	Fetch(ctx context.Context, from, to time.Time) ([]model.RawRecord, error)
}

// ReportBuilder turns a record batch into a report run.
type ReportBuilder interface {
	Build(records []model.RawRecord, reportDate time.Time) (*service.Report, error)
}

// RecipientLister reads the distribution list.
type RecipientLister interface {
	List() ([]string, error)
}

// Sender submits the composed report email.
type Sender interface {
	Send(ctx context.Context, recipients []string, subject, plainBody, htmlBody, attachmentPath string) error
}

// Registry holds the cron runner and the one daily entry. Scheduling
// the job again replaces the existing entry, so re-registration at a
// new time never double-fires.
type Registry struct {
	cron    *cron.Cron
	fetcher Fetcher
	builder ReportBuilder
	lister  RecipientLister
	sender  Sender
	now     func() time.Time

	mu       sync.Mutex
	entryID  cron.EntryID
	hasEntry bool
	current  model.ScheduleConfig
}

// NewRegistry creates an idle registry; Schedule and Start arm it.
func NewRegistry(fetcher Fetcher, builder ReportBuilder, lister RecipientLister, sender Sender) *Registry {
	return &Registry{
		cron:    cron.New(),
		fetcher: fetcher,
		builder: builder,
		lister:  lister,
		sender:  sender,
		now:     time.Now,
	}
}

// Schedule registers the daily trigger at the given wall-clock time,
// replacing any existing entry.
func (r *Registry) Schedule(sched model.ScheduleConfig) error {
	if !sched.Valid() {
		return fmt.Errorf("%w: %02d:%02d", ErrInvalidSchedule, sched.Hour, sched.Minute)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hasEntry {
		r.cron.Remove(r.entryID)
		r.hasEntry = false
	}

	spec := fmt.Sprintf("%d %d * * *", sched.Minute, sched.Hour)
	entryID, err := r.cron.AddFunc(spec, func() {
		outcome := r.RunOnce(context.Background())
		logger.Infof("job %s finished: %s", JobDailyEmail, outcome)
	})
	if err != nil {
		return fmt.Errorf("failed to register job %s: %w", JobDailyEmail, err)
	}

	r.entryID = entryID
	r.hasEntry = true
	r.current = sched
	logger.Infof("job %s scheduled daily at %02d:%02d", JobDailyEmail, sched.Hour, sched.Minute)
	return nil
}

// Current returns the active trigger time, if one is registered.
func (r *Registry) Current() (model.ScheduleConfig, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, r.hasEntry
}

// Start launches the cron runner. Fire times missed while the process
// was down are not backfilled.
func (r *Registry) Start() {
	r.cron.Start()
}

// Stop halts the runner and waits for an in-flight run to finish, or
// for the context to expire.
func (r *Registry) Stop(ctx context.Context) error {
	stopped := r.cron.Stop()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce executes the full report pipeline for the rolling one-day
// window ending now. Every failure is caught and logged here; callers
// only see the outcome classification.
func (r *Registry) RunOnce(ctx context.Context) RunOutcome {
	now := r.now()

	records, err := r.fetcher.Fetch(ctx, now.AddDate(0, 0, -1), now)
	if err != nil {
		logger.ErrorCtx(ctx, "job %s: fetch failed: %v", JobDailyEmail, err)
		return RunFailed
	}

	recipients, err := r.lister.List()
	if err != nil {
		logger.ErrorCtx(ctx, "job %s: loading recipients failed: %v", JobDailyEmail, err)
		return RunFailed
	}
	if len(recipients) == 0 {
		logger.WarnCtx(ctx, "job %s: recipient list is empty, skipping send", JobDailyEmail)
		return RunSkipped
	}

	report, err := r.builder.Build(records, now)
	if err != nil {
		if errors.Is(err, service.ErrNoRecords) {
			logger.InfoCtx(ctx, "job %s: no records in window, skipping send", JobDailyEmail)
			return RunSkipped
		}
		logger.ErrorCtx(ctx, "job %s: report build failed: %v", JobDailyEmail, err)
		return RunFailed
	}

	if err := r.sender.Send(ctx, recipients, report.Subject, report.PlainBody, report.HTMLBody, report.CSVPath); err != nil {
		logger.ErrorCtx(ctx, "job %s: send failed (run %s): %v", JobDailyEmail, report.RunID, err)
		return RunFailed
	}

	logger.InfoCtx(ctx, "job %s: report %s sent to %d recipients", JobDailyEmail, report.RunID, len(recipients))
	return RunSent
}

// entryCount reports how many cron entries are registered.
func (r *Registry) entryCount() int {
	return len(r.cron.Entries())
}
