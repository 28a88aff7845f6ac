package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/mymanga/internal/database"
	"github.com/mrlokans/mymanga/internal/database/chapters"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

// Store is the database maintenance surface.
type Store interface {
	Stats(ctx context.Context) (database.Stats, error)
	Optimize(ctx context.Context) error
}

// Auditor checks stored chapters against their pages.
type Auditor interface {
	Audit(ctx context.Context) ([]chapters.Inconsistency, error)
}

// Report is the outcome of one maintenance run.
type Report struct {
	Inconsistencies []chapters.Inconsistency
	Stats           database.Stats
	Duration        time.Duration
}

// MaintenanceScheduler periodically audits chapter consistency and optimizes
// the database file.
type MaintenanceScheduler struct {
	store    Store
	auditor  Auditor
	schedule string

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool

	runMu      sync.Mutex
	lastReport atomic.Pointer[Report]
}

// NewMaintenanceScheduler creates a new scheduler instance
func NewMaintenanceScheduler(store Store, auditor Auditor, schedule string) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		store:    store,
		auditor:  auditor,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(parser)),
	}
}

// Start schedules the maintenance job and stops it when ctx is done.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if err := ValidateSchedule(s.schedule); err != nil {
		return err
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunNow(context.WithoutCancel(ctx)); err != nil {
			slog.ErrorContext(ctx, "maintenance failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule maintenance job: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true
	slog.InfoContext(ctx, "maintenance scheduler started", "schedule", s.schedule, "next_run", s.cron.Entry(entryID).Next)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop waits for a running job, then stops the scheduler.
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	// Stop accepting new jobs and wait for running jobs to complete
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cron.Remove(s.entryID)

	s.isRunning = false
	slog.Info("maintenance scheduler stopped")
}

// IsRunning returns whether the scheduler is active
func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the next run will occur, or nil when stopped.
func (s *MaintenanceScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	next := s.cron.Entry(s.entryID).Next
	return &next
}

// LastReport returns the report of the most recent run, or nil.
func (s *MaintenanceScheduler) LastReport() *Report {
	return s.lastReport.Load()
}

// RunNow performs one maintenance run synchronously. Runs never overlap.
func (s *MaintenanceScheduler) RunNow(ctx context.Context) (*Report, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := time.Now()
	issues, err := s.auditor.Audit(ctx)
	if err != nil {
		return nil, fmt.Errorf("chapter audit failed: %w", err)
	}
	for _, issue := range issues {
		slog.WarnContext(ctx, "inconsistent chapter",
			"chapter_id", issue.ChapterID, "manga_id", issue.CatalogEntryID, "reason", issue.Reason)
	}

	if err := s.store.Optimize(ctx); err != nil {
		return nil, fmt.Errorf("optimize failed: %w", err)
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Inconsistencies: issues,
		Stats:           stats,
		Duration:        time.Since(start),
	}
	s.lastReport.Store(report)

	slog.InfoContext(ctx, "maintenance completed",
		"inconsistencies", len(issues),
		"manga", stats.MangaCount,
		"chapters", stats.ChapterCount,
		"pages", stats.PageCount,
		"size_bytes", stats.SizeBytes,
		"duration", report.Duration.Round(time.Millisecond))
	return report, nil
}
