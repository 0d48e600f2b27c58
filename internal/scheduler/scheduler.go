// Package scheduler runs the recurring farm jobs: the daily notification
// trigger and the daily summary snapshot.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/config"
	"github.com/mamadbah2/coopkeeper/internal/domain/models"
	"github.com/mamadbah2/coopkeeper/internal/repository/sheets"
	"github.com/mamadbah2/coopkeeper/internal/service/notifier"
	"github.com/mamadbah2/coopkeeper/internal/service/reporting"
)

// SummaryStore persists the daily summary snapshot.
type SummaryStore interface {
	SaveDailySummary(ctx context.Context, summary models.DailySummary) error
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron         *cron.Cron
	notifierSvc  *notifier.Service
	reportingSvc *reporting.Service
	summaries    SummaryStore
	sink         sheets.SummarySink
	cfg          config.SchedulerConfig
	logger       *zap.Logger
}

// NewScheduler creates a scheduler. sink may be nil when the spreadsheet
// export is not configured. An unknown timezone falls back to local time.
func NewScheduler(cfg config.SchedulerConfig, notifierSvc *notifier.Service, reportingSvc *reporting.Service, summaries SummaryStore, sink sheets.SummarySink, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	location := time.Local
	if cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			logger.Warn("unknown timezone, using local time", zap.String("timezone", cfg.Timezone), zap.Error(err))
		} else {
			location = loc
		}
	}

	return &Scheduler{
		cron:         cron.New(cron.WithLocation(location)),
		notifierSvc:  notifierSvc,
		reportingSvc: reportingSvc,
		summaries:    summaries,
		sink:         sink,
		cfg:          cfg,
		logger:       logger,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler",
		zap.String("reminder_schedule", s.cfg.ReminderCronSchedule),
		zap.String("summary_schedule", s.cfg.SummaryCronSchedule))

	if _, err := s.cron.AddFunc(s.cfg.ReminderCronSchedule, s.runDailyChecks); err != nil {
		s.logger.Error("failed to schedule daily checks", zap.Error(err))
	}

	if _, err := s.cron.AddFunc(s.cfg.SummaryCronSchedule, s.writeDailySummary); err != nil {
		s.logger.Error("failed to schedule daily summary", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the cron loop. Running jobs finish on their own.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) runDailyChecks() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.notifierSvc.RunDailyChecks(ctx); err != nil {
		s.logger.Error("daily notification checks failed", zap.Error(err))
	}
}

func (s *Scheduler) writeDailySummary() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	summary, err := s.reportingSvc.ComputeDailySummary(ctx, time.Now())
	if err != nil {
		s.logger.Error("failed to compute daily summary", zap.Error(err))
		return
	}

	if err := s.summaries.SaveDailySummary(ctx, *summary); err != nil {
		s.logger.Error("failed to persist daily summary", zap.Error(err))
		return
	}

	if s.sink != nil {
		if err := s.sink.AppendSummary(ctx, *summary); err != nil {
			// Export is best effort; the stored summary is authoritative.
			s.logger.Error("failed to export daily summary", zap.Error(err))
		}
	}

	s.logger.Info("daily summary written", zap.Time("date", summary.Date))
}
