// Package scheduler replays configured downloads on cron expressions.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
	"github.com/sgaunet/s3grab/pkg/config"
	"github.com/sgaunet/s3grab/pkg/downloader"
)

// Starter starts download jobs, one at a time.
type Starter interface {
	Start(ctx context.Context, bucket string, sel downloader.Selection, destination string) (*downloader.Job, error)
}

// Scheduler manages the scheduled downloads
type Scheduler struct {
	cron      *cron.Cron
	runner    Starter
	schedules []config.Schedule
	log       *slog.Logger
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg config.Config, runner Starter) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		runner:    runner,
		schedules: cfg.Schedules,
		log:       slog.New(slog.DiscardHandler),
	}
}

// SetLogger sets the logger for the scheduler
func (s *Scheduler) SetLogger(log *slog.Logger) {
	s.log = log
}

// Start registers every schedule and starts the cron loop.
// Nothing is started when no schedule is configured.
func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.schedules) == 0 {
		s.log.Info("No scheduled download")
		return nil
	}

	for _, sch := range s.schedules {
		_, err := s.cron.AddFunc(sch.Cron, func() {
			_, _ = s.Run(ctx, sch)
		})
		if err != nil {
			return fmt.Errorf("schedule %q: %w", sch.Name, err)
		}
		s.log.Info("Download scheduled",
			slog.String("name", sch.Name),
			slog.String("schedule", sch.Cron),
			slog.String("bucket", sch.Bucket))
	}

	s.cron.Start()
	return nil
}

// Run performs one occurrence of sch and waits for the job to end.
// A tick that finds another job in flight is skipped.
func (s *Scheduler) Run(ctx context.Context, sch config.Schedule) (*downloader.Report, error) {
	log := s.log.With(slog.String("name", sch.Name))
	log.Info("Starting scheduled download")

	job, err := s.runner.Start(ctx, sch.Bucket, downloader.ParseItems(sch.Items), sch.Destination)
	if errors.Is(err, downloader.ErrJobInFlight) {
		log.Warn("Skipping scheduled download, a job is already running")
		return nil, err
	}
	if err != nil {
		log.Error("Scheduled download failed", slog.String("error", err.Error()))
		return nil, err
	}

	report := job.Wait()
	log.Info("Scheduled download completed",
		slog.String("outcome", report.Outcome.String()),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", len(report.Failed)))
	return report, nil
}

// Stop stops the scheduler and waits for a running occurrence to finish.
func (s *Scheduler) Stop() {
	s.log.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}
