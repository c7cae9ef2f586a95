// Package reminder periodically logs bonuses that need attention: deadlines
// coming up and hold periods that have ended.
package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bonustrack-dev/bonustrack/internal/analytics"
	"github.com/bonustrack-dev/bonustrack/internal/model"
	"github.com/bonustrack-dev/bonustrack/internal/progress"
)

// Source supplies the bonuses to check and the current time.
type Source interface {
	All() []model.Bonus
	Now() time.Time
}

// Reminder is one bonus that needs attention.
type Reminder struct {
	BonusID       string
	BankName      string
	RemainingDays int
	Remaining     string
	HoldEnded     time.Time
}

// Report is the result of one check.
type Report struct {
	DueSoon      []Reminder
	Withdrawable []Reminder
}

// Check finds unfinished bonuses due within deadlineDays of now and
// completed bonuses whose hold period is over.
func Check(bonuses []model.Bonus, now time.Time, deadlineDays int) Report {
	var r Report
	for _, b := range analytics.DueSoon(bonuses, now, deadlineDays) {
		r.DueSoon = append(r.DueSoon, Reminder{
			BonusID:       b.ID,
			BankName:      b.BankName,
			RemainingDays: progress.RemainingDays(b, now),
			Remaining:     progress.RemainingAmount(b).StringFixed(2),
		})
	}
	for _, b := range analytics.Withdrawable(bonuses, now) {
		end, _ := progress.HoldEndDate(b)
		r.Withdrawable = append(r.Withdrawable, Reminder{
			BonusID:   b.ID,
			BankName:  b.BankName,
			HoldEnded: end,
		})
	}
	return r
}

// Jobs holds the scheduled work.
type Jobs struct {
	source       Source
	logger       *slog.Logger
	deadlineDays int
}

// NewJobs creates the reminder jobs.
func NewJobs(src Source, logger *slog.Logger, deadlineDays int) *Jobs {
	return &Jobs{source: src, logger: logger, deadlineDays: deadlineDays}
}

// CheckBonuses logs one line per bonus needing attention.
func (j *Jobs) CheckBonuses() {
	r := Check(j.source.All(), j.source.Now(), j.deadlineDays)
	for _, rem := range r.DueSoon {
		j.logger.Warn("bonus deadline approaching",
			"bonus", rem.BonusID, "bank", rem.BankName,
			"days_left", rem.RemainingDays, "remaining", rem.Remaining)
	}
	for _, rem := range r.Withdrawable {
		j.logger.Info("bonus hold period ended",
			"bonus", rem.BonusID, "bank", rem.BankName,
			"hold_ended", rem.HoldEnded.Format(time.DateOnly))
	}
	j.logger.Debug("reminder check finished", "due_soon", len(r.DueSoon), "withdrawable", len(r.Withdrawable))
}

// Scheduler manages the cron job.
type Scheduler struct {
	cron     *cron.Cron
	jobs     *Jobs
	logger   *slog.Logger
	schedule string
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(jobs *Jobs, logger *slog.Logger, schedule string) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:     c,
		jobs:     jobs,
		logger:   logger,
		schedule: schedule,
	}
}

// Start registers the job and starts the cron scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.jobs.CheckBonuses); err != nil {
		s.logger.Error("failed to schedule reminder job", "error", err)
		return err
	}
	s.logger.Info("scheduled reminder job", "schedule", s.schedule)
	s.cron.Start()
	return nil
}

// Stop stops the scheduler. The returned context is done once a running
// job has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
