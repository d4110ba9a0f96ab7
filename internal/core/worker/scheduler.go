// Package worker drives the periodic batch passes: bill processing and
// statement generation daily, interest accrual monthly. Jobs live in an
// explicit table and the ledger logic they invoke knows nothing about
// scheduling.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	validator "github.com/avrebarra/minivalidator"

	"github.com/bailee1531/CS499-BankManagement-sub000/internal/core/domain"
)

type Cadence string

const (
	Daily   Cadence = "daily"
	Monthly Cadence = "monthly" // fires on the first day of the month
)

// RunFunc is a batch pass returning one outcome per processed item.
type RunFunc func(ctx context.Context) ([]domain.Outcome, error)

type Job struct {
	Name    string
	Cadence Cadence
	Run     RunFunc
}

type Config struct {
	Clock func() time.Time `validate:"required"`
	Tick  time.Duration
}

type Scheduler struct {
	conf Config
	jobs []Job

	mu      sync.Mutex
	lastRun map[string]time.Time
}

func New(conf Config) (*Scheduler, error) {
	if err := validator.Validate(conf); err != nil {
		return nil, fmt.Errorf("bad config: %w", err)
	}
	if conf.Tick <= 0 {
		conf.Tick = time.Minute
	}
	return &Scheduler{conf: conf, lastRun: make(map[string]time.Time)}, nil
}

func (s *Scheduler) Register(jobs ...Job) {
	s.jobs = append(s.jobs, jobs...)
}

// Start launches the tick loop. It returns immediately; the loop stops
// when ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		slog.Info("scheduler started", "jobs", len(s.jobs), "tick", s.conf.Tick.String())
		ticker := time.NewTicker(s.conf.Tick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				slog.Info("scheduler stopped")
				return
			case <-ticker.C:
				s.RunDue(ctx)
			}
		}
	}()
}

// RunDue runs, in registration order, every job whose cadence has come
// around since its last run.
func (s *Scheduler) RunDue(ctx context.Context) {
	now := s.conf.Clock()
	for _, job := range s.jobs {
		if !s.due(job, now) {
			continue
		}
		s.runJob(ctx, job, now)
	}
}

// RunNow triggers one job by name regardless of cadence.
func (s *Scheduler) RunNow(ctx context.Context, name string) ([]domain.Outcome, error) {
	for _, job := range s.jobs {
		if job.Name != name {
			continue
		}
		return s.runJob(ctx, job, s.conf.Clock())
	}
	return nil, fmt.Errorf("job %q: %w", name, domain.ErrNotFound)
}

// Jobs returns the registered job names in order.
func (s *Scheduler) Jobs() []string {
	names := make([]string, 0, len(s.jobs))
	for _, job := range s.jobs {
		names = append(names, job.Name)
	}
	return names
}

func (s *Scheduler) due(job Job, now time.Time) bool {
	s.mu.Lock()
	last, ran := s.lastRun[job.Name]
	s.mu.Unlock()

	sameDay := ran && last.Year() == now.Year() && last.YearDay() == now.YearDay()
	switch job.Cadence {
	case Monthly:
		sameMonth := ran && last.Year() == now.Year() && last.Month() == now.Month()
		return now.Day() == 1 && !sameMonth
	default:
		return !sameDay
	}
}

func (s *Scheduler) runJob(ctx context.Context, job Job, now time.Time) ([]domain.Outcome, error) {
	s.mu.Lock()
	s.lastRun[job.Name] = now
	s.mu.Unlock()

	outcomes, err := job.Run(ctx)
	if err != nil {
		slog.Error("job failed", "job", job.Name, "error", err)
		return nil, err
	}

	succeeded, failed := 0, 0
	for _, o := range outcomes {
		if o.Status == "success" {
			succeeded++
		} else {
			failed++
			slog.Warn("job item failed", "job", job.Name, "item", o.ItemID, "message", o.Message)
		}
	}
	slog.Info("job finished", "job", job.Name, "succeeded", succeeded, "failed", failed)
	return outcomes, nil
}
