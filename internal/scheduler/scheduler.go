package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/pitviper/backend/pkg/logger"
)

// Window is the part of the local day in which windowed jobs may start,
// as offsets from local midnight. End is exclusive. Start == End means the
// whole day.
type Window struct {
	Start time.Duration
	End   time.Duration
}

// Contains reports whether t, read in its own location, falls in the window.
func (w Window) Contains(t time.Time) bool {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := t.Sub(midnight)
	if w.Start == w.End {
		return true
	}
	if w.Start < w.End {
		return offset >= w.Start && offset < w.End
	}
	// wraps past midnight
	return offset >= w.Start || offset < w.End
}

// Options configures a Scheduler.
type Options struct {
	Location   *time.Location
	Window     Window
	MaxRetries int
	RetryDelay time.Duration
}

type entry struct {
	job Job
	id  cron.EntryID
}

// Scheduler manages scheduled jobs
type Scheduler struct {
	cron    *cron.Cron
	logger  *logger.Logger
	loc     *time.Location
	window  Window
	jobs    map[string]entry
	history map[string]*JobHistory
	mu      sync.RWMutex
	now     func() time.Time

	maxRetries int
	retryDelay time.Duration

	// cancelled by Stop so in-flight retries give up
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new scheduler
func New(opts Options, log *logger.Logger) *Scheduler {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())

	log = log.Module("scheduler")
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(loc),
			cron.WithLogger(log.Cron()),
		),
		logger:     log,
		loc:        loc,
		window:     opts.Window,
		jobs:       make(map[string]entry),
		history:    make(map[string]*JobHistory),
		now:        time.Now,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// InWindow reports whether t falls inside the nightly window, in the
// scheduler's location.
func (s *Scheduler) InWindow(t time.Time) bool {
	return s.window.Contains(t.In(s.loc))
}

// AddJob adds a job to the scheduler
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobName := job.Name()
	if _, exists := s.jobs[jobName]; exists {
		return fmt.Errorf("job %s already exists", jobName)
	}

	id, err := s.cron.AddFunc(job.Schedule(), func() {
		s.runJob(job, true)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", jobName, err)
	}

	s.jobs[jobName] = entry{job: job, id: id}
	s.history[jobName] = &JobHistory{}

	s.logger.WithFields(map[string]interface{}{
		"job":      jobName,
		"schedule": job.Schedule(),
		"location": s.loc.String(),
	}).Info("Job added to scheduler")

	return nil
}

// RemoveJob unschedules a job. Its history is kept.
func (s *Scheduler) RemoveJob(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.jobs[jobName]
	if !exists {
		return fmt.Errorf("job %s not found", jobName)
	}

	s.cron.Remove(e.id)
	delete(s.jobs, jobName)
	s.logger.WithField("job", jobName).Info("Job removed from scheduler")

	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// RunJob runs a job immediately, ignoring the window, and waits for it.
func (s *Scheduler) RunJob(jobName string) (JobResult, error) {
	s.mu.RLock()
	e, exists := s.jobs[jobName]
	s.mu.RUnlock()

	if !exists {
		return JobResult{}, fmt.Errorf("job %s not found", jobName)
	}

	return s.runJob(e.job, false), nil
}

// runJob executes a job with retry logic and records the result.
func (s *Scheduler) runJob(job Job, scheduled bool) JobResult {
	s.wg.Add(1)
	defer s.wg.Done()

	jobName := job.Name()
	startTime := s.now()
	log := s.logger.WithField("job", jobName)

	result := JobResult{JobName: jobName, StartTime: startTime}

	if w, ok := job.(Windowed); ok && scheduled && w.RequiresWindow() && !s.InWindow(startTime) {
		result.Skipped = true
		result.EndTime = startTime
		s.record(result)
		log.WithField("time", startTime.In(s.loc).Format(time.Kitchen)).Warn("Job outside nightly window, skipped")
		return result
	}

	log.Info("Job started")

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		result.Attempts = attempt + 1

		lastErr = job.Run(s.ctx)
		if lastErr == nil {
			result.Success = true
			break
		}

		log.WithFields(map[string]interface{}{
			"attempt": attempt + 1,
			"error":   lastErr.Error(),
		}).Warn("Job execution failed")

		if attempt < s.maxRetries && !s.sleep(s.retryDelay) {
			break
		}
	}

	result.EndTime = s.now()
	result.Duration = result.EndTime.Sub(startTime)
	if !result.Success && lastErr != nil {
		result.Error = lastErr.Error()
	}
	s.record(result)

	if result.Success {
		log.WithFields(map[string]interface{}{
			"duration": result.Duration.String(),
			"attempts": result.Attempts,
		}).Info("Job completed successfully")
	} else {
		log.WithFields(map[string]interface{}{
			"duration": result.Duration.String(),
			"error":    result.Error,
		}).Error("Job failed after all retries")
	}
	return result
}

// sleep waits d and reports false if the scheduler stopped meanwhile.
func (s *Scheduler) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-s.ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (s *Scheduler) record(result JobResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if history, exists := s.history[result.JobName]; exists {
		history.AddResult(result)
	}
}

// GetJobHistory returns a copy of the history for a specific job
func (s *Scheduler) GetJobHistory(jobName string) (*JobHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, exists := s.history[jobName]
	if !exists {
		return nil, fmt.Errorf("job %s not found", jobName)
	}

	return &JobHistory{Results: append([]JobResult(nil), history.Results...)}, nil
}

// GetAllJobs returns the registered job names, sorted.
func (s *Scheduler) GetAllJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]string, 0, len(s.jobs))
	for jobName := range s.jobs {
		jobs = append(jobs, jobName)
	}
	sort.Strings(jobs)

	return jobs
}

// GetJobStats returns statistics for all registered jobs
func (s *Scheduler) GetJobStats() map[string]JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]JobStats)

	for jobName, e := range s.jobs {
		history := s.history[jobName]
		failedResults := history.GetFailedResults()

		st := JobStats{
			JobName:      jobName,
			Schedule:     e.job.Schedule(),
			TotalRuns:    len(history.Results),
			FailureCount: len(failedResults),
			SuccessRate:  history.GetSuccessRate(),
		}
		for _, r := range history.Results {
			switch {
			case r.Skipped:
				st.SkippedCount++
			case r.Success:
				st.SuccessCount++
			}
		}

		if latest := history.GetLatestResults(1); len(latest) == 1 {
			last := latest[0]
			st.LastRun = &last.StartTime
			if last.Success {
				st.LastSuccess = &last.StartTime
			} else if !last.Skipped {
				st.LastFailure = &last.StartTime
			}
		}
		if next := s.cron.Entry(e.id).Next; !next.IsZero() {
			st.NextRun = &next
		}

		stats[jobName] = st
	}

	return stats
}

// JobStats represents statistics for a job
type JobStats struct {
	JobName      string     `json:"job_name"`
	Schedule     string     `json:"schedule"`
	TotalRuns    int        `json:"total_runs"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	SkippedCount int        `json:"skipped_count"`
	SuccessRate  float64    `json:"success_rate"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
	NextRun      *time.Time `json:"next_run,omitempty"`
}
