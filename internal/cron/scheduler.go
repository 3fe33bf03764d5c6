package cron

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kayz/modprompt/internal/logger"
	"github.com/robfig/cron/v3"
)

// Scheduler runs named maintenance jobs such as retention cleanup.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
	jobs map[string]*Job
	mu   sync.RWMutex
	now  func() time.Time
}

// NewScheduler creates a scheduler whose jobs receive ctx.
func NewScheduler(ctx context.Context) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		ctx:  ctx,
		jobs: make(map[string]*Job),
		now:  time.Now,
	}
}

// normalizeCron prepends "0 " to standard 5-field cron expressions
// so they work with the 6-field (with seconds) parser. Descriptors
// like @daily pass through.
func normalizeCron(schedule string) string {
	schedule = strings.TrimSpace(schedule)
	if len(strings.Fields(schedule)) == 5 {
		return "0 " + schedule
	}
	return schedule
}

// Add registers a job. Names are unique.
func (s *Scheduler) Add(name, schedule string, fn Func) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}
	job := &Job{Name: name, Schedule: schedule, run: fn}
	_, err := s.cron.AddFunc(normalizeCron(schedule), func() {
		s.execute(name)
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", schedule, err)
	}
	s.jobs[name] = job
	return nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("[CRON] Scheduler started with %d jobs", s.Len())
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("[CRON] Scheduler stopped")
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// RunNow executes a job immediately, outside its schedule.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	_, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job not found: %s", name)
	}
	return s.execute(name)
}

// Jobs returns copies of all jobs sorted by name.
func (s *Scheduler) Jobs() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.Clone())
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out
}

func (s *Scheduler) execute(name string) error {
	s.mu.RLock()
	job := s.jobs[name]
	s.mu.RUnlock()
	if job == nil {
		return nil
	}

	err := job.run(s.ctx)

	s.mu.Lock()
	now := s.now()
	job.LastRun = &now
	job.Runs++
	job.LastError = ""
	if err != nil {
		job.LastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		logger.Warn("[CRON] Job %s failed: %v", name, err)
	} else {
		logger.Debug("[CRON] Job %s completed", name)
	}
	return err
}
