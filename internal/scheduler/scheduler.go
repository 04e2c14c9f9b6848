package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/antlu/giveaway-assistant/internal/logger"
)

// Job is a periodic task. Do must return once ctx is cancelled.
type Job interface {
	Name() string
	Interval() time.Duration
	Do(ctx context.Context)
}

// Manager runs every registered job once at start and then on its own
// ticker. A tick that arrives while the previous run of the same job is still
// going is dropped.
type Manager struct {
	log  logger.Logger
	jobs []Job
	wait sync.WaitGroup
}

func NewManager(log logger.Logger) *Manager {
	return &Manager{log: log}
}

func (m *Manager) Register(job Job) {
	m.jobs = append(m.jobs, job)
}

// Start blocks until ctx is done and every job has returned.
func (m *Manager) Start(ctx context.Context) error {
	m.log.Infof("Scheduler started with %d jobs", len(m.jobs))

	for _, job := range m.jobs {
		m.wait.Add(1)
		go m.loop(ctx, job)
	}

	m.wait.Wait()
	m.log.Infof("Scheduler stopped")
	return ctx.Err()
}

func (m *Manager) loop(ctx context.Context, job Job) {
	defer m.wait.Done()

	// Catch up on whatever came due while the process was down.
	m.run(ctx, job)

	ticker := time.NewTicker(job.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.run(ctx, job)
		}
	}
}

func (m *Manager) run(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Errorf("Job %s panicked: %v", job.Name(), r)
		}
	}()

	m.log.Debugf("%s is running...", job.Name())
	job.Do(ctx)
	m.log.Debugf("%s ok", job.Name())
}

// Func adapts a function into a Job.
type Func struct {
	JobName string
	Every   time.Duration
	Fn      func(ctx context.Context)
}

func (f Func) Name() string            { return f.JobName }
func (f Func) Interval() time.Duration { return f.Every }
func (f Func) Do(ctx context.Context)  { f.Fn(ctx) }
