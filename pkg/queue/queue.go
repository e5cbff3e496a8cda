// Package queue runs background jobs (verification and order mails) with
// retries, backed by an in-memory channel or Redis.
//
//	q := queue.New(queue.NewMemoryDriver())
//	q.Register("mail.send", func() queue.Job { return &SendMailJob{mailer: m} })
//	q.Work(ctx, 2)
//	q.Dispatch(ctx, &SendMailJob{To: "a@b.co"})
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

// Job is the interface every queued job must satisfy. Exported fields are
// serialized; dependencies are injected by the factory passed to Register.
type Job interface {
	Handle(ctx context.Context) error
}

// Named lets a job choose its registry name. Otherwise %T is used.
type Named interface {
	JobName() string
}

// Driver is the queue storage backend.
type Driver interface {
	Push(ctx context.Context, payload []byte) error
	// Pop blocks until a payload is available. (nil, nil) means "try again".
	Pop(ctx context.Context) ([]byte, error)
}

// DelayedDriver is implemented by drivers that can schedule payloads.
type DelayedDriver interface {
	PushDelayed(ctx context.Context, payload []byte, delay time.Duration) error
}

// ErrUnknownJob is returned when a payload names an unregistered job type.
var ErrUnknownJob = errors.New("queue: unknown job type")

// FailedJob holds information about a job that exhausted its retries.
type FailedJob struct {
	Type     string
	Err      error
	FailedAt time.Time
	Attempts int
}

// Manager is the queue hub: job registry, dispatcher and worker pool.
type Manager struct {
	mu       sync.RWMutex
	driver   Driver
	registry map[string]func() Job
	failed   []FailedJob
	db       *gorm.DB

	MaxAttempts int
	Backoff     func(attempt int) time.Duration
}

// New returns a Manager on driver with three attempts per job.
func New(driver Driver) *Manager {
	return &Manager{
		driver:      driver,
		registry:    map[string]func() Job{},
		MaxAttempts: 3,
		Backoff:     func(attempt int) time.Duration { return time.Duration(attempt) * time.Second },
	}
}

// Register makes a job type available for decoding by name.
func (m *Manager) Register(name string, factory func() Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[name] = factory
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Dispatch pushes job for immediate processing.
func (m *Manager) Dispatch(ctx context.Context, job Job) error {
	env, err := encode(job)
	if err != nil {
		return err
	}
	return m.driver.Push(ctx, env)
}

// DispatchAfter schedules job after delay. Drivers without native delay
// support get a timer goroutine.
func (m *Manager) DispatchAfter(ctx context.Context, job Job, delay time.Duration) error {
	env, err := encode(job)
	if err != nil {
		return err
	}
	if d, ok := m.driver.(DelayedDriver); ok {
		return d.PushDelayed(ctx, env, delay)
	}
	time.AfterFunc(delay, func() {
		if err := m.driver.Push(context.Background(), env); err != nil {
			logger.Error("queue: delayed dispatch failed", "error", err)
		}
	})
	return nil
}

func jobName(job Job) string {
	if n, ok := job.(Named); ok {
		return n.JobName()
	}
	return fmt.Sprintf("%T", job)
}

func encode(job Job) ([]byte, error) {
	name := jobName(job)
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("queue: marshal job %s: %w", name, err)
	}
	env, err := json.Marshal(envelope{Type: name, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("queue: marshal envelope: %w", err)
	}
	return env, nil
}

// Work launches n workers that run until ctx is cancelled. The returned
// WaitGroup is done once every worker has exited.
func (m *Manager) Work(ctx context.Context, n int) *sync.WaitGroup {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.work(ctx)
		}()
	}
	logger.Info("queue: workers started", "count", n)
	return &wg
}

func (m *Manager) work(ctx context.Context) {
	for ctx.Err() == nil {
		raw, err := m.driver.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("queue: pop failed", "error", err)
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if raw == nil {
			continue
		}
		if err := m.Process(ctx, raw); err != nil {
			logger.Error("queue: process", "error", err)
		}
	}
}

// Process decodes one payload and runs it with retries. Exported so a
// worker loop can be driven synchronously in tests.
func (m *Manager) Process(ctx context.Context, raw []byte) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("queue: bad envelope: %w", err)
	}

	m.mu.RLock()
	factory, ok := m.registry[env.Type]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, env.Type)
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		return fmt.Errorf("queue: unmarshal %s: %w", env.Type, err)
	}

	m.runWithRetry(ctx, job, env.Type, env.Payload)
	return nil
}

func (m *Manager) runWithRetry(ctx context.Context, job Job, typeName string, payload []byte) {
	var lastErr error
	for attempt := 1; attempt <= m.MaxAttempts; attempt++ {
		err := job.Handle(ctx)
		if err == nil {
			logger.Debug("queue: job processed", "type", typeName, "attempt", attempt)
			metrics.RecordQueueJob(typeName, true)
			return
		}
		lastErr = err
		logger.Warn("queue: job failed", "type", typeName, "attempt", attempt, "error", err)

		if attempt < m.MaxAttempts {
			select {
			case <-ctx.Done():
				m.persistFailed(typeName, payload, ctx.Err(), attempt)
				return
			case <-time.After(m.Backoff(attempt)):
			}
		}
	}

	m.persistFailed(typeName, payload, lastErr, m.MaxAttempts)
	metrics.RecordQueueJob(typeName, false)
	logger.Error("queue: job exhausted retries", "type", typeName, "error", lastErr)
}

// FailedJobs returns a snapshot of jobs that exhausted retries in this process.
func (m *Manager) FailedJobs() []FailedJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]FailedJob, len(m.failed))
	copy(out, m.failed)
	return out
}
