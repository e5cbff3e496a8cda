// Package schedule runs periodic maintenance tasks, such as purging
// expired verification tokens, inside the server process.
//
//	s := schedule.New()
//	s.Every(time.Hour).Name("tokens:purge").WithoutOverlapping().Run(purge)
//	s.Start(ctx)
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// Task is a scheduled unit of work.
type Task func(ctx context.Context) error

type entry struct {
	id        string
	interval  time.Duration
	task      Task
	noOverlap bool

	mu      sync.Mutex
	lastRun time.Time
	running bool
}

// Scheduler owns a set of entries and the loop that dispatches them.
type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	wg      sync.WaitGroup
	tick    time.Duration
}

func New() *Scheduler {
	return &Scheduler{tick: time.Second}
}

// Builder configures one entry before Run registers it.
type Builder struct {
	s *Scheduler
	e *entry
}

// Every starts an entry that runs each interval. The first run happens on
// the first tick after Start.
func (s *Scheduler) Every(interval time.Duration) *Builder {
	return &Builder{s: s, e: &entry{interval: interval}}
}

// Hourly is Every(time.Hour).
func (s *Scheduler) Hourly() *Builder { return s.Every(time.Hour) }

// Name sets the identifier used in logs and List.
func (b *Builder) Name(id string) *Builder {
	b.e.id = id
	return b
}

// WithoutOverlapping skips a run while the previous one is still going.
func (b *Builder) WithoutOverlapping() *Builder {
	b.e.noOverlap = true
	return b
}

func (b *Builder) Run(task Task) {
	b.e.task = task
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.e.id == "" {
		b.e.id = fmt.Sprintf("task-%d", len(b.s.entries)+1)
	}
	b.s.entries = append(b.s.entries, b.e)
}

// Start ticks in the background until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()
		logger.Info("schedule: scheduler started", "tasks", len(s.List()))
		for {
			select {
			case <-ctx.Done():
				logger.Info("schedule: scheduler stopped")
				return
			case now := <-ticker.C:
				s.RunDue(ctx, now)
			}
		}
	}()
}

// RunDue dispatches every entry due at now and returns how many started.
func (s *Scheduler) RunDue(ctx context.Context, now time.Time) int {
	s.mu.Lock()
	current := make([]*entry, len(s.entries))
	copy(current, s.entries)
	s.mu.Unlock()

	started := 0
	for _, e := range current {
		if s.dispatch(ctx, e, now) {
			started++
		}
	}
	return started
}

// RunAll runs every entry once, synchronously. Used by `schedule:run`.
func (s *Scheduler) RunAll(ctx context.Context) error {
	s.mu.Lock()
	current := make([]*entry, len(s.entries))
	copy(current, s.entries)
	s.mu.Unlock()

	for _, e := range current {
		logger.Info("schedule: running task", "id", e.id)
		if err := e.task(ctx); err != nil {
			return fmt.Errorf("schedule: %s: %w", e.id, err)
		}
	}
	return nil
}

// Wait blocks until dispatched tasks have returned.
func (s *Scheduler) Wait() { s.wg.Wait() }

func (s *Scheduler) dispatch(ctx context.Context, e *entry, now time.Time) bool {
	e.mu.Lock()
	if !e.lastRun.IsZero() && now.Sub(e.lastRun) < e.interval {
		e.mu.Unlock()
		return false
	}
	if e.noOverlap && e.running {
		e.mu.Unlock()
		logger.Warn("schedule: skipping overlapping task", "id", e.id)
		return false
	}
	e.running = true
	e.lastRun = now
	e.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
			if r := recover(); r != nil {
				logger.Error("schedule: task panicked", "id", e.id, "panic", r)
			}
		}()
		if err := e.task(ctx); err != nil {
			logger.Error("schedule: task failed", "id", e.id, "error", err)
		}
	}()
	return true
}

// List describes the registered entries, for the CLI.
func (s *Scheduler) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, fmt.Sprintf("%s  [every %s]", e.id, e.interval))
	}
	return out
}
