package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDueRespectsInterval(t *testing.T) {
	s := New()
	var runs atomic.Int32
	s.Every(time.Hour).Name("purge").Run(func(context.Context) error {
		runs.Add(1)
		return nil
	})

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	assert.Equal(t, 1, s.RunDue(ctx, now))
	s.Wait()
	assert.Equal(t, 0, s.RunDue(ctx, now.Add(30*time.Minute)))
	assert.Equal(t, 1, s.RunDue(ctx, now.Add(time.Hour)))
	s.Wait()

	assert.Equal(t, int32(2), runs.Load())
}

func TestWithoutOverlapping(t *testing.T) {
	s := New()
	release := make(chan struct{})
	s.Every(time.Millisecond).WithoutOverlapping().Run(func(context.Context) error {
		<-release
		return nil
	})

	now := time.Now()
	ctx := context.Background()
	require.Equal(t, 1, s.RunDue(ctx, now))
	assert.Equal(t, 0, s.RunDue(ctx, now.Add(time.Second)))

	close(release)
	s.Wait()
	assert.Equal(t, 1, s.RunDue(ctx, now.Add(2*time.Second)))
	s.Wait()
}

func TestTaskPanicIsContained(t *testing.T) {
	s := New()
	s.Every(time.Minute).Run(func(context.Context) error { panic("boom") })

	assert.NotPanics(t, func() {
		s.RunDue(context.Background(), time.Now())
		s.Wait()
	})
}

func TestRunAllAndList(t *testing.T) {
	s := New()
	s.Hourly().Name("tokens:purge").Run(func(context.Context) error { return nil })
	s.Every(time.Minute).Run(func(context.Context) error { return errors.New("db down") })

	assert.Equal(t, []string{"tokens:purge  [every 1h0m0s]", "task-2  [every 1m0s]"}, s.List())

	err := s.RunAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task-2")
}
