package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scrutor/internal/models"
)

func TestStart_InvalidSchedule(t *testing.T) {
	s := New(func(ctx context.Context) (models.Summary, error) {
		return models.Summary{}, nil
	}, arbor.NewLogger())

	err := s.Start("not a schedule")
	assert.Error(t, err)
}

func TestScheduler_RunsSweepOnSchedule(t *testing.T) {
	var calls int32
	s := New(func(ctx context.Context) (models.Summary, error) {
		atomic.AddInt32(&calls, 1)
		return models.Summary{Total: 1, Completed: 1, Progress: 100}, nil
	}, arbor.NewLogger())

	require.NoError(t, s.Start("* * * * * *")) // every second
	defer s.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for atomic.LoadInt32(&calls) == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	assert.Positive(t, atomic.LoadInt32(&calls))
}

func TestScheduler_SkipsOverlappingSweep(t *testing.T) {
	var inFlight, maxInFlight int32
	block := make(chan struct{})
	s := New(func(ctx context.Context) (models.Summary, error) {
		current := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			prev := atomic.LoadInt32(&maxInFlight)
			if current <= prev || atomic.CompareAndSwapInt32(&maxInFlight, prev, current) {
				break
			}
		}
		<-block
		return models.Summary{}, nil
	}, arbor.NewLogger())

	s.RunNow()
	time.Sleep(100 * time.Millisecond) // let the first sweep claim the flag
	s.RunNow()
	time.Sleep(100 * time.Millisecond)
	close(block)
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
}
