package scheduler

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clock is a settable time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

type countingReloader struct{ n atomic.Int32 }

func (r *countingReloader) Reload() { r.n.Add(1) }

func newTestScheduler(t *testing.T, start time.Time) (*Scheduler, *clock) {
	c := &clock{t: start}
	s := New(Options{Location: time.UTC, Now: c.Now})
	return s, c
}

// =============================================================================
// Day Change Tests
// =============================================================================

func TestCheckSameDay(t *testing.T) {
	s, c := newTestScheduler(t, time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC))
	fired := 0
	s.OnDayChange(func(time.Time) { fired++ })

	c.Set(time.Date(2024, 3, 13, 23, 59, 59, 0, time.UTC))
	assert.False(t, s.Check())
	assert.Equal(t, 0, fired)
}

func TestCheckNextDay(t *testing.T) {
	s, c := newTestScheduler(t, time.Date(2024, 3, 13, 23, 59, 0, 0, time.UTC))
	var got []time.Time
	s.OnDayChange(func(day time.Time) { got = append(got, day) })

	c.Set(time.Date(2024, 3, 14, 0, 0, 30, 0, time.UTC))
	assert.True(t, s.Check())
	assert.False(t, s.Check(), "fires once per day")

	require.Len(t, got, 1)
	assert.Equal(t, time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), got[0])
}

func TestCheckAfterSleep(t *testing.T) {
	s, c := newTestScheduler(t, time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC))
	fired := 0
	s.OnDayChange(func(time.Time) { fired++ })

	c.Set(time.Date(2024, 3, 17, 8, 0, 0, 0, time.UTC))
	assert.True(t, s.Check())
	assert.Equal(t, 1, fired)
}

func TestCheckUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	c := &clock{t: time.Date(2024, 3, 13, 14, 0, 0, 0, time.UTC)}
	s := New(Options{Location: tokyo, Now: c.Now})

	// 15:00 UTC is midnight in Tokyo.
	c.Set(time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC))
	assert.True(t, s.Check())
}

func TestRefreshAlwaysFires(t *testing.T) {
	s, _ := newTestScheduler(t, time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC))
	r := &countingReloader{}
	s.ReloadOnDayChange(r)

	s.Refresh()
	s.Refresh()
	assert.Equal(t, int32(2), r.n.Load())
	assert.False(t, s.Check())
}

// =============================================================================
// Cron Tests
// =============================================================================

func TestSchedulerStartStop(t *testing.T) {
	s := New(Options{})
	require.NoError(t, s.Start())
	assert.Len(t, s.Entries(), 2)
	assert.False(t, s.NextRun().IsZero())
	s.Stop()
}

func TestSchedulerInvalidSpec(t *testing.T) {
	s := New(Options{Spec: "every tuesday"})
	assert.Error(t, s.Start())
}

func TestSchedulerAddRemoveJob(t *testing.T) {
	s := New(Options{})

	id, err := s.AddJob("@every 1s", func() {})
	require.NoError(t, err)
	assert.Len(t, s.Entries(), 1)

	s.RemoveJob(id)
	assert.Empty(t, s.Entries())
	assert.True(t, s.NextRun().IsZero())
}

func TestSchedulerRunsJob(t *testing.T) {
	s := New(Options{})
	var ran atomic.Bool
	_, err := s.AddJob("@every 1s", func() { ran.Store(true) })
	require.NoError(t, err)

	require.NoError(t, s.Start())
	defer s.Stop()
	require.Eventually(t, ran.Load, 3*time.Second, 50*time.Millisecond)
}

func TestValidateSpec(t *testing.T) {
	assert.NoError(t, ValidateSpec(DefaultSpec))
	assert.NoError(t, ValidateSpec("30 6 * * 1-5"))
	assert.Error(t, ValidateSpec("0 0 0 * * *"))
	assert.Error(t, ValidateSpec(""))
}
