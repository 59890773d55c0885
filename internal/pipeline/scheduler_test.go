package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/eeg/generator"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Seed = 42
	s, err := NewScheduler(cfg)
	require.NoError(t, err)
	return s
}

func TestRunCyclesSequencesAreContiguous(t *testing.T) {
	s := newTestScheduler(t)

	records, err := s.RunCycles(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, records, 100)

	for i, record := range records {
		assert.Equal(t, int64(i+1), record.Sequence, "sequence gap at record %d", i)
		assert.Equal(t, "relaxed", record.CurrentMode)
		assert.False(t, record.Timestamp.IsZero())
		assert.GreaterOrEqual(t, record.BandPowers.Total(), 0.0)
	}
}

func TestRunCyclesDeterministicScores(t *testing.T) {
	first := newTestScheduler(t)
	second := newTestScheduler(t)

	a, err := first.RunCycles(context.Background(), 20)
	require.NoError(t, err)
	b, err := second.RunCycles(context.Background(), 20)
	require.NoError(t, err)

	for i := range a {
		assert.Equal(t, a[i].BandPowers, b[i].BandPowers, "band powers diverged at cycle %d", i)
		assert.Equal(t, a[i].MentalState, b[i].MentalState, "scores diverged at cycle %d", i)
	}
}

func TestRunCyclesHonorsContextCancellation(t *testing.T) {
	s := newTestScheduler(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records, err := s.RunCycles(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, records)
}

func TestSetModeTakesEffect(t *testing.T) {
	s := newTestScheduler(t)

	require.NoError(t, s.SetMode(generator.ModeStressed))
	assert.Equal(t, generator.ModeStressed, s.Mode())

	records, err := s.RunCycles(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "stressed", records[0].CurrentMode)
}

func TestSetModeStringRejectsUnknownNames(t *testing.T) {
	s := newTestScheduler(t)

	assert.Error(t, s.SetModeString("meditating"))
	assert.Equal(t, generator.ModeRelaxed, s.Mode(), "mode changed despite rejection")

	require.NoError(t, s.SetModeString("sleepy"))
	assert.Equal(t, generator.ModeSleepy, s.Mode())
}

func TestStressedModeCrossesThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 42
	cfg.InitialMode = generator.ModeStressed
	s, err := NewScheduler(cfg)
	require.NoError(t, err)

	// Let the window fill entirely with stressed-mode samples
	records, err := s.RunCycles(context.Background(), 16)
	require.NoError(t, err)

	last := records[len(records)-1]
	assert.GreaterOrEqual(t, last.MentalState.Stress, 70)
	assert.NotEmpty(t, last.Recommendations)
	assert.Equal(t, "break_prompt", string(last.Recommendations[0].Kind))
}

func TestSleepyModeCrossesThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 42
	cfg.InitialMode = generator.ModeSleepy
	s, err := NewScheduler(cfg)
	require.NoError(t, err)

	records, err := s.RunCycles(context.Background(), 16)
	require.NoError(t, err)

	last := records[len(records)-1]
	assert.GreaterOrEqual(t, last.MentalState.Sleepiness, 70)
}

func TestSubscribeReceivesEmittedRecords(t *testing.T) {
	s := newTestScheduler(t)

	ch, cancel := s.Subscribe(32)
	defer cancel()

	records, err := s.RunCycles(context.Background(), 5)
	require.NoError(t, err)

	for _, want := range records {
		select {
		case got := <-ch:
			assert.Equal(t, want.Sequence, got.Sequence)
		default:
			t.Fatalf("subscriber missed record %d", want.Sequence)
		}
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	s := newTestScheduler(t)

	// Buffer of one: every record beyond the first is dropped
	_, cancel := s.Subscribe(1)
	defer cancel()

	_, err := s.RunCycles(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, int64(9), s.Dropped())
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	s := newTestScheduler(t)

	ch, cancel := s.Subscribe(1)
	cancel()

	_, open := <-ch
	assert.False(t, open)

	// A second cancel is a no-op, not a double close
	cancel()
}

func TestStartStopLifecycle(t *testing.T) {
	s := newTestScheduler(t)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.Running())

	// Starting twice is rejected
	assert.Error(t, s.Start(context.Background()))

	s.Stop()
	assert.False(t, s.Running())

	// Stop on a stopped scheduler is a no-op
	s.Stop()

	// The scheduler can be started again after a stop
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}

func TestTimerDrivenEmission(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 42
	// Shrink the geometry so the window fills quickly under the timer
	cfg.WindowSeconds = 0.125
	cfg.HopSeconds = 0.03125
	s, err := NewScheduler(cfg)
	require.NoError(t, err)

	ch, cancel := s.Subscribe(64)
	defer cancel()

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	select {
	case record := <-ch:
		assert.Equal(t, int64(1), record.Sequence)
	case <-time.After(5 * time.Second):
		t.Fatal("no cycle record emitted by the timer loop")
	}
}

func TestStopDiscardsPartialWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 42
	cfg.WindowSeconds = 0.125
	cfg.HopSeconds = 0.03125
	s, err := NewScheduler(cfg)
	require.NoError(t, err)

	ch, cancel := s.Subscribe(256)
	defer cancel()

	require.NoError(t, s.Start(context.Background()))

	// Wait until the buffer has filled at least once, then stop
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("no cycle record before stop")
	}
	s.Stop()

	// The buffered samples were discarded, so the first record after a
	// restart must consume a full fresh window rather than a single hop
	before := s.sampleIndex
	records, err := s.RunCycles(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(s.an.WindowSize()), s.sampleIndex-before)
}

func TestNoEmissionAfterStop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 42
	cfg.WindowSeconds = 0.125
	cfg.HopSeconds = 0.03125
	s, err := NewScheduler(cfg)
	require.NoError(t, err)

	ch, cancel := s.Subscribe(256)
	defer cancel()

	require.NoError(t, s.Start(context.Background()))

	// Wait for at least one record, then stop
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("no cycle record before stop")
	}
	s.Stop()

	// Drain anything emitted before the stop was observed
	for len(ch) > 0 {
		<-ch
	}

	time.Sleep(5 * s.hopInterval)
	assert.Zero(t, len(ch), "record emitted after stop")
}
