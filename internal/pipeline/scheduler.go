package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/eeg/analyzer"
	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/eeg/classifier"
	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/eeg/generator"
	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/eeg/recommend"
	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/logging"
)

// Config contains scheduler construction parameters
type Config struct {
	InitialMode    generator.OperatingMode
	Seed           int64
	NoiseAmplitude float64
	WindowSeconds  float64
	HopSeconds     float64

	// Nil selects the default calibrations
	Thresholds *classifier.ClassificationThresholds
	Selection  *recommend.SelectionThresholds

	Logger logging.Logger
}

// DefaultConfig returns the scheduler defaults
func DefaultConfig() *Config {
	return &Config{
		InitialMode:    generator.ModeRelaxed,
		Seed:           1,
		NoiseAmplitude: 0.5,
		WindowSeconds:  analyzer.DefaultWindowSeconds,
		HopSeconds:     analyzer.DefaultHopSeconds,
	}
}

// Scheduler owns one generator+analyzer+classifier+selector chain for a
// single streaming session and drives it at the fixed hop interval. Each
// session gets its own Scheduler; no state is shared between instances.
//
// Stop policy: stopping discards the partial window in flight; no record is
// delivered for a window that had not completed when the stop was observed.
type Scheduler struct {
	gen *generator.Generator
	an  *analyzer.Analyzer
	cls *classifier.Classifier
	sel *recommend.Selector

	hopInterval time.Duration
	hopSize     int

	mode    atomic.Int32
	stopped atomic.Bool

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	sampleIndex int64
	cycleSeq    int64

	subMu     sync.RWMutex
	subs      map[int]chan CycleRecord
	nextSubID int
	dropped   atomic.Int64

	logger logging.Logger
}

// NewScheduler creates a scheduler for one streaming session
func NewScheduler(cfg *Config) (*Scheduler, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	logger = logger.WithFields(logging.Fields{"component": "pipeline_scheduler"})

	gen := generator.New(&generator.Config{
		Seed:           cfg.Seed,
		NoiseAmplitude: cfg.NoiseAmplitude,
		Logger:         logger,
	})

	an, err := analyzer.New(&analyzer.Config{
		SampleRate:    generator.SampleRate,
		WindowSeconds: cfg.WindowSeconds,
		HopSeconds:    cfg.HopSeconds,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer: %w", err)
	}

	thresholds := classifier.DefaultThresholds()
	if cfg.Thresholds != nil {
		thresholds = *cfg.Thresholds
	}

	selection := recommend.DefaultThresholds()
	if cfg.Selection != nil {
		selection = *cfg.Selection
	}

	s := &Scheduler{
		gen:         gen,
		an:          an,
		cls:         classifier.New(thresholds, logger),
		sel:         recommend.New(selection, logger),
		hopInterval: time.Duration(cfg.HopSeconds * float64(time.Second)),
		hopSize:     an.HopSize(),
		subs:        make(map[int]chan CycleRecord),
		logger:      logger,
	}
	s.mode.Store(int32(cfg.InitialMode))

	return s, nil
}

// Mode returns the active operating mode
func (s *Scheduler) Mode() generator.OperatingMode {
	return generator.OperatingMode(s.mode.Load())
}

// SetMode changes the synthesis mode. The change takes effect at the next
// sample boundary; the rolling window is deliberately not cleared, so a
// brief transition period with mixed-mode content is expected.
func (s *Scheduler) SetMode(mode generator.OperatingMode) error {
	if _, err := generator.ParseOperatingMode(mode.String()); err != nil {
		return err
	}
	s.mode.Store(int32(mode))
	s.logger.Info("Operating mode changed", logging.Fields{"mode": mode.String()})
	return nil
}

// SetModeString parses and applies a mode name, rejecting unknown names
// before they can reach the generator
func (s *Scheduler) SetModeString(name string) error {
	mode, err := generator.ParseOperatingMode(name)
	if err != nil {
		return err
	}
	return s.SetMode(mode)
}

// Running reports whether the streaming loop is active
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Subscribe registers a consumer of cycle records. Records are handed off
// without blocking; a consumer that falls behind its buffer drops records
// rather than stalling the pipeline. The returned cancel function closes the
// channel and releases the subscription.
func (s *Scheduler) Subscribe(buffer int) (<-chan CycleRecord, func()) {
	if buffer < 1 {
		buffer = 1
	}

	ch := make(chan CycleRecord, buffer)

	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = ch
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if existing, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(existing)
		}
	}

	return ch, cancel
}

// Dropped returns the number of records discarded due to slow consumers
func (s *Scheduler) Dropped() int64 {
	return s.dropped.Load()
}

// Start launches the timer-driven streaming loop. It returns an error if the
// scheduler is already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true
	s.stopped.Store(false)

	s.logger.Info("Streaming started", logging.Fields{
		"mode":            s.Mode().String(),
		"hop_interval_ms": s.hopInterval.Milliseconds(),
	})

	go s.run(runCtx)
	return nil
}

// Stop halts streaming. No sample is generated after the stop is observed;
// the partial window in flight is discarded. Stop blocks until the loop has
// exited.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.stopped.Store(true)
	s.cancel()
	done := s.done
	s.mu.Unlock()

	<-done
	// the loop has exited; flush the partial window so a later Start begins
	// from a fresh buffer
	s.an.Reset()
	s.logger.Info("Streaming stopped", logging.Fields{
		"cycles_emitted": s.cycleSeq,
		"dropped":        s.dropped.Load(),
	})
}

// run is the periodic driver: one tick per hop interval, one hop of samples
// per tick
func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.hopInterval)
	defer ticker.Stop()
	defer func() {
		s.mu.Lock()
		s.running = false
		close(s.done)
		s.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			s.stopped.Store(true)
			return
		case <-ticker.C:
			if record := s.tick(); record != nil {
				s.emit(record)
			}
		}
	}
}

// RunCycles drives the pipeline synchronously, without the wall-clock timer,
// until n cycle records have been produced. It is used by the headless CLI
// and by tests; records are also fanned out to any subscribers.
func (s *Scheduler) RunCycles(ctx context.Context, n int) ([]CycleRecord, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.stopped.Store(false)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	records := make([]CycleRecord, 0, n)
	for len(records) < n {
		select {
		case <-ctx.Done():
			return records, ctx.Err()
		default:
		}

		if record := s.tick(); record != nil {
			s.emit(record)
			records = append(records, *record)
		}
	}

	return records, nil
}

// tick generates one hop of samples and runs the downstream stages when the
// analyzer completes a window. The stop flag is checked before every sample
// so no sample is generated once stopped.
func (s *Scheduler) tick() *CycleRecord {
	var bandPowers *analyzer.BandPowers

	for i := 0; i < s.hopSize; i++ {
		if s.stopped.Load() {
			return nil
		}

		sample := s.gen.NextSample(s.Mode(), s.sampleIndex)
		s.sampleIndex++

		if bp := s.an.Push(sample); bp != nil {
			bandPowers = bp
		}
	}

	if bandPowers == nil {
		return nil
	}

	state := s.cls.Classify(*bandPowers)
	recommendations := s.sel.Recommend(state)

	s.cycleSeq++
	return &CycleRecord{
		Sequence:        s.cycleSeq,
		Timestamp:       time.Now(),
		CurrentMode:     s.Mode().String(),
		BandPowers:      *bandPowers,
		MentalState:     state,
		Recommendations: recommendations,
	}
}

// emit hands a record to every subscriber without blocking, preserving
// emission order. Slow consumers drop their own records.
func (s *Scheduler) emit(record *CycleRecord) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()

	for _, ch := range s.subs {
		select {
		case ch <- *record:
		default:
			s.dropped.Add(1)
		}
	}
}
