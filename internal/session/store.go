package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/fatihsahinbas/eeg-mental-tracker/internal/pipeline"
	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/logging"
)

// FieldStats summarizes one score across a session
type FieldStats struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
}

// Stats summarizes a recorded session
type Stats struct {
	SessionID       string     `json:"session_id"`
	DataPoints      int        `json:"total_data_points"`
	DurationSeconds float64    `json:"duration_seconds"`
	Stress          FieldStats `json:"stress"`
	Focus           FieldStats `json:"focus"`
	Sleepiness      FieldStats `json:"sleepiness"`
}

// Store is the persistence collaborator. It appends the cycle records the
// pipeline emits, saves them as a JSON session file, and computes summary
// statistics. The pipeline itself never touches storage.
type Store struct {
	mu        sync.RWMutex
	id        uuid.UUID
	startedAt time.Time
	records   []pipeline.CycleRecord

	dataDir string
	logger  logging.Logger
}

// NewStore creates an empty session store writing under dataDir
func NewStore(dataDir string, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Store{
		id:        uuid.New(),
		startedAt: time.Now(),
		dataDir:   dataDir,
		logger:    logger.WithFields(logging.Fields{"component": "session_store"}),
	}
}

// ID returns the session identifier
func (s *Store) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id.String()
}

// Append adds one cycle record to the session log
func (s *Store) Append(record pipeline.CycleRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
}

// Consume appends records from a pipeline subscription until the channel is
// closed. It is intended to run in its own goroutine.
func (s *Store) Consume(ch <-chan pipeline.CycleRecord) {
	for record := range ch {
		s.Append(record)
	}
}

// Len returns the number of recorded cycles
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Records returns a copy of the recorded cycles
func (s *Store) Records() []pipeline.CycleRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]pipeline.CycleRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Save writes the session to data_dir/session_YYYYMMDD_HHMMSS.json and
// returns the file path
func (s *Store) Save() (string, error) {
	s.mu.RLock()
	records := s.records
	dataPoints := len(records)
	s.mu.RUnlock()

	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	filename := fmt.Sprintf("session_%s.json", time.Now().Format("20060102_150405"))
	path := filepath.Join(s.dataDir, filename)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write session file: %w", err)
	}

	s.logger.Info("Session saved", logging.Fields{
		"path":        path,
		"data_points": dataPoints,
	})

	return path, nil
}

// Clear discards all recorded cycles and starts a fresh session
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.id = uuid.New()
	s.startedAt = time.Now()
}

// Summarize computes min/max/average statistics per score across the
// session. It returns nil for an empty session.
func (s *Store) Summarize() *Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.records)
	if n == 0 {
		return nil
	}

	stress := make([]float64, n)
	focus := make([]float64, n)
	sleepiness := make([]float64, n)
	for i, record := range s.records {
		stress[i] = float64(record.MentalState.Stress)
		focus[i] = float64(record.MentalState.Focus)
		sleepiness[i] = float64(record.MentalState.Sleepiness)
	}

	duration := 0.0
	if n > 1 {
		duration = s.records[n-1].Timestamp.Sub(s.records[0].Timestamp).Seconds()
	}

	return &Stats{
		SessionID:       s.id.String(),
		DataPoints:      n,
		DurationSeconds: duration,
		Stress:          summarizeField(stress),
		Focus:           summarizeField(focus),
		Sleepiness:      summarizeField(sleepiness),
	}
}

func summarizeField(values []float64) FieldStats {
	return FieldStats{
		Min:     floats.Min(values),
		Max:     floats.Max(values),
		Average: stat.Mean(values, nil),
	}
}
