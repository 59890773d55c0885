package session

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/fatihsahinbas/eeg-mental-tracker/internal/pipeline"
	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/eeg/classifier"
)

type StoreTestSuite struct {
	suite.Suite
	dir   string
	store *Store
}

func (s *StoreTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.store = NewStore(s.dir, nil)
}

func (s *StoreTestSuite) record(seq int64, stress, focus, sleepiness int) pipeline.CycleRecord {
	return pipeline.CycleRecord{
		Sequence:    seq,
		Timestamp:   time.Date(2026, 8, 26, 12, 0, int(seq), 0, time.UTC),
		CurrentMode: "relaxed",
		MentalState: classifier.MentalState{
			Stress:     stress,
			Focus:      focus,
			Sleepiness: sleepiness,
			Confidence: 0.9,
		},
	}
}

func (s *StoreTestSuite) TestAppendAndLen() {
	s.Zero(s.store.Len())

	s.store.Append(s.record(1, 30, 60, 20))
	s.store.Append(s.record(2, 40, 55, 25))

	s.Equal(2, s.store.Len())
	records := s.store.Records()
	s.Require().Len(records, 2)
	s.Equal(int64(1), records[0].Sequence)
}

func (s *StoreTestSuite) TestRecordsReturnsACopy() {
	s.store.Append(s.record(1, 30, 60, 20))

	records := s.store.Records()
	records[0].Sequence = 99

	s.Equal(int64(1), s.store.Records()[0].Sequence)
}

func (s *StoreTestSuite) TestSaveWritesSessionFile() {
	s.store.Append(s.record(1, 30, 60, 20))
	s.store.Append(s.record(2, 80, 40, 10))

	path, err := s.store.Save()
	s.Require().NoError(err)
	s.Contains(path, s.dir)
	s.Contains(path, "session_")

	data, err := os.ReadFile(path)
	s.Require().NoError(err)

	var records []pipeline.CycleRecord
	s.Require().NoError(json.Unmarshal(data, &records))
	s.Require().Len(records, 2)
	s.Equal(80, records[1].MentalState.Stress)
}

func (s *StoreTestSuite) TestClearStartsFreshSession() {
	s.store.Append(s.record(1, 30, 60, 20))
	oldID := s.store.ID()

	s.store.Clear()

	s.Zero(s.store.Len())
	s.NotEqual(oldID, s.store.ID(), "session id not rotated on clear")
}

func (s *StoreTestSuite) TestSummarizeEmptySessionIsNil() {
	s.Nil(s.store.Summarize())
}

func (s *StoreTestSuite) TestSummarizeComputesFieldStats() {
	s.store.Append(s.record(1, 20, 60, 10))
	s.store.Append(s.record(2, 40, 70, 20))
	s.store.Append(s.record(3, 90, 50, 30))

	stats := s.store.Summarize()
	s.Require().NotNil(stats)

	s.Equal(s.store.ID(), stats.SessionID)
	s.Equal(3, stats.DataPoints)
	// Timestamps are one second apart
	s.InDelta(2.0, stats.DurationSeconds, 1e-9)

	s.Equal(20.0, stats.Stress.Min)
	s.Equal(90.0, stats.Stress.Max)
	s.InDelta(50.0, stats.Stress.Average, 1e-9)

	s.Equal(50.0, stats.Focus.Min)
	s.Equal(70.0, stats.Focus.Max)
	s.InDelta(60.0, stats.Focus.Average, 1e-9)

	s.Equal(10.0, stats.Sleepiness.Min)
	s.Equal(30.0, stats.Sleepiness.Max)
	s.InDelta(20.0, stats.Sleepiness.Average, 1e-9)
}

func (s *StoreTestSuite) TestConsumeDrainsChannel() {
	ch := make(chan pipeline.CycleRecord, 4)
	ch <- s.record(1, 30, 60, 20)
	ch <- s.record(2, 35, 62, 21)
	close(ch)

	s.store.Consume(ch)
	s.Equal(2, s.store.Len())
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func TestSaveCreatesDataDir(t *testing.T) {
	dir := t.TempDir() + "/nested/data"
	store := NewStore(dir, nil)
	store.Append(pipeline.CycleRecord{Sequence: 1, Timestamp: time.Now(), CurrentMode: "relaxed"})

	_, err := store.Save()
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
