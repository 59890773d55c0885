package pipeline

import (
	"time"

	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/eeg/analyzer"
	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/eeg/classifier"
	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/eeg/recommend"
)

// CycleRecord is the structured record emitted once per completed analysis
// cycle. Its field names and nesting are the stable contract consumed by the
// transport and persistence layers.
type CycleRecord struct {
	Sequence        int64                      `json:"sequence"`
	Timestamp       time.Time                  `json:"timestamp"`
	CurrentMode     string                     `json:"current_mode"`
	BandPowers      analyzer.BandPowers        `json:"band_powers"`
	MentalState     classifier.MentalState     `json:"mental_state"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
}
