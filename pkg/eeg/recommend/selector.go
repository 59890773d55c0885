package recommend

import (
	"sort"

	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/eeg/classifier"
	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/logging"
)

// Kind tags the variant of a recommendation
type Kind string

const (
	KindAudioSuggestion   Kind = "audio_suggestion"
	KindBreathingExercise Kind = "breathing_exercise"
	KindBreakPrompt       Kind = "break_prompt"
)

// Break reasons
const (
	ReasonHighStress = "high_stress"
	ReasonDrowsiness = "drowsiness"
)

// Breathing pattern identifiers
const (
	PatternFourSevenEight = "4-7-8"
	PatternBellowsBreath  = "bellows_breath"
)

// Recommendation is one actionable suggestion. It carries everything a
// consumer needs to act without further lookups; kind-specific fields are
// omitted from the wire format when empty.
type Recommendation struct {
	Kind            Kind   `json:"kind"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"duration_minutes"`
	// Severity is the triggering score, used for ordering
	Severity int `json:"severity"`

	// AudioSuggestion fields
	FrequencyHz float64 `json:"frequency_hz,omitempty"`
	BandLabel   string  `json:"band_label,omitempty"`

	// BreathingExercise field
	PatternID string `json:"pattern_id,omitempty"`

	// BreakPrompt field
	Reason string `json:"reason,omitempty"`
}

// SelectionThresholds names the trigger points of the selection policy
type SelectionThresholds struct {
	HighStress         int `yaml:"high_stress" mapstructure:"high_stress"`
	HighSleepiness     int `yaml:"high_sleepiness" mapstructure:"high_sleepiness"`
	LowFocus           int `yaml:"low_focus" mapstructure:"low_focus"`
	MaxRecommendations int `yaml:"max_recommendations" mapstructure:"max_recommendations"`
}

// DefaultThresholds returns the default selection policy
func DefaultThresholds() SelectionThresholds {
	return SelectionThresholds{
		HighStress:         70,
		HighSleepiness:     70,
		LowFocus:           40,
		MaxRecommendations: 3,
	}
}

// Selector maps a mental state to an ordered recommendation list. It is
// stateless; identical inputs always yield identical output.
type Selector struct {
	thresholds SelectionThresholds
	logger     logging.Logger
}

// New creates a selector with the given policy
func New(thresholds SelectionThresholds, logger logging.Logger) *Selector {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if thresholds.MaxRecommendations <= 0 {
		thresholds.MaxRecommendations = DefaultThresholds().MaxRecommendations
	}
	return &Selector{
		thresholds: thresholds,
		logger:     logger.WithFields(logging.Fields{"component": "recommendation_selector"}),
	}
}

// Recommend returns the suggestions for a mental state, most urgent first,
// deduplicated by kind and capped. An empty list is a valid outcome meaning
// no threshold fired.
func (s *Selector) Recommend(state classifier.MentalState) []Recommendation {
	t := s.thresholds
	var candidates []Recommendation

	if state.Stress >= t.HighStress {
		candidates = append(candidates, stressRecommendations(state.Stress)...)
	}

	if state.Sleepiness >= t.HighSleepiness {
		candidates = append(candidates, sleepinessRecommendations(state.Sleepiness)...)
	}

	if state.Focus < t.LowFocus && state.Stress < t.HighStress && state.Sleepiness < t.HighSleepiness {
		candidates = append(candidates, focusRecommendation(state.Focus))
	}

	// Most urgent first; the stable sort preserves per-trigger ordering
	// between candidates of equal severity
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Severity > candidates[j].Severity
	})

	selected := make([]Recommendation, 0, t.MaxRecommendations)
	seen := make(map[Kind]bool, 3)
	for _, rec := range candidates {
		if seen[rec.Kind] {
			continue
		}
		seen[rec.Kind] = true
		selected = append(selected, rec)
		if len(selected) >= t.MaxRecommendations {
			break
		}
	}

	return selected
}

// stressRecommendations encourage relaxation: a pause, alpha-band binaural
// audio, and a slow breathing pattern
func stressRecommendations(severity int) []Recommendation {
	return []Recommendation{
		{
			Kind:            KindBreakPrompt,
			Title:           "Take a short break",
			Description:     "Stand up, stretch, and drink some water before continuing.",
			DurationMinutes: 5,
			Severity:        severity,
			Reason:          ReasonHighStress,
		},
		{
			Kind:            KindAudioSuggestion,
			Title:           "Alpha wave audio",
			Description:     "A 10 Hz binaural beat supports deep relaxation; headphones recommended.",
			DurationMinutes: 10,
			Severity:        severity,
			FrequencyHz:     10.0,
			BandLabel:       "alpha",
		},
		{
			Kind:            KindBreathingExercise,
			Title:           "4-7-8 breathing",
			Description:     "Inhale for 4 seconds, hold for 7, exhale for 8. Repeat four times.",
			DurationMinutes: 5,
			Severity:        severity,
			PatternID:       PatternFourSevenEight,
		},
	}
}

// sleepinessRecommendations counter drowsiness: an energizing pause and a
// fast breathing pattern
func sleepinessRecommendations(severity int) []Recommendation {
	return []Recommendation{
		{
			Kind:            KindBreakPrompt,
			Title:           "Energy break",
			Description:     "Take a short walk or do light stretching, ideally in daylight.",
			DurationMinutes: 10,
			Severity:        severity,
			Reason:          ReasonDrowsiness,
		},
		{
			Kind:            KindBreathingExercise,
			Title:           "Bellows breath",
			Description:     "Rapid deep breathing for 30 seconds, then 30 seconds of normal breathing.",
			DurationMinutes: 3,
			Severity:        severity,
			PatternID:       PatternBellowsBreath,
		},
	}
}

// focusRecommendation encourages engagement with beta-band audio; its
// severity grows as focus drops
func focusRecommendation(focus int) Recommendation {
	return Recommendation{
		Kind:            KindAudioSuggestion,
		Title:           "Beta wave audio",
		Description:     "A 20 Hz binaural beat supports concentration; suitable as background audio.",
		DurationMinutes: 15,
		Severity:        100 - focus,
		FrequencyHz:     20.0,
		BandLabel:       "beta",
	}
}
