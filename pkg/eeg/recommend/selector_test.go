package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/eeg/classifier"
)

func calmState() classifier.MentalState {
	return classifier.MentalState{Stress: 30, Focus: 60, Sleepiness: 30, Confidence: 0.9}
}

func TestRecommendCalmStateIsEmpty(t *testing.T) {
	s := New(DefaultThresholds(), nil)
	assert.Empty(t, s.Recommend(calmState()))
}

func TestRecommendHighStress(t *testing.T) {
	s := New(DefaultThresholds(), nil)

	state := calmState()
	state.Stress = 85
	recs := s.Recommend(state)

	require.Len(t, recs, 3)
	assert.Equal(t, KindBreakPrompt, recs[0].Kind)
	assert.Equal(t, ReasonHighStress, recs[0].Reason)

	kinds := map[Kind]Recommendation{}
	for _, rec := range recs {
		kinds[rec.Kind] = rec
		assert.Equal(t, 85, rec.Severity)
	}
	require.Contains(t, kinds, KindAudioSuggestion)
	assert.Equal(t, 10.0, kinds[KindAudioSuggestion].FrequencyHz)
	assert.Equal(t, "alpha", kinds[KindAudioSuggestion].BandLabel)
	require.Contains(t, kinds, KindBreathingExercise)
	assert.Equal(t, PatternFourSevenEight, kinds[KindBreathingExercise].PatternID)
}

func TestRecommendHighSleepiness(t *testing.T) {
	s := New(DefaultThresholds(), nil)

	state := calmState()
	state.Sleepiness = 90
	recs := s.Recommend(state)

	require.Len(t, recs, 2)
	assert.Equal(t, KindBreakPrompt, recs[0].Kind)
	assert.Equal(t, ReasonDrowsiness, recs[0].Reason)
	assert.Equal(t, KindBreathingExercise, recs[1].Kind)
	assert.Equal(t, PatternBellowsBreath, recs[1].PatternID)
}

func TestRecommendLowFocus(t *testing.T) {
	s := New(DefaultThresholds(), nil)

	state := calmState()
	state.Focus = 20
	recs := s.Recommend(state)

	require.Len(t, recs, 1)
	assert.Equal(t, KindAudioSuggestion, recs[0].Kind)
	assert.Equal(t, 20.0, recs[0].FrequencyHz)
	assert.Equal(t, "beta", recs[0].BandLabel)
	assert.Equal(t, 80, recs[0].Severity)
}

func TestLowFocusSuppressedByDominantTriggers(t *testing.T) {
	s := New(DefaultThresholds(), nil)

	// When stress fires too, its relaxing suggestions win over the
	// stimulating focus audio
	state := classifier.MentalState{Stress: 80, Focus: 10, Sleepiness: 20}
	recs := s.Recommend(state)

	require.NotEmpty(t, recs)
	for _, rec := range recs {
		assert.NotEqual(t, "beta", rec.BandLabel)
	}
}

func TestRecommendDeduplicatesKindsAndCaps(t *testing.T) {
	s := New(DefaultThresholds(), nil)

	// Both dominant triggers fire; five candidates collapse to at most
	// three, one per kind
	state := classifier.MentalState{Stress: 75, Focus: 50, Sleepiness: 95}
	recs := s.Recommend(state)

	require.LessOrEqual(t, len(recs), 3)
	seen := map[Kind]bool{}
	for _, rec := range recs {
		assert.False(t, seen[rec.Kind], "duplicate kind %s", rec.Kind)
		seen[rec.Kind] = true
	}

	// Sleepiness is the higher score, so its break prompt wins the slot
	assert.Equal(t, KindBreakPrompt, recs[0].Kind)
	assert.Equal(t, ReasonDrowsiness, recs[0].Reason)
}

func TestRecommendOrderedBySeverity(t *testing.T) {
	s := New(DefaultThresholds(), nil)

	state := classifier.MentalState{Stress: 72, Focus: 50, Sleepiness: 88}
	recs := s.Recommend(state)

	require.NotEmpty(t, recs)
	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i-1].Severity, recs[i].Severity)
	}
}

func TestRecommendExactThresholdFires(t *testing.T) {
	s := New(DefaultThresholds(), nil)

	state := calmState()
	state.Stress = DefaultThresholds().HighStress
	assert.NotEmpty(t, s.Recommend(state))

	state = calmState()
	state.Focus = DefaultThresholds().LowFocus
	// LowFocus is a strict threshold; the boundary itself does not fire
	assert.Empty(t, s.Recommend(state))
}

func TestRecommendCustomCap(t *testing.T) {
	thresholds := DefaultThresholds()
	thresholds.MaxRecommendations = 1
	s := New(thresholds, nil)

	state := calmState()
	state.Stress = 90
	recs := s.Recommend(state)

	require.Len(t, recs, 1)
	assert.Equal(t, KindBreakPrompt, recs[0].Kind)
}

func TestRecommendIsPure(t *testing.T) {
	s := New(DefaultThresholds(), nil)
	state := classifier.MentalState{Stress: 80, Focus: 30, Sleepiness: 75}

	first := s.Recommend(state)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, s.Recommend(state))
	}
}
