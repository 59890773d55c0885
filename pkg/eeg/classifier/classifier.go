package classifier

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/eeg/analyzer"
	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/logging"
)

// neutralScore is reported for all three scores on a degenerate window so
// silence never reads as an extreme verdict
const neutralScore = 50

// MentalState is the rule-based estimate derived from one BandPowers value.
// Scores are bounded to [0,100]; confidence to [0,1].
type MentalState struct {
	Stress     int     `json:"stress"`
	Focus      int     `json:"focus"`
	Sleepiness int     `json:"sleepiness"`
	Confidence float64 `json:"confidence"`
}

// ClassificationThresholds names every calibration constant of the rule set.
// Reference powers are on the analyzer's output scale and correspond to a
// strongly expressed band; weights are the relative contribution of each
// normalized term to its score.
type ClassificationThresholds struct {
	// Reference band powers for normalization
	DeltaRef float64 `yaml:"delta_ref" mapstructure:"delta_ref"`
	ThetaRef float64 `yaml:"theta_ref" mapstructure:"theta_ref"`
	AlphaRef float64 `yaml:"alpha_ref" mapstructure:"alpha_ref"`
	BetaRef  float64 `yaml:"beta_ref" mapstructure:"beta_ref"`
	GammaRef float64 `yaml:"gamma_ref" mapstructure:"gamma_ref"`

	// Expected total power of a plausible window; drives confidence
	BaselineTotalPower float64 `yaml:"baseline_total_power" mapstructure:"baseline_total_power"`
	// Total power below this is treated as a degenerate window
	MinTotalPower float64 `yaml:"min_total_power" mapstructure:"min_total_power"`

	// Stress: beta excess + gamma excess - alpha presence
	StressBetaWeight  float64 `yaml:"stress_beta_weight" mapstructure:"stress_beta_weight"`
	StressGammaWeight float64 `yaml:"stress_gamma_weight" mapstructure:"stress_gamma_weight"`
	StressAlphaWeight float64 `yaml:"stress_alpha_weight" mapstructure:"stress_alpha_weight"`

	// Focus: joint beta and gamma, with a mild penalty below the beta floor
	FocusBetaWeight  float64 `yaml:"focus_beta_weight" mapstructure:"focus_beta_weight"`
	FocusGammaWeight float64 `yaml:"focus_gamma_weight" mapstructure:"focus_gamma_weight"`
	LowBetaFloor     float64 `yaml:"low_beta_floor" mapstructure:"low_beta_floor"`
	LowBetaPenalty   float64 `yaml:"low_beta_penalty" mapstructure:"low_beta_penalty"`

	// Sleepiness: slow-wave presence minus beta presence
	SleepDeltaWeight float64 `yaml:"sleep_delta_weight" mapstructure:"sleep_delta_weight"`
	SleepThetaWeight float64 `yaml:"sleep_theta_weight" mapstructure:"sleep_theta_weight"`
	SleepBetaWeight  float64 `yaml:"sleep_beta_weight" mapstructure:"sleep_beta_weight"`
}

// DefaultThresholds returns the calibration used when no override file is
// configured. Reference powers follow the typical per-band magnitudes of the
// signal generator's mode profiles.
func DefaultThresholds() ClassificationThresholds {
	return ClassificationThresholds{
		DeltaRef: 12,
		ThetaRef: 10,
		AlphaRef: 15,
		BetaRef:  20,
		GammaRef: 12,

		BaselineTotalPower: 40,
		MinTotalPower:      0.5,

		StressBetaWeight:  0.5,
		StressGammaWeight: 0.3,
		StressAlphaWeight: 0.2,

		FocusBetaWeight:  0.6,
		FocusGammaWeight: 0.4,
		LowBetaFloor:     0.15,
		LowBetaPenalty:   10,

		SleepDeltaWeight: 0.4,
		SleepThetaWeight: 0.3,
		SleepBetaWeight:  0.3,
	}
}

// LoadThresholds reads a calibration override file, applying it on top of
// the defaults
func LoadThresholds(path string) (ClassificationThresholds, error) {
	thresholds := DefaultThresholds()

	data, err := os.ReadFile(path)
	if err != nil {
		return thresholds, fmt.Errorf("failed to read calibration file: %w", err)
	}

	if err := yaml.Unmarshal(data, &thresholds); err != nil {
		return thresholds, fmt.Errorf("failed to parse calibration file: %w", err)
	}

	if err := thresholds.Validate(); err != nil {
		return thresholds, fmt.Errorf("invalid calibration: %w", err)
	}

	return thresholds, nil
}

// Validate rejects calibrations that would divide by zero or invert scales
func (t ClassificationThresholds) Validate() error {
	for name, ref := range map[string]float64{
		"delta_ref": t.DeltaRef,
		"theta_ref": t.ThetaRef,
		"alpha_ref": t.AlphaRef,
		"beta_ref":  t.BetaRef,
		"gamma_ref": t.GammaRef,
	} {
		if ref <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if t.BaselineTotalPower <= 0 {
		return fmt.Errorf("baseline_total_power must be positive")
	}
	if t.MinTotalPower < 0 {
		return fmt.Errorf("min_total_power cannot be negative")
	}
	return nil
}

// Classifier maps band powers to a mental-state estimate. It holds no state
// across calls; identical inputs always yield identical outputs.
type Classifier struct {
	thresholds ClassificationThresholds
	logger     logging.Logger
}

// New creates a classifier with the given calibration
func New(thresholds ClassificationThresholds, logger logging.Logger) *Classifier {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Classifier{
		thresholds: thresholds,
		logger:     logger.WithFields(logging.Fields{"component": "mental_state_classifier"}),
	}
}

// Thresholds returns the active calibration
func (c *Classifier) Thresholds() ClassificationThresholds {
	return c.thresholds
}

// Classify derives a mental state from one band-power vector. A degenerate
// window (near-zero total power) reports all scores at the neutral midpoint
// with zero confidence instead of an arbitrary extreme.
func (c *Classifier) Classify(bp analyzer.BandPowers) MentalState {
	t := c.thresholds
	total := bp.Total()

	if total < t.MinTotalPower || math.IsNaN(total) {
		return MentalState{
			Stress:     neutralScore,
			Focus:      neutralScore,
			Sleepiness: neutralScore,
			Confidence: 0,
		}
	}

	deltaNorm := clamp01(bp.Delta / t.DeltaRef)
	thetaNorm := clamp01(bp.Theta / t.ThetaRef)
	alphaNorm := clamp01(bp.Alpha / t.AlphaRef)
	betaNorm := clamp01(bp.Beta / t.BetaRef)
	gammaNorm := clamp01(bp.Gamma / t.GammaRef)

	stress := 100 * (t.StressBetaWeight*betaNorm +
		t.StressGammaWeight*gammaNorm +
		t.StressAlphaWeight*(1-alphaNorm))

	focus := 100 * (t.FocusBetaWeight*betaNorm + t.FocusGammaWeight*gammaNorm)
	if betaNorm < t.LowBetaFloor {
		focus -= t.LowBetaPenalty
	}

	sleepiness := 100 * (t.SleepDeltaWeight*deltaNorm +
		t.SleepThetaWeight*thetaNorm +
		t.SleepBetaWeight*(1-betaNorm))

	return MentalState{
		Stress:     clampScore(stress),
		Focus:      clampScore(focus),
		Sleepiness: clampScore(sleepiness),
		Confidence: confidence(total, t.BaselineTotalPower),
	}
}

// confidence compares total window power against the expected baseline; a
// near-baseline window scores close to 1.0, while implausibly quiet or loud
// windows score close to 0.
func confidence(total, baseline float64) float64 {
	ratio := total / baseline
	if ratio <= 0 {
		return 0
	}
	return clamp01(1 - math.Abs(math.Log10(ratio)))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampScore(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(math.Round(v))
}
