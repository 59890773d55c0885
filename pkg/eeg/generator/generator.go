package generator

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/logging"
)

// SampleRate is the fixed sampling rate of the synthetic EEG signal in Hz.
// The analyzer validates against this constant rather than re-deriving it.
const SampleRate = 256

// maxAmplitude bounds the emitted signal; sums beyond this are clamped
const maxAmplitude = 1000.0

// OperatingMode selects the mental-state profile the generator synthesizes
type OperatingMode int

const (
	ModeRelaxed OperatingMode = iota
	ModeFocused
	ModeStressed
	ModeSleepy
)

// String returns the wire name of the mode
func (m OperatingMode) String() string {
	switch m {
	case ModeRelaxed:
		return "relaxed"
	case ModeFocused:
		return "focused"
	case ModeStressed:
		return "stressed"
	case ModeSleepy:
		return "sleepy"
	default:
		return "unknown"
	}
}

// ParseOperatingMode converts a wire name to an OperatingMode.
// Unknown names are rejected so an invalid mode never reaches the generator.
func ParseOperatingMode(s string) (OperatingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "relaxed":
		return ModeRelaxed, nil
	case "focused":
		return ModeFocused, nil
	case "stressed":
		return ModeStressed, nil
	case "sleepy":
		return ModeSleepy, nil
	default:
		return ModeRelaxed, fmt.Errorf("invalid operating mode: %q", s)
	}
}

// Modes lists all defined operating modes
func Modes() []OperatingMode {
	return []OperatingMode{ModeRelaxed, ModeFocused, ModeStressed, ModeSleepy}
}

// Sample is a single instantaneous amplitude value tagged with its
// monotonically increasing sequence index
type Sample struct {
	Index     int64   `json:"index"`
	Amplitude float64 `json:"amplitude"`
}

// bandComponent is one sinusoidal component of the synthesized mixture,
// centered inside a canonical EEG band
type bandComponent struct {
	label    string
	centerHz float64
}

var bandComponents = [5]bandComponent{
	{"delta", 2.0},
	{"theta", 6.0},
	{"alpha", 10.0},
	{"beta", 20.0},
	{"gamma", 40.0},
}

// modeBandPowers holds the target band power per mode, on the same scale the
// analyzer reports. Amplitudes are derived as the square roots of these, so a
// full window of a single mode lands near these values after analysis.
var modeBandPowers = map[OperatingMode][5]float64{
	ModeRelaxed:  {5, 8, 15, 5, 2},
	ModeFocused:  {3, 5, 7, 18, 8},
	ModeStressed: {4, 6, 4, 20, 12},
	ModeSleepy:   {12, 10, 6, 3, 1},
}

// Config contains generator construction parameters
type Config struct {
	// Seed makes the broadband noise reproducible; required for tests
	Seed int64
	// NoiseAmplitude is the standard deviation of the additive gaussian noise
	NoiseAmplitude float64
	Logger         logging.Logger
}

// DefaultConfig returns the generator defaults
func DefaultConfig() *Config {
	return &Config{
		Seed:           1,
		NoiseAmplitude: 0.5,
	}
}

// Generator produces synthetic EEG amplitude samples at SampleRate
type Generator struct {
	rng        *rand.Rand
	noiseAmp   float64
	phases     [5]float64
	amplitudes map[OperatingMode][5]float64
	logger     logging.Logger
}

// New creates a generator with a seeded noise source
func New(cfg *Config) *Generator {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	// Random but seed-determined phase offsets keep the band components
	// from aligning at t=0
	var phases [5]float64
	for i := range phases {
		phases[i] = rng.Float64() * 2 * math.Pi
	}

	amplitudes := make(map[OperatingMode][5]float64, len(modeBandPowers))
	for mode, powers := range modeBandPowers {
		var amps [5]float64
		for i, p := range powers {
			amps[i] = math.Sqrt(p)
		}
		amplitudes[mode] = amps
	}

	return &Generator{
		rng:        rng,
		noiseAmp:   cfg.NoiseAmplitude,
		phases:     phases,
		amplitudes: amplitudes,
		logger: logger.WithFields(logging.Fields{
			"component":   "signal_generator",
			"sample_rate": SampleRate,
		}),
	}
}

// NextSample produces the amplitude sample at the given sequence index as a
// weighted superposition of five band-centered sinusoids plus broadband
// noise. The result is always finite.
func (g *Generator) NextSample(mode OperatingMode, index int64) Sample {
	amps, ok := g.amplitudes[mode]
	if !ok {
		amps = g.amplitudes[ModeRelaxed]
	}

	t := float64(index) / float64(SampleRate)

	sum := 0.0
	for i, band := range bandComponents {
		sum += amps[i] * math.Sin(2*math.Pi*band.centerHz*t+g.phases[i])
	}
	sum += g.rng.NormFloat64() * g.noiseAmp

	return Sample{Index: index, Amplitude: clampAmplitude(sum)}
}

// clampAmplitude validates the summed amplitude before emission
func clampAmplitude(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v > maxAmplitude:
		return maxAmplitude
	case v < -maxAmplitude:
		return -maxAmplitude
	default:
		return v
	}
}
