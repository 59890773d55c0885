package analyzer

import (
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/window"

	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/eeg/generator"
	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/logging"
)

// Default windowing geometry: a 2 second window advanced every 0.25 seconds
const (
	DefaultWindowSeconds = 2.0
	DefaultHopSeconds    = 0.25
)

// Band is a canonical EEG frequency band, [Low, High) in Hz
type Band struct {
	Label string
	Low   float64
	High  float64
}

// CanonicalBands are the five bands integrated per window, in ascending order
var CanonicalBands = [5]Band{
	{"delta", 0.5, 4},
	{"theta", 4, 8},
	{"alpha", 8, 13},
	{"beta", 13, 30},
	{"gamma", 30, 100},
}

// BandPowers holds the relative signal energy per canonical band for one
// completed window. Values are non-negative and never mutated after creation.
type BandPowers struct {
	Delta float64 `json:"delta_power"`
	Theta float64 `json:"theta_power"`
	Alpha float64 `json:"alpha_power"`
	Beta  float64 `json:"beta_power"`
	Gamma float64 `json:"gamma_power"`
}

// Total returns the summed power across all five bands
func (bp BandPowers) Total() float64 {
	return bp.Delta + bp.Theta + bp.Alpha + bp.Beta + bp.Gamma
}

// Config contains analyzer construction parameters
type Config struct {
	// SampleRate must match generator.SampleRate; the analyzer refuses to
	// re-derive the rate from sample spacing
	SampleRate    int
	WindowSeconds float64
	HopSeconds    float64
	Logger        logging.Logger
}

// DefaultConfig returns the analyzer defaults
func DefaultConfig() *Config {
	return &Config{
		SampleRate:    generator.SampleRate,
		WindowSeconds: DefaultWindowSeconds,
		HopSeconds:    DefaultHopSeconds,
	}
}

// Analyzer accumulates samples into a fixed-duration rolling window and
// computes band powers whenever a full window has advanced by one hop.
// The rolling buffer is exclusively owned by one Analyzer instance; it is
// not safe for concurrent writers.
type Analyzer struct {
	sampleRate int
	windowSize int
	hopSize    int

	ring      []float64
	head      int
	count     int
	sinceEmit int

	hann       []float64
	hannEnergy float64

	logger logging.Logger
}

// New creates an analyzer, validating the sampling rate against the
// generator's named constant
func New(cfg *Config) (*Analyzer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if cfg.SampleRate != generator.SampleRate {
		return nil, fmt.Errorf("sample rate %d does not match generator rate %d", cfg.SampleRate, generator.SampleRate)
	}
	if cfg.WindowSeconds <= 0 {
		return nil, fmt.Errorf("window duration must be positive")
	}
	if cfg.HopSeconds <= 0 || cfg.HopSeconds > cfg.WindowSeconds {
		return nil, fmt.Errorf("hop duration must be positive and no longer than the window")
	}

	windowSize := int(cfg.WindowSeconds * float64(cfg.SampleRate))
	hopSize := int(cfg.HopSeconds * float64(cfg.SampleRate))
	if hopSize < 1 {
		hopSize = 1
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	// Hann coefficients and their energy, computed once. Windowing before
	// the transform is required to keep spectral leakage from biasing the
	// band ratios.
	hann := make([]float64, windowSize)
	for i := range hann {
		hann[i] = 1
	}
	window.Hann(hann)

	hannEnergy := 0.0
	for _, w := range hann {
		hannEnergy += w * w
	}

	return &Analyzer{
		sampleRate: cfg.SampleRate,
		windowSize: windowSize,
		hopSize:    hopSize,
		ring:       make([]float64, windowSize),
		hann:       hann,
		hannEnergy: hannEnergy,
		logger: logger.WithFields(logging.Fields{
			"component":   "spectral_analyzer",
			"window_size": windowSize,
			"hop_size":    hopSize,
		}),
	}, nil
}

// WindowSize returns the window length in samples
func (a *Analyzer) WindowSize() int { return a.windowSize }

// HopSize returns the emission hop in samples
func (a *Analyzer) HopSize() int { return a.hopSize }

// Push appends one sample to the rolling window, evicting the oldest sample
// once the window is full. It returns fresh band powers when the window is
// full and at least one hop of new samples has arrived since the last
// emission, and nil otherwise. Non-finite amplitudes are damped to zero
// rather than propagated.
func (a *Analyzer) Push(s generator.Sample) *BandPowers {
	amp := s.Amplitude
	if math.IsNaN(amp) || math.IsInf(amp, 0) {
		amp = 0
	}

	a.ring[a.head] = amp
	a.head = (a.head + 1) % a.windowSize
	if a.count < a.windowSize {
		a.count++
	}
	a.sinceEmit++

	if a.count < a.windowSize || a.sinceEmit < a.hopSize {
		return nil
	}

	a.sinceEmit = 0
	return a.computeBandPowers()
}

// Reset discards all buffered samples
func (a *Analyzer) Reset() {
	for i := range a.ring {
		a.ring[i] = 0
	}
	a.head = 0
	a.count = 0
	a.sinceEmit = 0
}

// computeBandPowers applies the Hann window to the current frame, transforms
// it, and integrates squared magnitudes over each band's bin range. The
// normalization is chosen so a pure in-band sinusoid of amplitude A reports
// a band power of approximately A².
func (a *Analyzer) computeBandPowers() *BandPowers {
	frame := make([]float64, a.windowSize)
	for i := 0; i < a.windowSize; i++ {
		frame[i] = a.ring[(a.head+i)%a.windowSize] * a.hann[i]
	}

	spectrum := fft.FFTReal(frame)

	binHz := float64(a.sampleRate) / float64(a.windowSize)
	norm := 4.0 / (float64(a.windowSize) * a.hannEnergy)
	nyquistBin := a.windowSize / 2

	var powers [5]float64
	for i, band := range CanonicalBands {
		lo := int(math.Ceil(band.Low / binHz))
		if lo < 1 {
			lo = 1 // DC is never part of a band
		}
		sum := 0.0
		// Bands narrower than the bin width contribute no bins and report
		// zero power; that is a well-defined result, not a failure.
		for k := lo; k <= nyquistBin && float64(k)*binHz < band.High; k++ {
			re := real(spectrum[k])
			im := imag(spectrum[k])
			sum += re*re + im*im
		}
		powers[i] = sum * norm
	}

	bp := &BandPowers{
		Delta: powers[0],
		Theta: powers[1],
		Alpha: powers[2],
		Beta:  powers[3],
		Gamma: powers[4],
	}

	a.logger.Debug("Window analyzed", logging.Fields{
		"delta": bp.Delta,
		"theta": bp.Theta,
		"alpha": bp.Alpha,
		"beta":  bp.Beta,
		"gamma": bp.Gamma,
	})

	return bp
}
