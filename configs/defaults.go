package configs

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets default configuration values for all components
func setDefaults(v *viper.Viper) {
	// Server defaults
	if !v.IsSet("server.host") {
		v.Set("server.host", "127.0.0.1")
	}
	if !v.IsSet("server.port") {
		v.Set("server.port", 5000)
	}
	if !v.IsSet("server.read_timeout") {
		v.Set("server.read_timeout", 10*time.Second)
	}
	if !v.IsSet("server.write_timeout") {
		v.Set("server.write_timeout", 10*time.Second)
	}

	// Signal defaults
	if !v.IsSet("signal.window_seconds") {
		v.Set("signal.window_seconds", 2.0)
	}
	if !v.IsSet("signal.hop_seconds") {
		v.Set("signal.hop_seconds", 0.25)
	}
	if !v.IsSet("signal.noise_amplitude") {
		v.Set("signal.noise_amplitude", 0.5)
	}
	if !v.IsSet("signal.seed") {
		v.Set("signal.seed", 1)
	}
	if !v.IsSet("signal.initial_mode") {
		v.Set("signal.initial_mode", "relaxed")
	}

	// Classifier defaults
	if !v.IsSet("classifier.calibration_file") {
		v.Set("classifier.calibration_file", "")
	}

	// Recommendation defaults
	if !v.IsSet("recommend.high_stress") {
		v.Set("recommend.high_stress", 70)
	}
	if !v.IsSet("recommend.high_sleepiness") {
		v.Set("recommend.high_sleepiness", 70)
	}
	if !v.IsSet("recommend.low_focus") {
		v.Set("recommend.low_focus", 40)
	}
	if !v.IsSet("recommend.max_recommendations") {
		v.Set("recommend.max_recommendations", 3)
	}

	// Application defaults
	if !v.IsSet("verbose") {
		v.Set("verbose", false)
	}
	if !v.IsSet("log_level") {
		v.Set("log_level", "info")
	}
	if !v.IsSet("output_format") {
		v.Set("output_format", "json")
	}
	if !v.IsSet("data_dir") {
		home, _ := os.UserHomeDir()
		v.Set("data_dir", filepath.Join(home, ".local", "share", "eeg-tracker"))
	}
}

// GetDefaultConfig returns a Config struct with all default values set
func GetDefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		Verbose:      false,
		LogLevel:     "info",
		OutputFormat: "json",
		DataDir:      filepath.Join(home, ".local", "share", "eeg-tracker"),

		Server:     GetDefaultServerConfig(),
		Signal:     GetDefaultSignalConfig(),
		Classifier: ClassifierConfig{},
		Recommend:  GetDefaultRecommendConfig(),
	}
}

// GetDefaultServerConfig returns default server settings
func GetDefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "127.0.0.1",
		Port:         5000,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// GetDefaultSignalConfig returns default signal settings
func GetDefaultSignalConfig() SignalConfig {
	return SignalConfig{
		WindowSeconds:  2.0,
		HopSeconds:     0.25,
		NoiseAmplitude: 0.5,
		Seed:           1,
		InitialMode:    "relaxed",
	}
}

// GetDefaultRecommendConfig returns default recommendation thresholds
func GetDefaultRecommendConfig() RecommendConfig {
	return RecommendConfig{
		HighStress:         70,
		HighSleepiness:     70,
		LowFocus:           40,
		MaxRecommendations: 3,
	}
}
