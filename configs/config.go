package configs

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose"`
	LogLevel     string `mapstructure:"log_level"`
	OutputFormat string `mapstructure:"output_format"`
	DataDir      string `mapstructure:"data_dir"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Signal synthesis and analysis configuration
	Signal SignalConfig `mapstructure:"signal"`

	// Classifier calibration
	Classifier ClassifierConfig `mapstructure:"classifier"`

	// Recommendation thresholds
	Recommend RecommendConfig `mapstructure:"recommend"`
}

// ServerConfig contains HTTP/websocket server settings
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// SignalConfig contains signal generation and spectral analysis settings
type SignalConfig struct {
	WindowSeconds  float64 `mapstructure:"window_seconds"`
	HopSeconds     float64 `mapstructure:"hop_seconds"`
	NoiseAmplitude float64 `mapstructure:"noise_amplitude"`
	Seed           int64   `mapstructure:"seed"`
	InitialMode    string  `mapstructure:"initial_mode"`
}

// ClassifierConfig contains mental state classification settings
type ClassifierConfig struct {
	// CalibrationFile optionally overrides the built-in band reference
	// powers and score weights with a YAML file.
	CalibrationFile string `mapstructure:"calibration_file"`
}

// RecommendConfig contains recommendation selection thresholds
type RecommendConfig struct {
	HighStress         int `mapstructure:"high_stress"`
	HighSleepiness     int `mapstructure:"high_sleepiness"`
	LowFocus           int `mapstructure:"low_focus"`
	MaxRecommendations int `mapstructure:"max_recommendations"`
}

// LoadConfig loads configuration from viper, filling in defaults for any key
// no other source has set
func LoadConfig() (*Config, error) {
	setDefaults(viper.GetViper())

	config := &Config{}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	if config.Signal.WindowSeconds <= 0 {
		return fmt.Errorf("signal window duration must be positive")
	}

	if config.Signal.HopSeconds <= 0 {
		return fmt.Errorf("signal hop duration must be positive")
	}

	if config.Signal.HopSeconds > config.Signal.WindowSeconds {
		return fmt.Errorf("signal hop duration cannot exceed the window duration")
	}

	if config.Signal.NoiseAmplitude < 0 {
		return fmt.Errorf("noise amplitude cannot be negative")
	}

	if config.Recommend.MaxRecommendations <= 0 {
		return fmt.Errorf("max recommendations must be positive")
	}

	return nil
}
