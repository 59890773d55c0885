package app

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/fatihsahinbas/eeg-mental-tracker/configs"
	"github.com/fatihsahinbas/eeg-mental-tracker/internal/pipeline"
	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/eeg/classifier"
	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/eeg/generator"
	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/eeg/recommend"
	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/logging"
)

// loadAndMergeConfig loads configuration from viper and merges CLI flags
func loadAndMergeConfig(ctx *Context) (*configs.Config, error) {
	config, err := configs.LoadConfig()
	if err != nil {
		return nil, err
	}

	// CLI flags override the file and environment values
	if ctx.Mode != "" {
		config.Signal.InitialMode = ctx.Mode
	}
	if ctx.Seed != 0 {
		config.Signal.Seed = ctx.Seed
	}
	if ctx.Verbose {
		config.Verbose = true
	}

	if err := configs.ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// buildPipelineConfig translates the application configuration into
// scheduler construction parameters.
func buildPipelineConfig(config *configs.Config, logger logging.Logger) (*pipeline.Config, error) {
	mode, err := generator.ParseOperatingMode(config.Signal.InitialMode)
	if err != nil {
		return nil, fmt.Errorf("invalid initial mode: %w", err)
	}

	thresholds := classifier.DefaultThresholds()
	if config.Classifier.CalibrationFile != "" {
		thresholds, err = classifier.LoadThresholds(config.Classifier.CalibrationFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load calibration: %w", err)
		}
		logger.Info("Loaded classifier calibration", logging.Fields{
			"calibration_file": config.Classifier.CalibrationFile,
		})
	}

	selection := recommend.SelectionThresholds{
		HighStress:         config.Recommend.HighStress,
		HighSleepiness:     config.Recommend.HighSleepiness,
		LowFocus:           config.Recommend.LowFocus,
		MaxRecommendations: config.Recommend.MaxRecommendations,
	}

	return &pipeline.Config{
		InitialMode:    mode,
		Seed:           config.Signal.Seed,
		NoiseAmplitude: config.Signal.NoiseAmplitude,
		WindowSeconds:  config.Signal.WindowSeconds,
		HopSeconds:     config.Signal.HopSeconds,
		Thresholds:     &thresholds,
		Selection:      &selection,
		Logger:         logger,
	}, nil
}

// formatOutput renders data in the requested output format
func formatOutput(data any, format string) ([]byte, error) {
	switch format {
	case "yaml":
		return yaml.Marshal(data)
	case "json", "":
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
