package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fatihsahinbas/eeg-mental-tracker/configs"
)

// configTestCmd represents the config test command
var configTestCmd = &cobra.Command{
	Use:   "config-test",
	Short: "Test and display all configuration values",
	Long: `Test configuration loading and display all values to verify proper parsing.

This command loads the configuration and displays all values in a structured format
to help verify that your YAML configuration is being parsed correctly.

Examples:
  # Test with default config file
  eeg-tracker config-test

  # Test with specific config file
  eeg-tracker --config /path/to/config.yaml config-test`,
	RunE: runConfigTest,
}

func init() {
	rootCmd.AddCommand(configTestCmd)
}

func runConfigTest(cmd *cobra.Command, args []string) error {
	fmt.Println("EEG TRACKER CONFIGURATION TEST")
	fmt.Println(strings.Repeat("=", 80))

	// Load configuration
	config, err := configs.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	printSection("APPLICATION SETTINGS")
	printKeyValue("Verbose", fmt.Sprintf("%t", config.Verbose))
	printKeyValue("Log Level", config.LogLevel)
	printKeyValue("Output Format", config.OutputFormat)
	printKeyValue("Data Directory", config.DataDir)

	printSection("SERVER CONFIGURATION")
	printKeyValue("Host", config.Server.Host)
	printKeyValue("Port", fmt.Sprintf("%d", config.Server.Port))
	printKeyValue("Read Timeout", config.Server.ReadTimeout.String())
	printKeyValue("Write Timeout", config.Server.WriteTimeout.String())

	printSection("SIGNAL CONFIGURATION")
	printKeyValue("Window", fmt.Sprintf("%.2f s", config.Signal.WindowSeconds))
	printKeyValue("Hop", fmt.Sprintf("%.2f s", config.Signal.HopSeconds))
	printKeyValue("Noise Amplitude", fmt.Sprintf("%.2f", config.Signal.NoiseAmplitude))
	printKeyValue("Seed", fmt.Sprintf("%d", config.Signal.Seed))
	printKeyValue("Initial Mode", config.Signal.InitialMode)

	printSection("CLASSIFIER CONFIGURATION")
	if config.Classifier.CalibrationFile != "" {
		printKeyValue("Calibration File", config.Classifier.CalibrationFile)
	} else {
		printKeyValue("Calibration File", "(built-in defaults)")
	}

	printSection("RECOMMENDATION THRESHOLDS")
	printKeyValue("High Stress", fmt.Sprintf("%d", config.Recommend.HighStress))
	printKeyValue("High Sleepiness", fmt.Sprintf("%d", config.Recommend.HighSleepiness))
	printKeyValue("Low Focus", fmt.Sprintf("%d", config.Recommend.LowFocus))
	printKeyValue("Max Recommendations", fmt.Sprintf("%d", config.Recommend.MaxRecommendations))

	fmt.Println()
	if err := configs.ValidateConfig(config); err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}
	fmt.Println("Configuration is valid.")

	return nil
}

func printSection(title string) {
	fmt.Printf("\n%s\n", title)
	fmt.Println(strings.Repeat("-", len(title)))
}

func printKeyValue(key, value string) {
	fmt.Printf("  %-24s %s\n", key+":", value)
}
