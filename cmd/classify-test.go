package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fatihsahinbas/eeg-mental-tracker/internal/pipeline"
	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/eeg/generator"
)

var classifyCycles int

// classifyTestCmd represents the classify test command
var classifyTestCmd = &cobra.Command{
	Use:   "classify-test",
	Short: "Run every operating mode through the pipeline and show the scores",
	Long: `Run each operating mode through the full synthesis, spectral analysis and
classification chain and display the band powers and mental state scores of
the final cycle.

Useful for verifying a calibration file: each mode should land in its
expected score region (stressed mode high stress, sleepy mode high
sleepiness, focused mode high focus).

Examples:
  # Default number of cycles per mode
  eeg-tracker classify-test

  # Longer settling time per mode
  eeg-tracker classify-test --cycles 32`,
	RunE: runClassifyTest,
}

func init() {
	rootCmd.AddCommand(classifyTestCmd)

	classifyTestCmd.Flags().IntVar(&classifyCycles, "cycles", 16,
		"analysis cycles to run per mode")
}

func runClassifyTest(cmd *cobra.Command, args []string) error {
	fmt.Println("MENTAL STATE CLASSIFICATION TEST")
	fmt.Println(strings.Repeat("=", 80))

	for _, mode := range generator.Modes() {
		cfg := pipeline.DefaultConfig()
		cfg.InitialMode = mode

		sched, err := pipeline.NewScheduler(cfg)
		if err != nil {
			return fmt.Errorf("failed to create pipeline for mode %s: %w", mode, err)
		}

		records, err := sched.RunCycles(cmd.Context(), classifyCycles)
		if err != nil {
			return fmt.Errorf("mode %s failed: %w", mode, err)
		}
		if len(records) == 0 {
			return fmt.Errorf("mode %s produced no records", mode)
		}

		last := records[len(records)-1]

		printSection(strings.ToUpper(mode.String()))
		printKeyValue("Delta Power", fmt.Sprintf("%.2f", last.BandPowers.Delta))
		printKeyValue("Theta Power", fmt.Sprintf("%.2f", last.BandPowers.Theta))
		printKeyValue("Alpha Power", fmt.Sprintf("%.2f", last.BandPowers.Alpha))
		printKeyValue("Beta Power", fmt.Sprintf("%.2f", last.BandPowers.Beta))
		printKeyValue("Gamma Power", fmt.Sprintf("%.2f", last.BandPowers.Gamma))
		printKeyValue("Stress", fmt.Sprintf("%d", last.MentalState.Stress))
		printKeyValue("Focus", fmt.Sprintf("%d", last.MentalState.Focus))
		printKeyValue("Sleepiness", fmt.Sprintf("%d", last.MentalState.Sleepiness))
		printKeyValue("Confidence", fmt.Sprintf("%.2f", last.MentalState.Confidence))
		printKeyValue("Recommendations", fmt.Sprintf("%d", len(last.Recommendations)))
		for _, rec := range last.Recommendations {
			printKeyValue("  "+string(rec.Kind), rec.Title)
		}
	}

	return nil
}
