package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fatihsahinbas/eeg-mental-tracker/internal/app"
)

var (
	// Serve command flags
	serveHost string
	servePort int
	serveMode string
	serveSeed int64
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the streaming analysis server",
	Long: `Run the HTTP/websocket server for live mental state tracking.

Websocket clients on /ws control the session (start_streaming, stop_streaming,
change_mode) and receive an eeg_update event for every completed analysis
cycle. The REST API exposes server status and session recording:

  GET  /api/status         server and session state
  POST /api/session/save   write the recorded session to the data directory
  POST /api/session/clear  discard recorded cycles and start a fresh session
  GET  /api/session/stats  aggregate statistics for the recorded session

Examples:
  # Serve on the default address
  eeg-tracker serve

  # Serve on all interfaces with a focused starting mode
  eeg-tracker serve --host 0.0.0.0 --port 8080 --mode focused

  # Reproducible signal for demos
  eeg-tracker serve --seed 42`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "",
		"listen address (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0,
		"listen port (default from config)")
	serveCmd.Flags().StringVar(&serveMode, "mode", "",
		"initial operating mode (relaxed, focused, stressed, sleepy)")
	serveCmd.Flags().Int64Var(&serveSeed, "seed", 0,
		"random seed for signal synthesis")
}

func runServe(cmd *cobra.Command, args []string) error {
	appCtx := &app.Context{
		Mode:         serveMode,
		Seed:         serveSeed,
		OutputFormat: viper.GetString("output_format"),
		Verbose:      viper.GetBool("verbose"),
	}

	tracker, err := app.NewTrackerApp(appCtx)
	if err != nil {
		return err
	}

	if serveHost != "" {
		appCtx.Config.Server.Host = serveHost
	}
	if servePort != 0 {
		appCtx.Config.Server.Port = servePort
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return tracker.Serve(ctx)
}
