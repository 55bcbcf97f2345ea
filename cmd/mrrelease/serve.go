package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"mrrelease/internal/azdo"
	"mrrelease/internal/release"
	"mrrelease/internal/server"
)

var (
	host     string
	port     int
	testMode bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve deployed release status over HTTP",
	Long: `Start an HTTP server answering the same question as "show" for dashboards and scripts.

Endpoints:
  GET /health
  GET /deployed?folder=Team/Web&environment=Production[&project=][&order=name][&failed=true][&exact=true]
  GET /metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&host, "host", getEnvOrDefault("MR_RELEASE_HOST", "127.0.0.1"), "Host to bind to")
	serveCmd.Flags().IntVar(&port, "port", getEnvOrDefaultInt("MR_RELEASE_PORT", 8080), "Port to listen on")
	serveCmd.Flags().BoolVar(&testMode, "test-mode", os.Getenv("MR_RELEASE_TEST_MODE") == "1", "Disable per-IP rate limiting")
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	logger := newServerLogger(cmd.OutOrStdout(), verbose)
	logger.Info("Starting mr-release", "version", version)

	metrics := server.NewMetrics()
	httpClient := &http.Client{
		Timeout:   azdo.DefaultTimeout,
		Transport: metrics.InstrumentTransport(http.DefaultTransport),
	}

	client, err := newClient(s, logger, httpClient)
	if err != nil {
		logger.Error("Failed to create client", "error", err)
		return err
	}

	srv := server.NewServer(release.NewService(client, logger), s.Project, logger, metrics, testMode)

	logger.Info("Starting HTTP server", "host", host, "port", port)
	if err := srv.Start(cmd.Context(), host, port); err != nil {
		logger.Error("Server failed", "error", err)
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
