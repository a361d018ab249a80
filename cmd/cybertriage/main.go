// CyberTriage - Cyber fraud complaint triage and routing.
// Licensed under the Apache License 2.0

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cybertriage/cybertriage/internal/domain"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg *domain.Config

	rootCmd := &cobra.Command{
		Use:           "cybertriage",
		Short:         "cyber fraud complaint triage",
		Long:          "Classifies, scores and routes cyber fraud complaints, over HTTP or the Model Context Protocol.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env file is not an error.
			_ = godotenv.Load()
			cfg = domain.LoadFromEnv()
			return nil
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP API with the MCP endpoint and metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cfg, os.Stdout)
			return runServe(cmd.Context(), cfg)
		},
	}

	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "serve MCP over stdio",
		Long:  "Serves the triage tools over stdio. Logs go to stderr so stdout stays a clean protocol stream.",
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cfg, os.Stderr)
			return runMCP(cmd.Context(), cfg)
		},
	}

	classifyCmd := &cobra.Command{
		Use:   "classify [complaint text]",
		Short: "classify a complaint and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cfg, os.Stderr)
			return runClassify(cmd.Context(), cfg, args[0], cmd.OutOrStdout())
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cybertriage %s (commit %s, built %s)\n", Version, Commit, BuildDate)
		},
	}

	rootCmd.AddCommand(serveCmd, mcpCmd, classifyCmd, versionCmd)
	return rootCmd
}

// setupLogging installs the default structured logger.
func setupLogging(cfg *domain.Config, w *os.File) {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewJSONHandler(w, opts)
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}
