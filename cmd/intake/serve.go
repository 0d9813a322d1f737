package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/intake/internal/config"
	"github.com/jackzampolin/intake/internal/home"
	"github.com/jackzampolin/intake/internal/server"
)

var (
	serveHost     string
	servePort     string
	serveDataFile string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the intake server",
	Long: `Start the intake HTTP server.

The server provides:
  - /            - Browser frontend for interactive extraction
  - /api/extract - Structured extraction from patient complaints
  - /api/records - Extracted patient records
  - /api/export  - Download of the patient data file
  - /health      - Basic server health check

Configuration is hot-reloaded when the config file changes.

Examples:
  intake serve                   # Start on default port 8080
  intake serve --port 3000       # Start on custom port
  intake serve --host 0.0.0.0    # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Get home directory
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		// Load config, preferring the home config file when none is given
		cfgPath := cfgFile
		if cfgPath == "" && h.ConfigExists() {
			cfgPath = h.ConfigPath()
		}
		mgr, err := config.NewManager(cfgPath)
		if err != nil {
			return err
		}
		mgr.WatchConfig()

		appCfg := mgr.Get()
		logger := newLogger(appCfg.Logging)

		// Flags override config
		host := serveHost
		if host == "" {
			host = appCfg.Server.Host
		}
		port := servePort
		if port == "" {
			port = appCfg.Server.Port
		}

		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			DataFile:      serveDataFile,
			Home:          h,
			ConfigManager: mgr,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

// newLogger builds the server logger from the logging config.
func newLogger(cfg config.LoggingCfg) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (overrides config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (overrides config)")
	serveCmd.Flags().StringVar(&serveDataFile, "data-file", "", "Patient data file (overrides config)")

	rootCmd.AddCommand(serveCmd)
}
