// Package main provides the reposettings binary entry point.
// It validates repository settings from the command line or over HTTP.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/reposettings/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "reposettings"
)

// errSettingsInvalid is returned by validate when any field fails. The
// failures have already been printed.
var errSettingsInvalid = errors.New("settings invalid")

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		if !errors.Is(err, errSettingsInvalid) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// app holds state shared by subcommands.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *slog.Logger
}

func rootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Repository settings validator",
		Long: `Reposettings checks repository settings before they are saved.

It verifies that:
- the message broker accepts a connection and a subscription
- the JWT expiry is a positive interval with an explicit unit
- the lookup service answers whenever bundles depend on it`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format (text, json)")

	cmd.AddCommand(validateCmd(a))
	cmd.AddCommand(serveCmd(a))
	cmd.AddCommand(configCmd(a))

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

// setup loads configuration and configures logging. Flags override the
// loaded configuration.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.NewLoader(nil).Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a.cfg = cfg
	a.logger = newLogger(cmd.ErrOrStderr(), cfg.Log)
	slog.SetDefault(a.logger)
	return nil
}

// newLogger builds a logger writing to w.
func newLogger(w io.Writer, lc config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(lc.Format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
