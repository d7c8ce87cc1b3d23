package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"indesign-pdf-service/internal/config"
	"indesign-pdf-service/internal/convert"
	"indesign-pdf-service/internal/diagnostics"
	"indesign-pdf-service/internal/domain"
	"indesign-pdf-service/internal/server"
)

func main() {
	// .env is optional; environment variables win over the YAML file either way.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)

	runner, err := convert.NewRunner(
		runtime.GOOS,
		cfg.InDesign.BinaryPath,
		cfg.Storage.ScratchDir,
		cfg.InDesign.ExportTimeout,
		cfg.InDesign.TerminationGrace,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("Cannot initialize InDesign automation")
	}

	exporter := convert.NewExporter(runner)
	probe := convert.NewProbe(runtime.GOOS, cfg.InDesign.BinaryPath)
	checker := diagnostics.NewChecker(runtime.GOOS, probe)

	report := checker.Run(cfg.Storage.UploadDir, cfg.Storage.ScratchDir)
	for _, item := range report.Items {
		event := logger.Info()
		if item.Status != domain.DiagnosticStatusPass {
			event = logger.Warn()
		}
		event.Str("check", item.ID).Str("status", string(item.Status)).Msg(item.Message)
	}
	if report.HasFailures {
		logger.Warn().Msg("Startup diagnostics reported failures; conversions may not succeed")
	}

	app := server.New(cfg, logger, exporter, checker)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     app.Router(),
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("Export service listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatal().Err(err).Msg("Server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("Graceful shutdown failed; closing")
			_ = srv.Close()
		}
	}
}

// configPath resolves the optional YAML config file from the CONFIG_PATH
// environment variable or the first command-line argument.
func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	if len(os.Args) > 1 {
		return os.Args[1]
	}
	return ""
}

// newLogger builds the service logger from configuration. Unknown levels
// fall back to info rather than failing startup.
func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		logger = zerolog.New(out)
	} else {
		logger = zerolog.New(os.Stdout)
	}

	return logger.Level(level).With().
		Timestamp().
		Str("service", "indesign-pdf-service").
		Logger()
}
