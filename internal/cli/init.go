// Package cli holds the start-up steps shared by the dailyspend binaries.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"dailyspend/internal/config"
	"dailyspend/internal/log"
)

// SetupLogger builds the process logger at the given level and makes it
// the slog default.
func SetupLogger(level string, component string) *log.Logger {
	return setupLogger(os.Stdout, level, component)
}

func setupLogger(w io.Writer, level string, component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: component,
		Output:    w,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env files for local development. A missing file is
// not an error.
func LoadEnvFile(files ...string) {
	_ = godotenv.Load(files...)
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Bootstrap loads .env, the configuration and the logger in that order.
// The logger level comes from the loaded configuration.
func Bootstrap(component string) (*config.Config, *log.Logger, error) {
	LoadEnvFile()
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		// Fall back to an info logger so the failure is still reported.
		logger := SetupLogger("info", component)
		logger.Error("Configuration validation failed", log.FieldError, err)
		return nil, logger, fmt.Errorf("load config: %w", err)
	}
	return cfg, SetupLogger(cfg.LogLevel, component), nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// ShutdownContext returns a fresh context bounded by timeout for cleanup
// work that must outlive the cancelled run context.
func ShutdownContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}
