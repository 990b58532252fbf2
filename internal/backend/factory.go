// Package backend builds the record store and expense service selected by
// configuration.
package backend

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"dailyspend/internal/amqp"
	"dailyspend/internal/config"
	"dailyspend/internal/core"
	"dailyspend/internal/log"
	"dailyspend/internal/services"
	"dailyspend/internal/storage"
	"dailyspend/internal/store"
	"dailyspend/internal/store/localfile"
	"dailyspend/internal/store/memory"
)

// Type names a record store implementation.
type Type string

const (
	Memory    Type = config.BackendMemory
	LocalFile Type = config.BackendLocalFile
	SQLite    Type = config.BackendSQLite
)

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case Memory, LocalFile, SQLite:
		return true
	default:
		return false
	}
}

// Types returns all valid backend types
func Types() []Type {
	return []Type{Memory, LocalFile, SQLite}
}

// Config holds configuration for backend creation
type Config struct {
	Type         Type
	DataDir      string
	SQLiteDBPath string
	// Seed applies to the memory backend and to a fresh localfile or sqlite
	// store.
	Seed bool

	// Empty AMQPURL disables events.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(c *config.Config) (Config, error) {
	if c == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	cfg := Config{
		Type:         Type(c.DataBackend),
		DataDir:      c.DataDir,
		SQLiteDBPath: c.SQLiteDBPath,
		Seed:         c.SeedDefaultCategories,
		AMQPURL:      c.AMQPURL,
		AMQPExchange: c.AMQPExchange,
		AMQPQueue:    c.AMQPQueue,
	}
	return cfg, cfg.Validate()
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type %q (valid: %s)", c.Type, joinTypes(Types()))
	}
	switch c.Type {
	case SQLite:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case LocalFile:
		if c.DataDir == "" {
			return fmt.Errorf("data directory is required for localfile backend")
		}
	}
	return nil
}

func joinTypes(types []Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// Result holds the wired service. Close releases the store and publisher.
type Result struct {
	Service *services.ExpenseService
	Store   store.Store
	Close   func() error
}

// Factory creates backends based on configuration
type Factory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Factory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Create opens the configured store and, when a broker is configured,
// attaches an AMQP publisher. A broker that cannot be reached is logged
// and skipped.
func (f *Factory) Create(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := f.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
			publisher = client
		}
	}

	svc := services.NewExpenseService(st, publisher)
	f.logger.InfoContext(ctx, "Initialized backend",
		log.FieldBackend, cfg.Type,
		"events_enabled", publisher != nil)

	return &Result{
		Service: svc,
		Store:   st,
		Close:   svc.Close,
	}, nil
}

func (f *Factory) openStore(ctx context.Context, cfg Config) (store.Store, error) {
	switch cfg.Type {
	case Memory:
		if !cfg.Seed {
			return memory.New(nil), nil
		}
		return memory.NewFromFiles(cfg.DataDir), nil

	case LocalFile:
		st, err := localfile.New(cfg.DataDir, seedsFor(cfg, cfg.DataDir))
		if err != nil {
			return nil, fmt.Errorf("open localfile store: %w", err)
		}
		f.logger.InfoContext(ctx, "Opened localfile store", "data_dir", cfg.DataDir)
		return st, nil

	case SQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		if seeds := seedsFor(cfg, filepath.Dir(cfg.SQLiteDBPath)); len(seeds) > 0 {
			if err := repo.Seed(ctx, seeds); err != nil {
				repo.Close()
				return nil, fmt.Errorf("seed categories: %w", err)
			}
		}
		f.logger.InfoContext(ctx, "Opened SQLite store", "db_path", cfg.SQLiteDBPath)
		return repo, nil
	}
	return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
}

func seedsFor(cfg Config, dir string) []core.CategoryInput {
	if !cfg.Seed {
		return nil
	}
	return store.SeedOrDefault(filepath.Join(dir, store.SeedFileName))
}
