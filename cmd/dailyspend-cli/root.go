package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dailyspend/internal/backend"
	"dailyspend/internal/config"
	"dailyspend/internal/core"
	"dailyspend/internal/log"
	"dailyspend/internal/services"
)

// app carries what every command needs. Tests build one with a fixed clock
// and a temporary data directory.
type app struct {
	v      *viper.Viper
	now    func() time.Time
	logger *log.Logger
}

func newApp() *app {
	return &app{v: viper.New(), now: time.Now}
}

func newRootCmd(a *app) *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "dailyspend",
		Short: "Record daily expenses and inspect totals",
		Long: `dailyspend records expenses against categories and reports daily,
weekly and monthly totals from the same store the web server uses.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initConfig(cmd, cfgFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml)")
	flags.String("backend", config.BackendSQLite, "data backend (memory, localfile, sqlite)")
	flags.String("data-dir", "./data", "data directory for the localfile backend")
	flags.String("sqlite-path", "./data/dailyspend.db", "database path for the sqlite backend")
	flags.Bool("seed", true, "seed default categories into a fresh store")
	flags.String("currency", string(core.USD), "display currency (USD, INR, EUR)")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.Bool("json", false, "print JSON instead of tables")

	_ = a.v.BindPFlag("backend", flags.Lookup("backend"))
	_ = a.v.BindPFlag("data_dir", flags.Lookup("data-dir"))
	_ = a.v.BindPFlag("sqlite_path", flags.Lookup("sqlite-path"))
	_ = a.v.BindPFlag("seed", flags.Lookup("seed"))
	_ = a.v.BindPFlag("currency", flags.Lookup("currency"))
	_ = a.v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("json", flags.Lookup("json"))

	// The server's environment variables apply here too.
	_ = a.v.BindEnv("backend", "DATA_BACKEND")
	_ = a.v.BindEnv("data_dir", "DATA_DIR")
	_ = a.v.BindEnv("sqlite_path", "SQLITE_DB_PATH")
	_ = a.v.BindEnv("seed", "SEED_DEFAULT_CATEGORIES")
	_ = a.v.BindEnv("currency", "CURRENCY")
	_ = a.v.BindEnv("log_level", "LOG_LEVEL")

	root.AddCommand(categoriesCmd(a))
	root.AddCommand(expensesCmd(a))
	root.AddCommand(totalsCmd(a))
	root.AddCommand(calendarCmd(a))
	root.AddCommand(exportCmd(a))
	root.AddCommand(importCmd(a))

	return root
}

func (a *app) initConfig(cmd *cobra.Command, cfgFile string) error {
	if cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	a.logger = log.New(log.Config{
		Level:     log.ParseLevel(a.v.GetString("log_level")),
		Component: log.ComponentCLI,
		Output:    cmd.ErrOrStderr(),
	})
	log.SetDefault(a.logger)
	return nil
}

func (a *app) backendConfig() (backend.Config, error) {
	cfg := backend.Config{
		Type:         backend.Type(a.v.GetString("backend")),
		DataDir:      a.v.GetString("data_dir"),
		SQLiteDBPath: a.v.GetString("sqlite_path"),
		Seed:         a.v.GetBool("seed"),
		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: envOr("AMQP_EXCHANGE", "dailyspend"),
		AMQPQueue:    envOr("AMQP_QUEUE", "expense_events"),
	}
	return cfg, cfg.Validate()
}

// withService opens the configured backend for the duration of fn.
func (a *app) withService(cmd *cobra.Command, fn func(svc *services.ExpenseService) error) error {
	cfg, err := a.backendConfig()
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(a.logger).Create(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := res.Close(); cerr != nil {
			a.logger.Warn("Failed to close backend", log.FieldError, cerr)
		}
	}()
	return fn(res.Service)
}

func (a *app) currency() core.Currency {
	c := core.Currency(a.v.GetString("currency"))
	if !c.IsValid() {
		return core.USD
	}
	return c
}

func (a *app) today() core.Date {
	return core.DateOf(a.now())
}

func (a *app) jsonOutput() bool {
	return a.v.GetBool("json")
}

// dateFlag parses a YYYY-MM-DD flag value, defaulting to today.
func (a *app) dateFlag(s string) (core.Date, error) {
	if s == "" {
		return a.today(), nil
	}
	return core.ParseDate(s)
}

// monthFlags resolves --year and --month, defaulting to the current month.
func (a *app) monthFlags(year, month int) (int, time.Month, error) {
	now := a.now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	if month < 1 || month > 12 {
		return 0, 0, &core.ValidationError{Field: "month", Reason: "must be between 1 and 12"}
	}
	return year, time.Month(month), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
