package cmd

import (
	"fmt"
	"os"

	"github.com/kayz/modprompt/internal/audit"
	"github.com/kayz/modprompt/internal/composer"
	"github.com/kayz/modprompt/internal/config"
	"github.com/kayz/modprompt/internal/host"
	"github.com/kayz/modprompt/internal/logger"
	"github.com/kayz/modprompt/internal/persist"
	"github.com/spf13/cobra"
)

var (
	logLevel   string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "modprompt",
	Short: "Schema-driven prompt composer for diffusion models",
	Long: `modprompt assembles prompts from per-block selections, guided by a schema
(block order, separator, BREAK positions, weights, addons) and content libraries.

Commands:
  modprompt compose     Compose a prompt from selections
  modprompt options     List selectable options per block
  modprompt libraries   List loaded libraries
  modprompt negative    Build a negative prompt
  modprompt serve       Run the HTTP adapter
  modprompt mcp         Serve the composer as MCP tools over stdio
  modprompt history     Inspect recorded compositions`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// --log wins over the config file level
		lvl := logLevel
		if !cmd.Flags().Changed("log") {
			if cfg, err := loadConfig(); err == nil && cfg.Logging.Level != "" {
				lvl = cfg.Logging.Level
			}
		}
		level, err := logger.ParseLevel(lvl)
		if err != nil {
			return err
		}
		logger.SetLevel(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info",
		"Log level: trace, debug, info, warn, error, fatal, panic")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: .modprompt.yaml next to the executable)")
}

// loadConfig reads --config if given, else the default config path.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	return config.Load()
}

// runtime bundles the composer with its optional recorders.
type runtime struct {
	cfg     *config.Config
	engine  *composer.Composer
	adapter *host.Adapter
	audit   *audit.Writer
	store   *persist.Store
}

// newRuntime loads config, schema and libraries. record opens the history
// store even when history is disabled in config.
func newRuntime(record bool) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	engine, err := composer.New(
		cfg.ResolvePath(cfg.Composer.SchemaPath),
		cfg.ResolvePath(cfg.Composer.LibrariesDir),
	)
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, engine: engine}
	var opts []host.Option

	if cfg.Audit.Enabled {
		rt.audit = audit.NewWriter(cfg.Audit, cfg.ResolvePath(cfg.Audit.Dir))
		opts = append(opts, host.WithRecorder(rt.audit))
	}
	if record || cfg.History.Enabled {
		store, err := persist.NewStore(cfg.ResolvePath(cfg.History.SQLitePath))
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		rt.store = store
		opts = append(opts, host.WithRecorder(store))
	}

	rt.adapter = host.NewAdapter(engine, opts...)
	return rt, nil
}

func (r *runtime) Close() {
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			logger.Warn("Close history store: %v", err)
		}
	}
	logger.Sync()
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
