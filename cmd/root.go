package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/csvlens/internal/config"
	"github.com/KaramelBytes/csvlens/internal/logging"
	"github.com/KaramelBytes/csvlens/internal/store"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration; nil when loading failed
	cfg    *cfgpkg.Global
	cfgErr error
)

var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "csvlens",
	Short: "csvlens: profile CSV files into schema, semantics and insights",
	Long: `csvlens reads arbitrary CSV files, infers physical and semantic column types,
profiles every column, detects correlations and likely foreign keys, and reports
data-quality insights. Results can be printed, saved, or served over HTTP.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.csvlens/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func loadConfig() {
	cfg, cfgErr = cfgpkg.Load(cfgFile)
	if cfgErr != nil {
		// Non-fatal: config show/set and analyze without --save still work
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", cfgErr)
		return
	}
	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	l, err := logging.New(level, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to build logger: %v\n", err)
		return
	}
	logger = l
}

// requireConfig returns the loaded configuration or the load error.
func requireConfig() (*cfgpkg.Global, error) {
	if cfg == nil {
		if cfgErr != nil {
			return nil, fmt.Errorf("config: %w", cfgErr)
		}
		return nil, fmt.Errorf("config not loaded")
	}
	return cfg, nil
}

// openStore opens the configured backend and fails when persistence is
// disabled.
func openStore(ctx context.Context) (store.Store, error) {
	c, err := requireConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, c, logger)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, fmt.Errorf("no dataset store configured (store: %s)", c.Store)
	}
	return st, nil
}
