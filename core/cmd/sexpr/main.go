// Command sexpr runs S-expression programs from files, a REPL, a socket
// service, an HTTP API or an MCP tool server.
package main

import (
	"fmt"
	"os"

	"fortio.org/log"
	"github.com/spf13/cobra"

	"github.com/rphilander/sexpr/config"
	sexpr "github.com/rphilander/sexpr/core"
	"github.com/rphilander/sexpr/history"
	"github.com/rphilander/sexpr/server"
)

var (
	configPath string
	logLevel   string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sexpr",
	Short: "S-expression interpreter",
	Long: `sexpr evaluates a small S-expression language: numbers, strings and
booleans, the builtins + - * / sqrt if print = define, and user functions.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if err := log.SetLogLevelStr(cfg.LogLevel); err != nil {
			return fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level: debug, verbose, info, warning, error")
}

// serviceOptions maps the loaded config onto a Service. store may be nil.
func serviceOptions(store *history.Store) server.ServiceOptions {
	timeout, _ := cfg.Timeout()
	return server.ServiceOptions{
		Cache:     cfg.CacheMode(),
		MaxDepth:  cfg.MaxDepth,
		Timeout:   timeout,
		MaxTraces: cfg.MaxTraces,
		History:   store,
	}
}

// interpOptions maps the loaded config onto a local Interp.
func interpOptions() []sexpr.Option {
	return []sexpr.Option{
		sexpr.WithCacheMode(cfg.CacheMode()),
		sexpr.WithMaxDepth(cfg.MaxDepth),
	}
}

// openHistory opens the configured store, or returns nil when none is set.
func openHistory() (*history.Store, error) {
	if cfg.HistoryDB == "" {
		return nil, nil
	}
	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		return nil, err
	}
	log.Infof("history database: %s", store.Path())
	return store, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
