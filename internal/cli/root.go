// Package cli implements the chievents CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"chievents/internal/config"
	"chievents/internal/logger"
	"chievents/internal/pipeline"
)

var (
	configPath string
	verbose    bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "chievents",
	Short: "Chicago venue and flight monitor",
	Long: "Polls Chicago venue event feeds and O'Hare flight status, detects " +
		"newly-announced events against a JSON snapshot, and emails a daily " +
		"taxi-demand report.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

// setup loads config and builds the logger and pipeline shared by most
// subcommands.
func setup() (*config.Config, *zap.Logger, *pipeline.Pipeline, error) {
	log, err := logger.New(verbose)
	if err != nil {
		return nil, nil, nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config %s: %w", configPath, err)
	}

	p, err := pipeline.New(cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, p, nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
