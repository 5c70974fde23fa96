// Command planetsim runs the Planetary Ascension economy engine.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/planetary-ascension/internal/config"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "planetsim",
		Short: "Planetary Ascension resource economy engine",
		Long: `Runs the resource economy and progression engine of Planetary Ascension:
six resources, buildings, upgrades, and a technology tree on a fixed 100ms tick.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to TOML config file")

	rootCmd.AddCommand(newServeCmd(), newCatalogCmd(), newSimulateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config and installs the slog handler it describes.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return cfg, err
	}
	slog.SetDefault(slog.New(cfg.Log.Handler()))
	return cfg, nil
}
