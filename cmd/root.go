// Package cmd implements the tsplprint command line.
package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/nixxel-company-limited/tspl-label-printer/config"
	"github.com/spf13/cobra"
)

var configFile string

// NewRootCommand assembles the command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tsplprint",
		Short:         "Print TSPL labels over USB, serial, network, file or Bluetooth",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to configuration file")

	rootCmd.AddCommand(
		newPrintCommand(),
		newDevicesCommand(),
		newServeCommand(),
		newAPICommand(),
	)
	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(configFile)
}

func newLogger(prefix string) *log.Logger {
	return log.New(os.Stdout, prefix, log.LstdFlags|log.Lmsgprefix)
}
