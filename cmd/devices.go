package cmd

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func newDevicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List Bluetooth devices known to the agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			agent := cfg.NewAgent()
			agent.Logger = log.New(cmd.ErrOrStderr(), "[AGENT] ", log.LstdFlags|log.Lmsgprefix)

			devices, err := agent.ListDevices(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list devices: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(devices) == 0 {
				fmt.Fprintln(out, "No devices found")
				return nil
			}
			for _, d := range devices {
				keys := make([]string, 0, len(d.Metadata))
				for k := range d.Metadata {
					keys = append(keys, k)
				}
				sort.Strings(keys)

				details := make([]string, len(keys))
				for i, k := range keys {
					details[i] = fmt.Sprintf("%s=%v", k, d.Metadata[k])
				}
				fmt.Fprintf(out, "%s\t%s\n", d.Name, strings.Join(details, " "))
			}
			return nil
		},
	}
}
