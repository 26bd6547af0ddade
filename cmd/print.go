package cmd

import (
	"fmt"

	"github.com/nixxel-company-limited/tspl-label-printer/adapter"
	"github.com/nixxel-company-limited/tspl-label-printer/label"
	"github.com/nixxel-company-limited/tspl-label-printer/tspl"
	"github.com/spf13/cobra"
)

func newPrintCommand() *cobra.Command {
	var copies int

	cmd := &cobra.Command{
		Use:   "print <label-file>",
		Short: "Print a YAML or JSON label document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			doc, err := label.Load(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("copies") {
				doc.Copies = copies
			}
			if err := doc.Validate(); err != nil {
				return err
			}

			logger := newLogger("[PRINT] ")
			device, err := cfg.Open(cmd.Context(), logger)
			if err != nil {
				return fmt.Errorf("failed to open %s printer: %w", cfg.Transport, err)
			}

			err = adapter.Use(device, logger, func(a adapter.Adapter) error {
				p, err := tspl.NewWithConfiguration(a, doc.Apply(cfg.Label))
				if err != nil {
					return err
				}
				return doc.Render(p)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Printed %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().IntVarP(&copies, "copies", "n", 1, "Number of copies, overriding the document")
	return cmd
}
