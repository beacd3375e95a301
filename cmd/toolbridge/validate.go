package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/toolbridge/toolbridge/internal/config"
	"github.com/toolbridge/toolbridge/internal/metadata"
)

var validateCmd = &cobra.Command{
	Use:   "validate <profiles.yml>",
	Short: "Validate a profile definition file",
	Long:  "Load a profile definition file and report every configuration error it contains",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		formats := metadata.NewRegistry()
		profiles, err := config.LoadFile(args[0], formats)
		if err != nil {
			red := color.New(color.FgRed, color.Bold)
			red.Fprintln(cmd.ErrOrStderr(), "Configuration errors:")
			for _, e := range multierr.Errors(err) {
				fmt.Fprintf(cmd.ErrOrStderr(), "  - %v\n", e)
			}
			return fmt.Errorf("profile definitions are invalid")
		}

		green := color.New(color.FgGreen)
		green.Fprintf(cmd.OutOrStdout(), "OK: %d profile(s) loaded\n", len(profiles))
		for _, p := range profiles {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d input template(s), %d output entries\n",
				p.Name, len(p.Input), len(p.Output))
		}
		return nil
	},
}
