package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/toolbridge/toolbridge/internal/cli/ui"
	"github.com/toolbridge/toolbridge/internal/config"
	"github.com/toolbridge/toolbridge/internal/metadata"
	"github.com/toolbridge/toolbridge/internal/profile"
)

var (
	describeJSON    bool
	describeNoColor bool
)

func init() {
	describeCmd.Flags().BoolVar(&describeJSON, "json", false, "Output descriptions as JSON")
	describeCmd.Flags().BoolVar(&describeNoColor, "no-color", false, "Disable colored output")
}

var describeCmd = &cobra.Command{
	Use:   "describe <profiles.yml>",
	Short: "Describe the loaded profiles",
	Long: `Render the presentation shape of every profile: templates with format,
mimetype, uniqueness and filename policy, parameter lists for input
templates, and metafield rules with their operator tags for output
templates.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		formats := metadata.NewRegistry()
		profiles, err := config.LoadFile(args[0], formats)
		if err != nil {
			return err
		}

		descriptions := make([]profile.ProfileDescription, 0, len(profiles))
		for _, p := range profiles {
			descriptions = append(descriptions, p.Describe())
		}

		if describeJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(descriptions)
		}
		ui.RenderProfiles(cmd.OutOrStdout(), descriptions, describeNoColor)
		return nil
	},
}
