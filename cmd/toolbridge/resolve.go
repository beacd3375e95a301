package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	cliconfig "github.com/toolbridge/toolbridge/internal/cli/config"
	"github.com/toolbridge/toolbridge/internal/config"
	"github.com/toolbridge/toolbridge/internal/metadata"
	"github.com/toolbridge/toolbridge/internal/profile"
	"github.com/toolbridge/toolbridge/internal/project"
)

var (
	resolveProject string
	resolveParams  []string
	resolveJSON    bool
)

func init() {
	resolveCmd.Flags().StringVar(&resolveProject, "project", "", "Project directory holding the submitted files (defaults to the configured project dir)")
	resolveCmd.Flags().StringArrayVar(&resolveParams, "param", nil, "Submitted parameter as key=value (repeatable)")
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "Output results as JSON")
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <profiles.yml>",
	Short: "Resolve profiles against a project and generate output metadata",
	Long: `Match every profile against the files registered in the project directory
and the submitted parameters, and print the output artifacts each
matching profile would produce.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appCfg, err := cliconfig.Load()
		if err != nil {
			return err
		}
		logger, err := newLogger(appCfg.Logging.Level)
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		formats := metadata.NewRegistry()
		profiles, err := config.LoadFile(args[0], formats)
		if err != nil {
			return err
		}

		projectDir := resolveProject
		if projectDir == "" {
			projectDir = appCfg.Project.Dir
		}
		index, err := project.LoadDir(projectDir, formats)
		if err != nil {
			return err
		}

		parameters, err := parseParams(resolveParams)
		if err != nil {
			return err
		}

		profiler := profile.NewProfiler(profiles, profile.WithLogger(logger))
		results, err := profiler.Resolve(index, parameters)
		if err != nil {
			return err
		}

		if resolveJSON {
			return printResultsJSON(cmd, results)
		}
		printResults(cmd, results)
		return nil
	},
}

// parseParams turns repeated key=value flags into a parameter map.
func parseParams(raw []string) (map[string]string, error) {
	parameters := make(map[string]string, len(raw))
	for _, kv := range raw {
		key, value, found := strings.Cut(kv, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", kv)
		}
		parameters[key] = value
	}
	return parameters, nil
}

func printResults(cmd *cobra.Command, results []profile.Result) {
	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "No profiles matched.")
		return
	}
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	for _, result := range results {
		bold.Fprintf(out, "Profile %s\n", result.Profile.Name)
		if result.Err != nil {
			red.Fprintf(out, "  generation failed: %v\n", result.Err)
			continue
		}
		for _, artifact := range result.Artifacts {
			fmt.Fprintf(out, "  %s\n", artifact.Filename)
			fmt.Fprint(out, indent(artifact.Metadata.XML(), "    "))
		}
	}
}

type resultDoc struct {
	Profile   string        `json:"profile"`
	Error     string        `json:"error,omitempty"`
	Artifacts []artifactDoc `json:"artifacts,omitempty"`
}

type artifactDoc struct {
	Filename string               `json:"filename"`
	Metadata metadata.Description `json:"metadata"`
}

func printResultsJSON(cmd *cobra.Command, results []profile.Result) error {
	docs := make([]resultDoc, 0, len(results))
	for _, result := range results {
		doc := resultDoc{Profile: result.Profile.Name}
		if result.Err != nil {
			doc.Error = result.Err.Error()
		}
		for _, artifact := range result.Artifacts {
			doc.Artifacts = append(doc.Artifacts, artifactDoc{
				Filename: artifact.Filename,
				Metadata: artifact.Metadata.Describe(),
			})
		}
		docs = append(docs, doc)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(docs)
}

// indent prefixes every non-empty line of s.
func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
