package main

import (
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/lead-cli/internal/scoring"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the scoring weight presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		ps, err := scoring.LoadPresets(cfg.Scoring.PresetsPath)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(map[string]any{"presets": ps}); err != nil {
			return err
		}
		return enc.Close()
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}
