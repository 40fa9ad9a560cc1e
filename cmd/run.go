package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/export"
	"github.com/sells-group/lead-cli/internal/pipeline"
)

var (
	runInput    string
	runOut      string
	runFormat   string
	runPreset   string
	runDelta    bool
	runLeadsOut string
)

// runSummary is what run and process print on success.
type runSummary struct {
	RunID      string                 `json:"runId"`
	Discovered int                    `json:"discovered"`
	Merged     int                    `json:"merged"`
	Emitted    int                    `json:"emitted"`
	Duplicates int                    `json:"duplicates"`
	Output     string                 `json:"output,omitempty"`
	Phases     []pipeline.PhaseResult `json:"phases,omitempty"`
}

func summarize(res *pipeline.Result, output string) runSummary {
	return runSummary{
		RunID:      res.RunID,
		Discovered: res.Discovered,
		Merged:     res.Merged,
		Emitted:    res.Emitted,
		Duplicates: res.Merge.Duplicates,
		Output:     output,
		Phases:     res.Phases,
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full lead pipeline for an input file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("run"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		in, err := loadRunInput(runInput)
		if err != nil {
			return err
		}
		if runOut != "" {
			in.Output.Path = runOut
		}
		if runFormat != "" {
			in.Output.Format = runFormat
		}
		if runPreset != "" {
			in.WeightsPreset = runPreset
		}
		if cmd.Flags().Changed("delta") {
			in.DeltaMode = runDelta
		}
		in.Output = applyOutputDefaults(in.Output)

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.pipeline()
		if err != nil {
			return err
		}

		res, err := p.Run(ctx, in)
		if err != nil {
			return eris.Wrap(err, "run")
		}

		if runLeadsOut != "" {
			if err := writeLeads(runLeadsOut, res); err != nil {
				return err
			}
		}

		zap.L().Info("run complete",
			zap.String("run_id", res.RunID),
			zap.Int("emitted", res.Emitted),
		)
		output := in.Output.Path
		if in.Output.Format == export.FormatPostgres {
			output = "postgres:" + cfg.Export.Table
		}
		return printJSON(summarize(res, output))
	},
}

// writeLeads saves the full emitted leads as JSON for a later process run.
func writeLeads(path string, res *pipeline.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res.Leads); err != nil {
		_ = f.Close()
		return eris.Wrap(err, "encode leads")
	}
	return f.Close()
}

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "input.json", "run input file (JSON or YAML)")
	runCmd.Flags().StringVar(&runOut, "out", "", "output path, or database URL for postgres")
	runCmd.Flags().StringVar(&runFormat, "format", "", "output format: csv, xlsx, json, postgres")
	runCmd.Flags().StringVar(&runPreset, "preset", "", "scoring weights preset")
	runCmd.Flags().BoolVar(&runDelta, "delta", false, "emit only new or changed leads")
	runCmd.Flags().StringVar(&runLeadsOut, "leads-out", "", "also write the full emitted leads as JSON")
	rootCmd.AddCommand(runCmd)
}
