package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-cli/internal/export"
	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/pipeline"
	"github.com/sells-group/lead-cli/internal/scoring"
)

var (
	processIn     string
	processPreset string
	processDelta  bool
	processOut    string
	processFormat string
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Dedupe, score, and export previously collected leads",
	Long:  "Runs identity, merge, scoring, and optional delta filtering over a JSON file of leads, then writes the result. No discovery, crawling, or outreach is performed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("process"); err != nil {
			return err
		}
		ctx := cmd.Context()

		leads, err := loadLeads(processIn)
		if err != nil {
			return err
		}

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.pipeline()
		if err != nil {
			return err
		}
		res, err := p.Process(ctx, leads, pipeline.ProcessOptions{
			Preset: processPreset,
			Delta:  processDelta,
		})
		if err != nil {
			return eris.Wrap(err, "process")
		}

		out := applyOutputDefaults(model.OutputInput{Path: processOut, Format: processFormat})
		sink, err := a.sink(ctx, out)
		if err != nil {
			return err
		}
		if err := sink.Write(ctx, export.NewRows(res.Leads)); err != nil {
			return eris.Wrap(err, "process: write output")
		}

		output := out.Path
		if out.Format == export.FormatPostgres {
			output = "postgres:" + cfg.Export.Table
		}
		return printJSON(summarize(res, output))
	},
}

func init() {
	processCmd.Flags().StringVar(&processIn, "in", "leads.json", "JSON file of leads")
	processCmd.Flags().StringVar(&processPreset, "preset", scoring.DefaultPreset, "scoring weights preset")
	processCmd.Flags().BoolVar(&processDelta, "delta", false, "emit only new or changed leads")
	processCmd.Flags().StringVar(&processOut, "out", "", "output path, or database URL for postgres")
	processCmd.Flags().StringVar(&processFormat, "format", "", "output format: csv, xlsx, json, postgres")
	rootCmd.AddCommand(processCmd)
}
