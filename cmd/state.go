package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/delta"
)

var stateShowEntries bool

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect and manage delta state and the page cache",
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored delta fingerprints",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("state"); err != nil {
			return err
		}
		ctx := cmd.Context()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		s := delta.NewTracker(a.store, cfg.Delta.StateKey).Load(ctx)
		out := map[string]any{
			"key":     stateKey(),
			"entries": len(s),
		}
		if stateShowEntries {
			out["fingerprints"] = s
		}
		return printJSON(out)
	},
}

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the stored delta fingerprints",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("state"); err != nil {
			return err
		}
		ctx := cmd.Context()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.DeleteValue(ctx, stateKey()); err != nil {
			return eris.Wrap(err, "state: reset")
		}
		zap.L().Info("state: reset", zap.String("key", stateKey()))
		return nil
	},
}

var statePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired pages from the crawl cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("state"); err != nil {
			return err
		}
		ctx := cmd.Context()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.store.DeleteExpiredPages(ctx)
		if err != nil {
			return eris.Wrap(err, "state: prune")
		}
		return printJSON(map[string]int{"pruned": n})
	},
}

func stateKey() string {
	if cfg.Delta.StateKey != "" {
		return cfg.Delta.StateKey
	}
	return delta.DefaultStateKey
}

func init() {
	stateShowCmd.Flags().BoolVar(&stateShowEntries, "entries", false, "print every fingerprint")
	stateCmd.AddCommand(stateShowCmd, stateResetCmd, statePruneCmd)
	rootCmd.AddCommand(stateCmd)
}
