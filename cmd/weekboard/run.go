package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lineforge/weekboard/internal/pipeline"
	"github.com/lineforge/weekboard/internal/platform/env"
)

var (
	runWeek    int
	runStaging string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "execute one pipeline pass into a staging root (no install)",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().IntVar(&runWeek, "week", 0, "week number to build")
	runCmd.Flags().StringVar(&runStaging, "staging", "", "staging root for this pass")
	_ = runCmd.MarkFlagRequired("week")
	_ = runCmd.MarkFlagRequired("staging")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	window, err := resolveWindow(runWeek)
	if err != nil {
		return err
	}
	// Stage commands run with the staging root as working directory, so a
	// relative scripts dir must be resolved against the invocation cwd
	// before the first stage starts.
	scriptsDir, err := filepath.Abs(flagScriptsDir)
	if err != nil {
		return &configError{err: err}
	}
	stages := pipeline.Stages(scriptsDir)
	overrides, err := loadOverrides()
	if err != nil {
		return err
	}
	if overrides != nil {
		stages, err = overrides.Apply(stages)
		if err != nil {
			return &configError{err: err}
		}
	}

	orchestrator := pipeline.New(logger, pipeline.ExecRunner{}, stages)
	// Acceptance runs are always strict; only ad-hoc passes may waive
	// advisory checks.
	orchestrator.Strict, err = env.Bool("WEEKBOARD_STRICT", true)
	if err != nil {
		return &configError{err: err}
	}
	outcome, err := orchestrator.Run(cmd.Context(), window, runStaging)
	if err != nil {
		return err
	}
	logger.Info("run complete", "week_tag", window.WeekTag,
		"staging", outcome.StagingRoot, "row_counts", outcome.RowCounts)
	return nil
}
