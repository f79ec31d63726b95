package main

import (
	"github.com/spf13/cobra"

	"github.com/lineforge/weekboard/internal/install"
	"github.com/lineforge/weekboard/internal/ledger"
	"github.com/lineforge/weekboard/internal/pipeline"
	"github.com/lineforge/weekboard/internal/platform/postgres"
	"github.com/lineforge/weekboard/internal/repro"
)

var (
	acceptWeek int
	acceptRepo string
)

var acceptCmd = &cobra.Command{
	Use:   "accept",
	Short: "run the pipeline twice in an isolated copy and install on matching digests",
	RunE:  runAccept,
}

func init() {
	acceptCmd.Flags().IntVar(&acceptWeek, "week", 0, "week number to accept")
	acceptCmd.Flags().StringVar(&acceptRepo, "repo", ".", "source repository root")
	_ = acceptCmd.MarkFlagRequired("week")
	rootCmd.AddCommand(acceptCmd)
}

func runAccept(cmd *cobra.Command, args []string) error {
	window, err := resolveWindow(acceptWeek)
	if err != nil {
		return err
	}
	overrides, err := loadOverrides()
	if err != nil {
		return err
	}

	harness := &repro.Harness{
		Logger:     logger,
		RepoDir:    acceptRepo,
		ScriptsDir: flagScriptsDir,
		Overrides:  overrides,
		Runner:     pipeline.ExecRunner{},
		Installer: &install.Installer{
			Logger:      logger,
			OutRoot:     flagOutRoot,
			ReportsRoot: flagReportsRoot,
		},
	}
	result, err := harness.AcceptWeek(cmd.Context(), window)
	if err != nil {
		return err
	}
	logger.Info("week accepted",
		"week_tag", result.Manifest.WeekTag,
		"revision", result.Manifest.Revision,
		"digest", result.Manifest.Digest,
		"row_counts", result.Manifest.RowCounts)

	dbCfg, err := postgres.ConfigFromEnv()
	if err != nil {
		return &configError{err: err}
	}
	if !dbCfg.Enabled() {
		return nil
	}
	db, err := postgres.Open(cmd.Context(), dbCfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if err := ledger.EnsureSchema(cmd.Context(), db); err != nil {
		return err
	}
	if err := ledger.Append(cmd.Context(), db, result.Manifest); err != nil {
		return err
	}
	logger.Info("manifest recorded", "run_id", result.Manifest.RunID)
	return nil
}
