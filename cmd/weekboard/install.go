package main

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lineforge/weekboard/internal/contract"
	"github.com/lineforge/weekboard/internal/digest"
	"github.com/lineforge/weekboard/internal/domain"
	"github.com/lineforge/weekboard/internal/install"
	"github.com/lineforge/weekboard/internal/pipeline"
	"github.com/lineforge/weekboard/internal/repro"
)

var (
	installWeek     int
	installStaging  string
	installRevision string
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "freeze an already-validated staging root into its week partition",
	RunE:  runInstall,
}

func init() {
	installCmd.Flags().IntVar(&installWeek, "week", 0, "week number to install")
	installCmd.Flags().StringVar(&installStaging, "staging", "", "validated staging root")
	installCmd.Flags().StringVar(&installRevision, "revision", "", "source revision (defaults to git HEAD)")
	_ = installCmd.MarkFlagRequired("week")
	_ = installCmd.MarkFlagRequired("staging")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	window, err := resolveWindow(installWeek)
	if err != nil {
		return err
	}

	revision := installRevision
	if revision == "" {
		revision, err = repro.HeadRevision(cmd.Context(), ".")
		if err != nil {
			return err
		}
	}

	entries, err := digest.Trees(map[string]string{
		"out":     filepath.Join(installStaging, "out"),
		"reports": filepath.Join(installStaging, "reports"),
	})
	if err != nil {
		return err
	}

	rowCounts := make(map[string]int)
	for artifact, rel := range map[string]string{
		"week_games":       pipeline.PathWeekGames,
		"model_board":      pipeline.PathBoard,
		"predictions_week": pipeline.PathPredictions,
		"finals":           pipeline.PathFinals,
	} {
		rows, err := contract.CountRows(filepath.Join(installStaging, rel))
		if err != nil {
			continue // absent artifacts simply have no recorded count
		}
		rowCounts[artifact] = rows
	}

	manifest := domain.Manifest{
		Schema:    domain.ManifestSchemaV1,
		RunID:     uuid.NewString(),
		Week:      window.Week,
		Start:     window.Start,
		End:       window.End,
		Season:    window.Season,
		WeekTag:   window.WeekTag,
		Revision:  revision,
		Digest:    digest.Summary(entries),
		RowCounts: rowCounts,
		CreatedAt: time.Now().UTC(),
	}

	installer := &install.Installer{
		Logger:      logger,
		OutRoot:     flagOutRoot,
		ReportsRoot: flagReportsRoot,
	}
	return installer.Install(installStaging, manifest)
}
