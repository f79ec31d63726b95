// Command weekboard builds, validates, accepts, and publishes the weekly
// forecasting board partitions.
package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lineforge/weekboard/internal/config"
	"github.com/lineforge/weekboard/internal/contract"
	"github.com/lineforge/weekboard/internal/domain"
	"github.com/lineforge/weekboard/internal/exitcode"
	"github.com/lineforge/weekboard/internal/install"
	"github.com/lineforge/weekboard/internal/pipeline"
	"github.com/lineforge/weekboard/internal/repro"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

var (
	flagWeeksPath   string
	flagScriptsDir  string
	flagStagesPath  string
	flagOutRoot     string
	flagReportsRoot string
)

var rootCmd = &cobra.Command{
	Use:           "weekboard",
	Short:         "weekly forecasting board pipeline",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagWeeksPath, "weeks", "config/weeks.yaml", "week window configuration file")
	rootCmd.PersistentFlags().StringVar(&flagScriptsDir, "scripts", "scripts", "stage scripts directory (relative to the repo root)")
	rootCmd.PersistentFlags().StringVar(&flagStagesPath, "stages", "", "optional stage command override file")
	rootCmd.PersistentFlags().StringVar(&flagOutRoot, "out", "out", "permanent output partition root")
	rootCmd.PersistentFlags().StringVar(&flagReportsRoot, "reports", "reports", "permanent reports partition root")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(exitFor(err))
	}
}

// configError marks pre-flight configuration failures so CI sees a
// distinct exit code before any stage runs.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

func exitFor(err error) int {
	var (
		confErr    *configError
		unclean    *repro.UncleanTreeError
		missingIn  *pipeline.MissingInputError
		missingOut *pipeline.MissingOutputError
		checkpoint *pipeline.CheckpointError
		mismatch   *repro.MismatchError
		symlink    *install.SymlinkError
		stage      *pipeline.StageError
		violation  contract.Violation
	)
	switch {
	case errors.As(err, &confErr):
		return exitcode.Config
	case errors.As(err, &unclean):
		return exitcode.UncleanTree
	case errors.As(err, &missingIn), errors.As(err, &missingOut):
		return exitcode.MissingArtifact
	case errors.As(err, &checkpoint), errors.As(err, &violation):
		return exitcode.Contract
	case errors.As(err, &mismatch):
		return exitcode.ReproMismatch
	case errors.As(err, &symlink):
		return exitcode.SymlinkFound
	case errors.As(err, &stage):
		return exitcode.StageFailure
	default:
		return exitcode.StageFailure
	}
}

// resolveWindow loads the weeks file and resolves one window. Any missing
// or invalid field is a fatal configuration error.
func resolveWindow(week int) (domain.WeekWindow, error) {
	weeks, err := config.LoadWeeks(flagWeeksPath)
	if err != nil {
		return domain.WeekWindow{}, &configError{err: err}
	}
	window, err := weeks.Window(week)
	if err != nil {
		return domain.WeekWindow{}, &configError{err: err}
	}
	return window, nil
}

// loadOverrides reads the optional stage command override file.
func loadOverrides() (*pipeline.StagesFile, error) {
	if flagStagesPath == "" {
		return nil, nil
	}
	file, err := pipeline.LoadStages(flagStagesPath)
	if err != nil {
		return nil, &configError{err: err}
	}
	return &file, nil
}
