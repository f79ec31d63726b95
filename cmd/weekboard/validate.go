package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lineforge/weekboard/internal/contract"
	"github.com/lineforge/weekboard/internal/pipeline"
)

var (
	validateArtifact string
	validatePath     string
	validateFinals   int
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "check one artifact against its contract, standalone",
	Long: "Runs the same read-only contract checks the orchestrator runs at\n" +
		"its checkpoints. Artifacts: week_games, model_board,\n" +
		"predictions_week, finals, calibration.",
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateArtifact, "artifact", "", "logical artifact name")
	validateCmd.Flags().StringVar(&validatePath, "path", "", "artifact file path")
	validateCmd.Flags().IntVar(&validateFinals, "expected-finals", 0, "required for the finals artifact")
	_ = validateCmd.MarkFlagRequired("artifact")
	_ = validateCmd.MarkFlagRequired("path")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	var violations []contract.Violation
	var err error

	switch validateArtifact {
	case "week_games":
		violations, err = contract.ValidateCSV(validatePath, contract.WeekGamesExpectation())
	case "model_board":
		violations, err = contract.ValidateCSV(validatePath, contract.BoardExpectation())
	case "predictions_week":
		violations, err = contract.ValidateCSV(validatePath, contract.PredictionsExpectation())
	case "finals":
		if validateFinals <= 0 {
			return &configError{err: fmt.Errorf("finals artifact requires --expected-finals")}
		}
		violations, err = contract.ValidateCSV(validatePath, contract.FinalsExpectation(validateFinals))
	case "calibration":
		violations, err = contract.ValidateCalibration(validatePath, contract.CalibrationTrainRows)
	default:
		return &configError{err: fmt.Errorf("unknown artifact %q", validateArtifact)}
	}
	if err != nil {
		return err
	}
	if len(violations) > 0 {
		for _, v := range violations {
			logger.Error("contract violation", "artifact", v.Artifact,
				"check", v.Check, "expected", v.Expected, "observed", v.Observed)
		}
		return &pipeline.CheckpointError{Stage: "validate", Violations: violations}
	}
	logger.Info("contract satisfied", "artifact", validateArtifact, "path", validatePath)
	return nil
}
