package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lineforge/weekboard/internal/contract"
	"github.com/lineforge/weekboard/internal/domain"
)

// ValidationLogPath is the deterministic checkpoint log inside a run's
// staging tree. It records contract outcomes only, never wall-clock time,
// so it cannot break the two-pass digest compare.
const ValidationLogPath = "out/validation/validation_log.jsonl"

// Orchestrator executes the fixed stage sequence for one window, failing
// closed on the first stage failure, missing artifact, or contract
// violation. It owns the staging root for the duration of a run.
type Orchestrator struct {
	Logger *slog.Logger
	Runner Runner
	Stages []domain.Stage

	// Strict is the default. A non-strict run waives advisory violations
	// (stale market data) and nothing else.
	Strict bool
}

// Outcome summarizes a completed run over the staging root.
type Outcome struct {
	StagingRoot string
	RowCounts   map[string]int
}

func New(logger *slog.Logger, runner Runner, stages []domain.Stage) *Orchestrator {
	return &Orchestrator{Logger: logger, Runner: runner, Stages: stages, Strict: true}
}

// Run executes every stage in order inside stagingRoot. All intermediate
// artifacts land under the staging root; nothing touches the permanent
// partitions.
func (o *Orchestrator) Run(ctx context.Context, window domain.WeekWindow, stagingRoot string) (*Outcome, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if len(o.Stages) == 0 {
		return nil, fmt.Errorf("no stages configured")
	}
	for _, dir := range []string{"out", "reports", "out/validation"} {
		if err := os.MkdirAll(filepath.Join(stagingRoot, dir), 0o755); err != nil {
			return nil, fmt.Errorf("prepare staging root: %w", err)
		}
	}

	env := windowEnv(window, stagingRoot)
	outcome := &Outcome{StagingRoot: stagingRoot, RowCounts: make(map[string]int)}

	for _, stage := range o.Stages {
		for _, in := range stage.Inputs {
			if _, err := os.Stat(filepath.Join(stagingRoot, in)); err != nil {
				return nil, &MissingInputError{Stage: stage.Name, Path: in}
			}
		}

		o.Logger.Info("stage start", "stage", stage.Name, "week_tag", window.WeekTag)
		result, err := o.Runner.Run(ctx, stage, stagingRoot, env)
		if err != nil {
			return nil, err
		}
		if result.ExitCode != 0 {
			o.Logger.Error("stage failed", "stage", stage.Name, "exit_code", result.ExitCode)
			return nil, &StageError{Result: result}
		}
		for _, out := range stage.Outputs {
			if _, err := os.Stat(filepath.Join(stagingRoot, out)); err != nil {
				return nil, &MissingOutputError{Stage: stage.Name, Path: out}
			}
		}

		if err := o.checkpoint(stage.Name, window, stagingRoot, outcome); err != nil {
			return nil, err
		}
	}

	return outcome, nil
}

// checkpoint gates progression after the stages whose outputs carry
// contracts.
func (o *Orchestrator) checkpoint(stage string, window domain.WeekWindow, root string, outcome *Outcome) error {
	switch stage {
	case "fetch-schedule":
		return o.enforceCSV(stage, root, contract.WeekGamesExpectation(), outcome)
	case "calibrate":
		violations, err := contract.ValidateCalibration(
			filepath.Join(root, PathCalibration), contract.CalibrationTrainRows)
		if err != nil {
			return err
		}
		return o.record(stage, root, "calibration", violations)
	case "assemble-board":
		return o.enforceCSV(stage, root, contract.BoardExpectation(), outcome)
	case "emit-predictions":
		return o.enforceCSV(stage, root, contract.PredictionsExpectation(), outcome)
	case "fetch-finals":
		return o.enforceCSV(stage, root, contract.FinalsExpectation(window.ExpectedFinals), outcome)
	}
	return nil
}

func (o *Orchestrator) enforceCSV(stage, root string, exp contract.Expectation, outcome *Outcome) error {
	path := filepath.Join(root, artifactPath(exp.Artifact))
	violations, err := contract.ValidateCSV(path, exp)
	if err != nil {
		return err
	}
	if len(violations) == 0 {
		rows, err := contract.CountRows(path)
		if err != nil {
			return err
		}
		outcome.RowCounts[exp.Artifact] = rows
	}
	return o.record(stage, root, exp.Artifact, violations)
}

func (o *Orchestrator) record(stage, root, artifact string, violations []contract.Violation) error {
	var fatal, waived []contract.Violation
	for _, v := range violations {
		if v.Advisory && !o.Strict {
			waived = append(waived, v)
			continue
		}
		fatal = append(fatal, v)
	}

	entry := map[string]any{"stage": stage, "artifact": artifact, "status": "pass"}
	if len(waived) > 0 {
		entry["status"] = "warn"
		entry["waived"] = waived
	}
	if len(fatal) > 0 {
		entry["status"] = "fail"
		entry["violations"] = fatal
	}
	if err := appendJSONL(filepath.Join(root, ValidationLogPath), entry); err != nil {
		return err
	}

	for _, v := range waived {
		o.Logger.Warn("contract violation waived",
			"stage", stage, "artifact", v.Artifact, "check", v.Check,
			"expected", v.Expected, "observed", v.Observed)
	}
	if len(fatal) > 0 {
		for _, v := range fatal {
			o.Logger.Error("contract violation",
				"stage", stage, "artifact", v.Artifact, "check", v.Check,
				"expected", v.Expected, "observed", v.Observed)
		}
		return &CheckpointError{Stage: stage, Violations: fatal}
	}
	return nil
}

func artifactPath(artifact string) string {
	switch artifact {
	case "week_games":
		return PathWeekGames
	case "model_board":
		return PathBoard
	case "predictions_week":
		return PathPredictions
	case "finals":
		return PathFinals
	default:
		return artifact
	}
}

func windowEnv(window domain.WeekWindow, stagingRoot string) []string {
	return []string{
		"START=" + window.Start,
		"END=" + window.End,
		"SEASON=" + window.Season,
		"WEEK_TAG=" + window.WeekTag,
		"OUT_DIR=" + filepath.Join(stagingRoot, "out"),
		"REPORTS_DIR=" + filepath.Join(stagingRoot, "reports"),
	}
}

func appendJSONL(path string, entry map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open validation log: %w", err)
	}
	defer f.Close()

	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("append validation log: %w", err)
	}
	return nil
}
