// Package pipeline sequences the fixed weekly stage set and gates
// progression on artifact contracts. Stage scripts are external
// collaborators: each reads the window from the environment, writes its
// declared outputs, and exits non-zero on failure.
package pipeline

import (
	"path/filepath"

	"github.com/lineforge/weekboard/internal/domain"
)

// Logical artifact paths, relative to a run's staging root. The out/ and
// reports/ subtrees become the installed partition.
const (
	PathWeekGames   = "out/msf/week_games.csv"
	PathWeekOdds    = "out/odds/week_odds.csv"
	PathWeekWithElo = "out/week_with_elo.csv"
	PathCalibration = "out/calibration/model_line_calibration.json"
	PathInjuries    = "out/injuries/injury_adjustments.csv"
	PathBoard       = "out/model_board.csv"
	PathSchemaLock  = "out/board_schema.lock.json"
	PathRunMeta     = "out/validation/run_meta.json"
	PathReport      = "reports/week_report.html"
	PathPredictions = "out/predictions_week.csv"
	PathAlignment   = "out/validation/alignment.json"
	PathFinals      = "out/finals.csv"
	PathMetrics     = "out/metrics.csv"
)

// Stages returns the fixed weekly sequence wired to scripts under
// scriptsDir. The order is the dependency order; no stage may run before
// its declared inputs exist.
func Stages(scriptsDir string) []domain.Stage {
	script := func(name string) []string {
		return []string{filepath.Join(scriptsDir, name)}
	}
	return []domain.Stage{
		{
			Name:    "fetch-schedule",
			Command: script("fetch_schedule"),
			Outputs: []string{PathWeekGames},
		},
		{
			Name:    "fetch-odds",
			Command: script("fetch_odds"),
			Inputs:  []string{PathWeekGames},
			Outputs: []string{PathWeekOdds},
		},
		{
			Name:    "join-ratings",
			Command: script("join_ratings"),
			Inputs:  []string{PathWeekGames, PathWeekOdds},
			Outputs: []string{PathWeekWithElo},
		},
		{
			Name:    "calibrate",
			Command: script("calibrate_probs"),
			Inputs:  []string{PathWeekWithElo},
			Outputs: []string{PathCalibration},
		},
		{
			Name:    "fetch-injuries",
			Command: script("fetch_injuries"),
			Inputs:  []string{PathWeekGames},
			Outputs: []string{PathInjuries},
		},
		{
			Name:    "assemble-board",
			Command: script("assemble_board"),
			Inputs:  []string{PathWeekWithElo, PathWeekOdds, PathCalibration, PathInjuries},
			Outputs: []string{PathBoard},
		},
		{
			Name:    "lock-schema",
			Command: script("lock_board_schema"),
			Inputs:  []string{PathBoard},
			Outputs: []string{PathSchemaLock},
		},
		{
			Name:    "validate-manifest",
			Command: script("validate_and_manifest"),
			Inputs:  []string{PathBoard, PathCalibration},
			Outputs: []string{PathRunMeta},
		},
		{
			Name:    "render-report",
			Command: script("render_report"),
			Inputs:  []string{PathBoard},
			Outputs: []string{PathReport},
		},
		{
			Name:    "emit-predictions",
			Command: script("emit_predictions"),
			Inputs:  []string{PathBoard},
			Outputs: []string{PathPredictions},
		},
		{
			Name:    "verify-alignment",
			Command: script("verify_alignment"),
			Inputs:  []string{PathBoard, PathPredictions},
			Outputs: []string{PathAlignment},
		},
		{
			Name:    "fetch-finals",
			Command: script("fetch_finals"),
			Inputs:  []string{PathWeekGames},
			Outputs: []string{PathFinals},
		},
		{
			Name:    "evaluate",
			Command: script("evaluate_metrics"),
			Inputs:  []string{PathFinals, PathPredictions},
			Outputs: []string{PathMetrics},
		},
	}
}
