package contract

// Built-in expectations for the weekly board artifacts. The 0.5 guard on
// p_home_model is a regression tripwire: a degenerate calibrator collapses
// every probability to the decision boundary.

func WeekGamesExpectation() Expectation {
	return Expectation{
		Artifact:        "week_games",
		RequiredColumns: []string{"game_id", "home_abbr", "away_abbr", "game_date"},
		MinRows:         IntPtr(1),
	}
}

func BoardExpectation() Expectation {
	return Expectation{
		Artifact: "model_board",
		RequiredColumns: []string{
			"game_id", "home_abbr", "away_abbr",
			"vegas_line_home", "model_line_home",
			"p_home_model", "market_p_home", "confidence",
		},
		MinRows: IntPtr(1),
		Predicates: []Predicate{
			{Column: "p_home_model", Op: OpNotEqual, Value: 0.5},
			{Column: "p_home_model", Op: OpAtLeast, Value: 0},
			{Column: "p_home_model", Op: OpAtMost, Value: 1},
			// Missing market probabilities mean a stale odds feed, which a
			// non-strict run may tolerate.
			{Column: "market_p_home", Op: OpNotNull, Advisory: true},
		},
	}
}

func PredictionsExpectation() Expectation {
	return Expectation{
		Artifact:        "predictions_week",
		RequiredColumns: []string{"game_id", "p_home_model"},
		MinRows:         IntPtr(1),
	}
}

// FinalsExpectation pins the finals artifact to the configured number of
// completed games for the window, header excluded.
func FinalsExpectation(expectedFinals int) Expectation {
	return Expectation{
		Artifact: "finals",
		RequiredColumns: []string{
			"game_id", "home_abbr", "away_abbr", "home_score", "away_score",
		},
		ExactRows: IntPtr(expectedFinals),
	}
}
