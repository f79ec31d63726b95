package contract

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ValidateCSV checks the artifact at path against the expectation. It is
// read-only and returns every violation found, not just the first. A
// non-nil error reports an unreadable artifact, not an unmet expectation.
func ValidateCSV(path string, exp Expectation) ([]Violation, error) {
	if err := exp.Validate(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", exp.Artifact, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", exp.Artifact, err)
	}
	if len(records) == 0 {
		return []Violation{{
			Artifact: exp.Artifact,
			Check:    "header",
			Expected: "header row",
			Observed: "empty file",
		}}, nil
	}

	header := records[0]
	rows := records[1:]
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}

	var violations []Violation
	for _, col := range exp.RequiredColumns {
		if _, ok := index[col]; !ok {
			violations = append(violations, Violation{
				Artifact: exp.Artifact,
				Check:    "required_column",
				Expected: col,
				Observed: "missing (found: " + strings.Join(header, ",") + ")",
			})
		}
	}
	if exp.ForbidExtra {
		allowed := make(map[string]struct{}, len(exp.RequiredColumns))
		for _, col := range exp.RequiredColumns {
			allowed[col] = struct{}{}
		}
		for _, col := range header {
			if _, ok := allowed[strings.TrimSpace(col)]; !ok {
				violations = append(violations, Violation{
					Artifact: exp.Artifact,
					Check:    "forbidden_column",
					Expected: "only " + strings.Join(exp.RequiredColumns, ","),
					Observed: col,
				})
			}
		}
	}

	if exp.ExactRows != nil && len(rows) != *exp.ExactRows {
		violations = append(violations, Violation{
			Artifact: exp.Artifact,
			Check:    "row_count",
			Expected: strconv.Itoa(*exp.ExactRows),
			Observed: strconv.Itoa(len(rows)),
		})
	}
	if exp.MinRows != nil && len(rows) < *exp.MinRows {
		violations = append(violations, Violation{
			Artifact: exp.Artifact,
			Check:    "min_row_count",
			Expected: ">= " + strconv.Itoa(*exp.MinRows),
			Observed: strconv.Itoa(len(rows)),
		})
	}

	for _, pred := range exp.Predicates {
		col, ok := index[pred.Column]
		if !ok {
			// A missing predicate column is already reported when it is
			// also a required column; report it once here otherwise.
			if !contains(exp.RequiredColumns, pred.Column) {
				violations = append(violations, Violation{
					Artifact: exp.Artifact,
					Check:    "predicate_column",
					Expected: pred.Column,
					Observed: "missing",
				})
			}
			continue
		}
		violations = append(violations, applyPredicate(exp.Artifact, pred, col, rows)...)
	}

	return violations, nil
}

func applyPredicate(artifact string, pred Predicate, col int, rows [][]string) []Violation {
	var violations []Violation
	add := func(check, expected, observed string) {
		violations = append(violations, Violation{
			Artifact: artifact,
			Check:    check,
			Expected: expected,
			Observed: observed,
			Advisory: pred.Advisory,
		})
	}
	for i, row := range rows {
		if col >= len(row) {
			add("predicate:"+pred.Column, "value present",
				fmt.Sprintf("row %d has no column %s", i+1, pred.Column))
			continue
		}
		cell := strings.TrimSpace(row[col])
		if pred.Op == OpNotNull {
			if cell == "" {
				add("predicate:"+pred.Column+" not_null", "non-null",
					fmt.Sprintf("row %d is empty", i+1))
			}
			continue
		}
		value, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			add("predicate:"+pred.Column, "numeric value",
				fmt.Sprintf("row %d: %q", i+1, cell))
			continue
		}
		switch pred.Op {
		case OpNotEqual:
			if value == pred.Value {
				add("predicate:"+pred.Column+" ne",
					fmt.Sprintf("!= %g", pred.Value),
					fmt.Sprintf("row %d: %g", i+1, value))
			}
		case OpAtLeast:
			if value < pred.Value {
				add("predicate:"+pred.Column+" ge",
					fmt.Sprintf(">= %g", pred.Value),
					fmt.Sprintf("row %d: %g", i+1, value))
			}
		case OpAtMost:
			if value > pred.Value {
				add("predicate:"+pred.Column+" le",
					fmt.Sprintf("<= %g", pred.Value),
					fmt.Sprintf("row %d: %g", i+1, value))
			}
		}
	}
	return violations
}

// CountRows returns the number of data rows (header excluded) in a CSV
// artifact, for manifest row counts.
func CountRows(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return 0, nil
	}
	return len(records) - 1, nil
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
