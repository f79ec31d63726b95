// Package contract declares and enforces artifact expectations: exact
// column sets, row counts, and scalar predicates over columns. A failed
// expectation is always fatal to the run that produced the artifact.
package contract

import (
	"errors"
	"fmt"
	"strings"
)

// Predicate operators.
const (
	OpNotEqual = "ne"
	OpNotNull  = "not_null"
	OpAtLeast  = "ge"
	OpAtMost   = "le"
)

// Violation reports one unmet expectation: which artifact, which check,
// and the expected versus observed values. Advisory violations may be
// waived by a non-strict run; everything else is always fatal.
type Violation struct {
	Artifact string `json:"artifact"`
	Check    string `json:"check"`
	Expected string `json:"expected"`
	Observed string `json:"observed"`
	Advisory bool   `json:"advisory,omitempty"`
}

func (v Violation) Error() string {
	return fmt.Sprintf("contract violation: %s: %s: expected %s, observed %s",
		v.Artifact, v.Check, v.Expected, v.Observed)
}

// Expectation is a declarative contract over a CSV artifact. Extra columns
// are allowed unless ForbidExtra is set.
type Expectation struct {
	Artifact        string
	RequiredColumns []string
	ForbidExtra     bool
	ExactRows       *int
	MinRows         *int
	Predicates      []Predicate
}

// Predicate is a scalar check applied to every data row of one column.
// Advisory predicates produce advisory violations.
type Predicate struct {
	Column   string
	Op       string
	Value    float64
	Advisory bool
}

func (e Expectation) Validate() error {
	if strings.TrimSpace(e.Artifact) == "" {
		return errors.New("expectation artifact is required")
	}
	if len(e.RequiredColumns) == 0 && e.ExactRows == nil && e.MinRows == nil && len(e.Predicates) == 0 {
		return fmt.Errorf("expectation for %s declares no checks", e.Artifact)
	}
	if e.ExactRows != nil && *e.ExactRows < 0 {
		return fmt.Errorf("expectation for %s: exact rows must be >= 0", e.Artifact)
	}
	if e.MinRows != nil && *e.MinRows < 0 {
		return fmt.Errorf("expectation for %s: min rows must be >= 0", e.Artifact)
	}
	for i, p := range e.Predicates {
		if strings.TrimSpace(p.Column) == "" {
			return fmt.Errorf("expectation for %s: predicates[%d] column is required", e.Artifact, i)
		}
		switch p.Op {
		case OpNotEqual, OpNotNull, OpAtLeast, OpAtMost:
		default:
			return fmt.Errorf("expectation for %s: predicates[%d] op unsupported: %q", e.Artifact, i, p.Op)
		}
	}
	return nil
}

// IntPtr returns a pointer to n, for row-count expectations.
func IntPtr(n int) *int { return &n }
