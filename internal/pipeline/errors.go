package pipeline

import (
	"fmt"
	"strings"

	"github.com/lineforge/weekboard/internal/contract"
	"github.com/lineforge/weekboard/internal/domain"
)

// StageError reports an external stage's non-zero exit, with its captured
// output verbatim.
type StageError struct {
	Result domain.StageResult
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s exited %d: %s",
		e.Result.Stage, e.Result.ExitCode, strings.TrimSpace(string(e.Result.Stderr)))
}

// MissingInputError reports a declared stage input absent at invocation
// time. The stage is never started.
type MissingInputError struct {
	Stage string
	Path  string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("stage %s: required input %s does not exist", e.Stage, e.Path)
}

// MissingOutputError reports a stage that exited zero without writing a
// declared output.
type MissingOutputError struct {
	Stage string
	Path  string
}

func (e *MissingOutputError) Error() string {
	return fmt.Sprintf("stage %s: declared output %s was not written", e.Stage, e.Path)
}

// CheckpointError carries every contract violation found at a checkpoint.
type CheckpointError struct {
	Stage      string
	Violations []contract.Violation
}

func (e *CheckpointError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Error())
	}
	return fmt.Sprintf("checkpoint after %s: %s", e.Stage, strings.Join(parts, "; "))
}
