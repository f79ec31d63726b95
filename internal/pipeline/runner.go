package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/lineforge/weekboard/internal/domain"
)

// Runner invokes one stage command and reports its typed result. Every
// invocation is blocking; the orchestrator never proceeds past a stage
// whose exit code it has not seen.
type Runner interface {
	Run(ctx context.Context, stage domain.Stage, dir string, env []string) (domain.StageResult, error)
}

// ExecRunner runs stage commands as subprocesses with captured streams.
// The host environment is inherited (fetch scripts need PATH and their
// API credentials) and the window variables are appended on top.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, stage domain.Stage, dir string, env []string) (domain.StageResult, error) {
	if err := stage.Validate(); err != nil {
		return domain.StageResult{}, err
	}

	cmd := exec.CommandContext(ctx, stage.Command[0], stage.Command[1:]...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := domain.StageResult{
		Stage:  stage.Name,
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return domain.StageResult{}, fmt.Errorf("stage %s: start command: %w", stage.Name, err)
	}
	return result, nil
}
