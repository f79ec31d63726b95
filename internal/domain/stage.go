package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Stage is one external pipeline step: a command plus the artifacts it
// declares to read and write, as paths relative to the staging root.
type Stage struct {
	Name    string
	Command []string
	Inputs  []string
	Outputs []string
}

func (s Stage) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("stage name is required")
	}
	if len(s.Command) == 0 || strings.TrimSpace(s.Command[0]) == "" {
		return fmt.Errorf("stage %s: command is required", s.Name)
	}
	for i, in := range s.Inputs {
		if strings.TrimSpace(in) == "" {
			return fmt.Errorf("stage %s: inputs[%d] is empty", s.Name, i)
		}
	}
	for i, out := range s.Outputs {
		if strings.TrimSpace(out) == "" {
			return fmt.Errorf("stage %s: outputs[%d] is empty", s.Name, i)
		}
	}
	return nil
}

// StageResult is the captured outcome of one stage invocation.
type StageResult struct {
	Stage    string
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}
