package pipeline

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lineforge/weekboard/internal/domain"
)

// StagesSchemaV1 versions the optional stage-override file. The topology
// is fixed; overrides may only swap the command a named stage runs.
const StagesSchemaV1 = "weekboard.stages.v1"

type StagesFile struct {
	Schema    string          `yaml:"schema"`
	Overrides []StageOverride `yaml:"overrides"`
}

type StageOverride struct {
	Name    string   `yaml:"name"`
	Command []string `yaml:"command"`
}

// ParseStages decodes and validates a stage-override document.
func ParseStages(input []byte) (StagesFile, error) {
	var file StagesFile
	if err := yaml.Unmarshal(input, &file); err != nil {
		return StagesFile{}, fmt.Errorf("decode stages config: %w", err)
	}
	if err := file.Validate(); err != nil {
		return StagesFile{}, err
	}
	return file, nil
}

// LoadStages reads a stage-override file from path.
func LoadStages(path string) (StagesFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return StagesFile{}, fmt.Errorf("read stages config: %w", err)
	}
	return ParseStages(raw)
}

func (f StagesFile) Validate() error {
	if strings.TrimSpace(f.Schema) != StagesSchemaV1 {
		return fmt.Errorf("stages config schema must be %q", StagesSchemaV1)
	}
	if len(f.Overrides) == 0 {
		return errors.New("stages config must declare at least one override")
	}
	seen := make(map[string]struct{}, len(f.Overrides))
	for i, o := range f.Overrides {
		name := strings.TrimSpace(o.Name)
		if name == "" {
			return fmt.Errorf("overrides[%d]: name is required", i)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("overrides[%d]: duplicate stage %q", i, name)
		}
		seen[name] = struct{}{}
		if len(o.Command) == 0 {
			return fmt.Errorf("overrides[%d]: command is required", i)
		}
	}
	return nil
}

// Apply replaces the commands of named stages. Overriding a stage the
// topology does not declare is an error: the stage set is fixed.
func (f StagesFile) Apply(stages []domain.Stage) ([]domain.Stage, error) {
	byName := make(map[string]int, len(stages))
	for i, s := range stages {
		byName[s.Name] = i
	}
	out := make([]domain.Stage, len(stages))
	copy(out, stages)
	for _, o := range f.Overrides {
		i, ok := byName[strings.TrimSpace(o.Name)]
		if !ok {
			return nil, fmt.Errorf("override targets unknown stage %q", o.Name)
		}
		out[i].Command = o.Command
	}
	return out, nil
}
