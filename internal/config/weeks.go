// Package config resolves week windows from the weeks configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lineforge/weekboard/internal/domain"
)

// WeeksSchemaV1 versions the weeks configuration file.
const WeeksSchemaV1 = "weekboard.weeks.v1"

type WeeksFile struct {
	Schema string      `yaml:"schema"`
	Weeks  []WeekEntry `yaml:"weeks"`
}

type WeekEntry struct {
	Week           int    `yaml:"week"`
	Start          string `yaml:"start"`
	End            string `yaml:"end"`
	Season         string `yaml:"season"`
	WeekTag        string `yaml:"week_tag"`
	ExpectedFinals int    `yaml:"expected_finals"`
}

// ParseWeeks decodes and validates a weeks configuration document.
func ParseWeeks(input []byte) (WeeksFile, error) {
	var file WeeksFile
	if err := yaml.Unmarshal(input, &file); err != nil {
		return WeeksFile{}, fmt.Errorf("decode weeks config: %w", err)
	}
	if err := file.Validate(); err != nil {
		return WeeksFile{}, err
	}
	return file, nil
}

// LoadWeeks reads the weeks configuration from path.
func LoadWeeks(path string) (WeeksFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return WeeksFile{}, fmt.Errorf("read weeks config: %w", err)
	}
	return ParseWeeks(raw)
}

func (f WeeksFile) Validate() error {
	if strings.TrimSpace(f.Schema) != WeeksSchemaV1 {
		return fmt.Errorf("weeks config schema must be %q", WeeksSchemaV1)
	}
	if len(f.Weeks) == 0 {
		return errors.New("weeks config must declare at least one week")
	}
	seenWeek := make(map[int]struct{}, len(f.Weeks))
	seenTag := make(map[string]struct{}, len(f.Weeks))
	for i, entry := range f.Weeks {
		window := entry.Window()
		if err := window.Validate(); err != nil {
			return fmt.Errorf("weeks[%d]: %w", i, err)
		}
		if _, ok := seenWeek[entry.Week]; ok {
			return fmt.Errorf("weeks[%d]: duplicate week number %d", i, entry.Week)
		}
		seenWeek[entry.Week] = struct{}{}
		tag := strings.TrimSpace(entry.WeekTag)
		if _, ok := seenTag[tag]; ok {
			return fmt.Errorf("weeks[%d]: duplicate week_tag %q", i, tag)
		}
		seenTag[tag] = struct{}{}
	}
	return nil
}

// Window resolves the week window for the given week number.
func (f WeeksFile) Window(week int) (domain.WeekWindow, error) {
	for _, entry := range f.Weeks {
		if entry.Week == week {
			return entry.Window(), nil
		}
	}
	return domain.WeekWindow{}, fmt.Errorf("week %d is not configured", week)
}

func (e WeekEntry) Window() domain.WeekWindow {
	return domain.WeekWindow{
		Week:           e.Week,
		Start:          strings.TrimSpace(e.Start),
		End:            strings.TrimSpace(e.End),
		Season:         strings.TrimSpace(e.Season),
		WeekTag:        strings.TrimSpace(e.WeekTag),
		ExpectedFinals: e.ExpectedFinals,
	}
}
