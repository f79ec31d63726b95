// Package domain holds the core types of the weekly board pipeline: week
// windows, stages, and run manifests. Types validate themselves; callers
// fail closed on the first invalid value.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "20060102"

// WeekWindow identifies one build of the board: the week number, its
// date range, the season label, and the partition tag. ExpectedFinals is
// the number of completed games the finals artifact must carry.
type WeekWindow struct {
	Week           int
	Start          string // YYYYMMDD
	End            string // YYYYMMDD
	Season         string
	WeekTag        string
	ExpectedFinals int
}

func (w WeekWindow) Validate() error {
	if w.Week <= 0 {
		return errors.New("week window week must be positive")
	}
	if strings.TrimSpace(w.Start) == "" {
		return errors.New("week window start is required")
	}
	if strings.TrimSpace(w.End) == "" {
		return errors.New("week window end is required")
	}
	if strings.TrimSpace(w.Season) == "" {
		return errors.New("week window season is required")
	}
	if strings.TrimSpace(w.WeekTag) == "" {
		return errors.New("week window week_tag is required")
	}
	if w.ExpectedFinals <= 0 {
		return errors.New("week window expected_finals must be positive")
	}
	start, err := time.Parse(dateLayout, w.Start)
	if err != nil {
		return fmt.Errorf("week window start must be YYYYMMDD: %q", w.Start)
	}
	end, err := time.Parse(dateLayout, w.End)
	if err != nil {
		return fmt.Errorf("week window end must be YYYYMMDD: %q", w.End)
	}
	if end.Before(start) {
		return fmt.Errorf("week window end %s precedes start %s", w.End, w.Start)
	}
	return nil
}
