package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ManifestSchemaV1 versions the run manifest document.
const ManifestSchemaV1 = "weekboard.run_manifest.v1"

// Manifest records how an installed week partition was produced: the
// window, the exact source revision, the summary content digest, and the
// per-artifact row counts. It is written once and never mutated.
type Manifest struct {
	Schema    string         `json:"schema"`
	RunID     string         `json:"run_id"`
	Week      int            `json:"week"`
	Start     string         `json:"start"`
	End       string         `json:"end"`
	Season    string         `json:"season"`
	WeekTag   string         `json:"week_tag"`
	Revision  string         `json:"revision"`
	Digest    string         `json:"digest"`
	RowCounts map[string]int `json:"row_counts"`
	CreatedAt time.Time      `json:"created_at"`
}

func (m Manifest) Validate() error {
	if m.Schema != ManifestSchemaV1 {
		return fmt.Errorf("manifest schema must be %q", ManifestSchemaV1)
	}
	if strings.TrimSpace(m.RunID) == "" {
		return errors.New("manifest run_id is required")
	}
	if m.Week <= 0 {
		return errors.New("manifest week must be positive")
	}
	if strings.TrimSpace(m.WeekTag) == "" {
		return errors.New("manifest week_tag is required")
	}
	if strings.TrimSpace(m.Revision) == "" {
		return errors.New("manifest revision is required")
	}
	if strings.TrimSpace(m.Digest) == "" {
		return errors.New("manifest digest is required")
	}
	if m.CreatedAt.IsZero() {
		return errors.New("manifest created_at is required")
	}
	return nil
}
