package contract

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// CalibrationTrainRows is the training sample size the calibration fit
// must report. A smaller sample means the fit ran on a truncated history
// and its parameters cannot be trusted.
const CalibrationTrainRows = 240

type calibrationMeta struct {
	A     *float64 `json:"a"`
	B     *float64 `json:"b"`
	NRows *int     `json:"n_rows"`
}

// ValidateCalibration checks the calibration fit artifact: both parameters
// non-null and the training sample size exactly wantRows.
func ValidateCalibration(path string, wantRows int) ([]Violation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calibration: %w", err)
	}
	var meta calibrationMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decode calibration: %w", err)
	}

	var violations []Violation
	if meta.A == nil {
		violations = append(violations, Violation{
			Artifact: "calibration",
			Check:    "parameter_a",
			Expected: "non-null",
			Observed: "null",
		})
	}
	if meta.B == nil {
		violations = append(violations, Violation{
			Artifact: "calibration",
			Check:    "parameter_b",
			Expected: "non-null",
			Observed: "null",
		})
	}
	switch {
	case meta.NRows == nil:
		violations = append(violations, Violation{
			Artifact: "calibration",
			Check:    "train_rows",
			Expected: strconv.Itoa(wantRows),
			Observed: "null",
		})
	case *meta.NRows != wantRows:
		violations = append(violations, Violation{
			Artifact: "calibration",
			Check:    "train_rows",
			Expected: strconv.Itoa(wantRows),
			Observed: strconv.Itoa(*meta.NRows),
		})
	}
	return violations, nil
}
