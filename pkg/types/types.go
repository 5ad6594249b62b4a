// Package types
package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LabelNone is the label of a record outside every failure horizon.
const LabelNone = "none"

// TelemetryFieldNames are the continuous measurement columns, in wire order.
var TelemetryFieldNames = [4]string{"volt", "rotate", "pressure", "vibration"}

type Machine struct {
	MachineID int    `json:"machine_id"`
	Model     string `json:"model"`
	Age       int    `json:"age"`
}

type TelemetryReading struct {
	MachineID int       `json:"machine_id"`
	Timestamp time.Time `json:"timestamp"`
	Volt      float64   `json:"volt"`
	Rotate    float64   `json:"rotate"`
	Pressure  float64   `json:"pressure"`
	Vibration float64   `json:"vibration"`
}

// Fields returns the measurements in TelemetryFieldNames order.
func (r TelemetryReading) Fields() [4]float64 {
	return [4]float64{r.Volt, r.Rotate, r.Pressure, r.Vibration}
}

type ErrorEvent struct {
	MachineID int       `json:"machine_id"`
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category"`
}

type MaintenanceEvent struct {
	MachineID int       `json:"machine_id"`
	Timestamp time.Time `json:"timestamp"`
	Component string    `json:"component"`
}

// FailureEvent marks a failure-triggered replacement. Every failure also
// appears in the maintenance stream, but not the other way around.
type FailureEvent struct {
	MachineID int       `json:"machine_id"`
	Timestamp time.Time `json:"timestamp"`
	Component string    `json:"component"`
}

// FeatureRecord is one fused row on the grid. Slice layouts follow the
// configured closed category sets and are immutable once built.
type FeatureRecord struct {
	MachineID int       `json:"machine_id"`
	Timestamp time.Time `json:"timestamp"`

	ShortMean [4]float64 `json:"short_mean"`
	ShortSD   [4]float64 `json:"short_sd"`
	LongMean  [4]float64 `json:"long_mean"`
	LongSD    [4]float64 `json:"long_sd"`

	// ErrorCounts is the rolling event count per error category.
	ErrorCounts []float64 `json:"error_counts"`

	// Recency is days since the last replacement, per component.
	Recency []float64 `json:"recency"`

	Model       string    `json:"model"`
	ModelOneHot []float64 `json:"model_one_hot"`
	Age         int       `json:"age"`
}

type LabelledRecord struct {
	FeatureRecord
	Label string `json:"label"`
}

type StateType string

const (
	StateTypeRunning    StateType = "Running"
	StateTypeStopped    StateType = "Stopped"
	StateTypeScheduling StateType = "Scheduling"
	StateTypeFailed     StateType = "Failed"
)

// TrainingJob is the external trainer's view of one submitted job.
type TrainingJob struct {
	ID        string    `json:"id"`
	State     StateType `json:"state"`
	StartedAt int64     `json:"started_at"`
}

type RunState string

const (
	RunStateRunning RunState = "running"
	RunStateDone    RunState = "done"
	RunStateFailed  RunState = "failed"
)

var ErrInvalidRunState = fmt.Errorf("invalid run state")

func ToRunState(state string) (RunState, error) {
	switch state {
	case "running":
		return RunStateRunning, nil
	case "done":
		return RunStateDone, nil
	case "failed":
		return RunStateFailed, nil
	default:
		return "", ErrInvalidRunState
	}
}

// RunSummary is the cached status of one pipeline run.
type RunSummary struct {
	RunID      uuid.UUID `json:"run_id"`
	State      RunState  `json:"state"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
	Machines   int       `json:"machines"`
	Rows       int       `json:"rows"`
	TrainRows  int       `json:"train_rows"`
	TestRows   int       `json:"test_rows"`
	Cutoff     time.Time `json:"cutoff"`
	Error      string    `json:"error,omitempty"`
}
