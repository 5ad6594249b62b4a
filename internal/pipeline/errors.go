package pipeline

import (
	"errors"
	"fmt"
	"time"
)

var ErrUnknownCategory = errors.New("category outside the configured closed set")

// UnknownCategoryError aborts the run: tolerating a category outside the
// closed set would silently corrupt every one-hot layout downstream.
type UnknownCategoryError struct {
	Kind      string // "error", "component" or "model"
	Category  string
	MachineID int
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown %s category '%s' for machine %d", e.Kind, e.Category, e.MachineID)
}

func (e *UnknownCategoryError) Is(target error) bool {
	if target == ErrUnknownCategory {
		return true
	}
	_, ok := target.(*UnknownCategoryError)
	return ok
}

// DuplicateFailureError reports two failures of differing categories at the
// same (machine, grid-timestamp). Only one category can occupy the label
// column, so this is a configuration error, never resolved silently.
type DuplicateFailureError struct {
	MachineID  int
	Timestamp  time.Time
	Categories [2]string
}

func (e *DuplicateFailureError) Error() string {
	return fmt.Sprintf("duplicate failure for machine %d at %s: %s vs %s",
		e.MachineID, e.Timestamp.Format(time.DateTime), e.Categories[0], e.Categories[1])
}

func (e *DuplicateFailureError) Is(target error) bool {
	_, ok := target.(*DuplicateFailureError)
	return ok
}

// LeakageError reports a train/test overlap within the horizon buffer.
type LeakageError struct {
	Cutoff time.Time
	Reason string
}

func (e *LeakageError) Error() string {
	return fmt.Sprintf("train/test leakage at cutoff %s: %s",
		e.Cutoff.Format(time.DateTime), e.Reason)
}

func (e *LeakageError) Is(target error) bool {
	_, ok := target.(*LeakageError)
	return ok
}

// ValidationError is any per-row anomaly that must abort the batch instead
// of being imputed.
type ValidationError struct {
	Stage     string
	MachineID int
	Timestamp time.Time
	Reason    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: machine %d at %s: %s",
		e.Stage, e.MachineID, e.Timestamp.Format(time.DateTime), e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}
