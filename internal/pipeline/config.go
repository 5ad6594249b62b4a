// Package pipeline builds the aligned feature-and-label table that the
// external trainer consumes: rolling telemetry aggregates, rolling error
// counts, replacement recencies, fused per-grid-point rows, backward
// failure labels and the leakage-safe temporal split.
package pipeline

import (
	"errors"
	"fmt"
	"time"
)

// CategorySet is a closed, ordered category set. The order fixes the layout
// of every derived vector, so it must be identical across all partitions.
type CategorySet []string

// Index returns the position of cat in the set.
func (s CategorySet) Index(cat string) (int, bool) {
	for i, c := range s {
		if c == cat {
			return i, true
		}
	}
	return -1, false
}

func (s CategorySet) Contains(cat string) bool {
	_, ok := s.Index(cat)
	return ok
}

type Config struct {
	// BinWidth is the grid bin width B.
	BinWidth time.Duration

	// NativeStep is the sampling interval of the raw telemetry.
	NativeStep time.Duration

	// ShortWindow and LongWindow are the trailing aggregate windows.
	ShortWindow time.Duration
	LongWindow  time.Duration

	// HorizonSteps is the label horizon H, in grid steps.
	HorizonSteps int

	ErrorSet     CategorySet
	ComponentSet CategorySet
	ModelSet     CategorySet
}

func DefaultConfig() Config {
	return Config{
		BinWidth:     3 * time.Hour,
		NativeStep:   time.Hour,
		ShortWindow:  3 * time.Hour,
		LongWindow:   24 * time.Hour,
		HorizonSteps: 8,
		ErrorSet:     CategorySet{"error1", "error2", "error3", "error4", "error5"},
		ComponentSet: CategorySet{"comp1", "comp2", "comp3", "comp4"},
		ModelSet:     CategorySet{"model1", "model2", "model3", "model4"},
	}
}

// Horizon is the label horizon as a duration (H steps of B).
func (c Config) Horizon() time.Duration {
	return time.Duration(c.HorizonSteps) * c.BinWidth
}

var ErrInvalidConfig = errors.New("invalid pipeline config")

func (c Config) Validate() error {
	if c.BinWidth <= 0 || c.NativeStep <= 0 {
		return fmt.Errorf("%w: bin width and native step must be positive", ErrInvalidConfig)
	}
	if c.BinWidth%c.NativeStep != 0 {
		return fmt.Errorf("%w: bin width %s is not a multiple of native step %s",
			ErrInvalidConfig, c.BinWidth, c.NativeStep)
	}
	if c.ShortWindow < c.NativeStep || c.LongWindow < c.ShortWindow {
		return fmt.Errorf("%w: windows must satisfy native step <= short <= long", ErrInvalidConfig)
	}
	if c.ShortWindow%c.NativeStep != 0 || c.LongWindow%c.NativeStep != 0 {
		return fmt.Errorf("%w: windows must be multiples of the native step", ErrInvalidConfig)
	}
	if c.HorizonSteps <= 0 {
		return fmt.Errorf("%w: horizon must be at least one grid step", ErrInvalidConfig)
	}
	if len(c.ErrorSet) == 0 || len(c.ComponentSet) == 0 || len(c.ModelSet) == 0 {
		return fmt.Errorf("%w: category sets must be non-empty", ErrInvalidConfig)
	}
	return nil
}
