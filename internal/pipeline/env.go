package pipeline

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// FromEnv overlays PDM_* environment knobs onto the defaults.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	durs := map[string]*time.Duration{
		"PDM_BIN_WIDTH":    &cfg.BinWidth,
		"PDM_NATIVE_STEP":  &cfg.NativeStep,
		"PDM_SHORT_WINDOW": &cfg.ShortWindow,
		"PDM_LONG_WINDOW":  &cfg.LongWindow,
	}
	for name, dst := range durs {
		if v := os.Getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return cfg, fmt.Errorf("invalid %s: %w", name, err)
			}
			*dst = d
		}
	}

	if v := os.Getenv("PDM_HORIZON_STEPS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid PDM_HORIZON_STEPS: %w", err)
		}
		cfg.HorizonSteps = n
	}

	sets := map[string]*CategorySet{
		"PDM_ERROR_SET":     &cfg.ErrorSet,
		"PDM_COMPONENT_SET": &cfg.ComponentSet,
		"PDM_MODEL_SET":     &cfg.ModelSet,
	}
	for name, dst := range sets {
		if v := os.Getenv(name); v != "" {
			*dst = CategorySet(strings.Split(v, ","))
		}
	}

	return cfg, cfg.Validate()
}

// WorkersFromEnv returns the worker-pool size for machine partitions.
func WorkersFromEnv() int {
	if v := os.Getenv("PDM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 4
}
