package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ntentasd/pdm-pipeline/internal/pipeline"
)

// LoadInputs materializes all raw datasets for one batch window. Maintenance
// history is loaded from the beginning of the table, not from `from`: the
// recency fold needs replacements that predate the telemetry range.
func (db *DB) LoadInputs(ctx context.Context, from, to time.Time) (pipeline.Inputs, error) {
	var in pipeline.Inputs

	machines, err := db.GetMachines(ctx)
	if err != nil {
		return in, fmt.Errorf("load machines: %w", err)
	}
	in.Machines = machines

	for _, m := range machines {
		telemetry, err := db.GetTelemetry(ctx, m.MachineID, from, to)
		if err != nil {
			return in, fmt.Errorf("load telemetry for machine %d: %w", m.MachineID, err)
		}
		in.Telemetry = append(in.Telemetry, telemetry...)

		errs, err := db.GetErrors(ctx, m.MachineID, from, to)
		if err != nil {
			return in, fmt.Errorf("load errors for machine %d: %w", m.MachineID, err)
		}
		in.Errors = append(in.Errors, errs...)

		maint, err := db.GetMaintenance(ctx, m.MachineID, to)
		if err != nil {
			return in, fmt.Errorf("load maintenance for machine %d: %w", m.MachineID, err)
		}
		in.Maintenance = append(in.Maintenance, maint...)

		failures, err := db.GetFailures(ctx, m.MachineID, from, to)
		if err != nil {
			return in, fmt.Errorf("load failures for machine %d: %w", m.MachineID, err)
		}
		in.Failures = append(in.Failures, failures...)
	}

	return in, nil
}
