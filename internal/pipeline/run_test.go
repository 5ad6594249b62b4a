package pipeline

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ntentasd/pdm-pipeline/pkg/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syntheticInputs() Inputs {
	machines := []types.Machine{
		{MachineID: 1, Model: "model3", Age: 18},
		{MachineID: 2, Model: "model4", Age: 7},
	}

	var telemetry []types.TelemetryReading
	start := ts("2015-01-01 06:00:00")
	for _, m := range machines {
		for i := 0; i < 240; i++ {
			at := start.Add(time.Duration(i) * time.Hour)
			telemetry = append(telemetry, types.TelemetryReading{
				MachineID: m.MachineID,
				Timestamp: at,
				Volt:      170 + 5*math.Sin(float64(i)),
				Rotate:    440 + float64(m.MachineID),
				Pressure:  100,
				Vibration: 40 + float64(i%7),
			})
		}
	}

	var maintenance []types.MaintenanceEvent
	for _, m := range machines {
		maintenance = append(maintenance, allComponentsAt(m.MachineID, ts("2014-12-01 06:00:00"))...)
	}
	maintenance = append(maintenance, types.MaintenanceEvent{
		MachineID: 1, Timestamp: ts("2015-01-05 06:00:00"), Component: "comp4",
	})

	errs := []types.ErrorEvent{
		{MachineID: 1, Timestamp: ts("2015-01-03 04:00:00"), Category: "error1"},
		{MachineID: 1, Timestamp: ts("2015-01-04 22:00:00"), Category: "error3"},
		{MachineID: 2, Timestamp: ts("2015-01-06 11:00:00"), Category: "error5"},
	}

	failures := []types.FailureEvent{
		{MachineID: 1, Timestamp: ts("2015-01-05 06:00:00"), Component: "comp4"},
	}

	return Inputs{
		Machines:    machines,
		Telemetry:   telemetry,
		Errors:      errs,
		Maintenance: maintenance,
		Failures:    failures,
	}
}

func TestRunEndToEnd(t *testing.T) {
	runner, err := NewRunner(DefaultConfig(), zerolog.Nop(), 4)
	require.NoError(t, err)

	rows, err := runner.Run(context.Background(), syntheticInputs())
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	// merged table sorted by (machine, timestamp)
	for i := 1; i < len(rows); i++ {
		a, b := rows[i-1], rows[i]
		ordered := a.MachineID < b.MachineID ||
			(a.MachineID == b.MachineID && a.Timestamp.Before(b.Timestamp))
		require.True(t, ordered, "rows out of order at %d", i)
	}

	byKey := func(id int, at time.Time) *types.LabelledRecord {
		for i := range rows {
			if rows[i].MachineID == id && rows[i].Timestamp.Equal(at) {
				return &rows[i]
			}
		}
		return nil
	}

	// the failure horizon shows up in the merged table
	r := byKey(1, ts("2015-01-04 09:00:00"))
	require.NotNil(t, r)
	assert.Equal(t, "comp4", r.Label)

	r = byKey(1, ts("2015-01-04 06:00:00"))
	require.NotNil(t, r)
	assert.Equal(t, types.LabelNone, r.Label)

	// machine 2 never fails
	for _, row := range rows {
		if row.MachineID == 2 {
			assert.Equal(t, types.LabelNone, row.Label)
		}
	}
}

func TestRunIsDeterministic(t *testing.T) {
	cfg := DefaultConfig()

	render := func(workers int) []byte {
		runner, err := NewRunner(cfg, zerolog.Nop(), workers)
		require.NoError(t, err)
		rows, err := runner.Run(context.Background(), syntheticInputs())
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, WriteCSV(&buf, cfg, rows))
		return buf.Bytes()
	}

	first := render(4)
	assert.Equal(t, first, render(4), "re-run not byte-identical")
	assert.Equal(t, first, render(1), "parallel and serial runs differ")
}

func TestRunUnknownMachineIsFatal(t *testing.T) {
	runner, err := NewRunner(DefaultConfig(), zerolog.Nop(), 2)
	require.NoError(t, err)

	in := syntheticInputs()
	in.Errors = append(in.Errors, types.ErrorEvent{
		MachineID: 99, Timestamp: ts("2015-01-03 04:00:00"), Category: "error1",
	})

	_, err = runner.Run(context.Background(), in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, &ValidationError{}))
}

func TestRunPropagatesPartitionFailure(t *testing.T) {
	runner, err := NewRunner(DefaultConfig(), zerolog.Nop(), 2)
	require.NoError(t, err)

	in := syntheticInputs()
	in.Failures = append(in.Failures, types.FailureEvent{
		MachineID: 1, Timestamp: ts("2015-01-05 06:00:00"), Component: "comp1",
	})

	_, err = runner.Run(context.Background(), in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, &DuplicateFailureError{}))
}
