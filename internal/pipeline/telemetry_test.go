package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/ntentasd/pdm-pipeline/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hourly readings, all fields constant
func constantReadings(machineID int, start time.Time, n int, value float64) []types.TelemetryReading {
	out := make([]types.TelemetryReading, n)
	for i := range out {
		out[i] = types.TelemetryReading{
			MachineID: machineID,
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Volt:      value,
			Rotate:    value,
			Pressure:  value,
			Vibration: value,
		}
	}
	return out
}

func TestAggregateConstantSignal(t *testing.T) {
	agg := NewWindowAggregator(DefaultConfig())

	readings := constantReadings(1, ts("2015-01-01 06:00:00"), 72, 170.0)
	features, err := agg.Aggregate(readings)
	require.NoError(t, err)
	require.NotEmpty(t, features)

	for _, f := range features {
		for field := 0; field < 4; field++ {
			assert.Equal(t, 170.0, f.ShortMean[field])
			assert.Equal(t, 170.0, f.LongMean[field])
			assert.Equal(t, 0.0, f.ShortSD[field])
			assert.Equal(t, 0.0, f.LongSD[field])
		}
	}
}

func TestAggregateDropsPartialLongWindow(t *testing.T) {
	agg := NewWindowAggregator(DefaultConfig())

	start := ts("2015-01-01 06:00:00")
	features, err := agg.Aggregate(constantReadings(1, start, 72, 1.0))
	require.NoError(t, err)

	// first complete 24h lookback ends at the 24th hourly sample
	first := start.Add(23 * time.Hour) // 2015-01-02 05:00, off grid
	assert.True(t, features[0].Timestamp.After(first) || features[0].Timestamp.Equal(first))
	assert.Equal(t, ts("2015-01-02 06:00:00"), features[0].Timestamp)

	// every emitted point is on the grid and 3h apart
	for i := 1; i < len(features); i++ {
		assert.Equal(t, 3*time.Hour, features[i].Timestamp.Sub(features[i-1].Timestamp))
	}
}

func TestAggregateShortTimeSeriesYieldsNothing(t *testing.T) {
	agg := NewWindowAggregator(DefaultConfig())

	features, err := agg.Aggregate(constantReadings(1, ts("2015-01-01 06:00:00"), 12, 1.0))
	require.NoError(t, err)
	assert.Empty(t, features)
}

func TestAggregateWindowValues(t *testing.T) {
	agg := NewWindowAggregator(DefaultConfig())

	// ramp 0,1,2,... so windows have known means
	readings := constantReadings(1, ts("2015-01-01 00:00:00"), 48, 0)
	for i := range readings {
		readings[i].Volt = float64(i)
	}

	features, err := agg.Aggregate(readings)
	require.NoError(t, err)
	require.NotEmpty(t, features)

	// first emitted point is sample index 23 (2015-01-01 23:00 is off grid),
	// snapped to the next grid-aligned sample with full lookback
	f := features[0]
	assert.Equal(t, ts("2015-01-02 00:00:00"), f.Timestamp)

	// short window covers samples 22,23,24 of the ramp
	assert.InDelta(t, 23.0, f.ShortMean[0], 1e-9)
	assert.InDelta(t, 1.0, f.ShortSD[0], 1e-9)
	// long window covers samples 1..24
	assert.InDelta(t, 12.5, f.LongMean[0], 1e-9)
}

func TestAggregateRejectsGappySeries(t *testing.T) {
	agg := NewWindowAggregator(DefaultConfig())

	readings := constantReadings(1, ts("2015-01-01 06:00:00"), 30, 1.0)
	readings = append(readings[:10], readings[11:]...)

	_, err := agg.Aggregate(readings)
	require.Error(t, err)
	assert.True(t, errors.Is(err, &ValidationError{}))
}
