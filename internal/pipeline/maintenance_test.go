package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/ntentasd/pdm-pipeline/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allComponentsAt(machineID int, at time.Time) []types.MaintenanceEvent {
	return []types.MaintenanceEvent{
		{MachineID: machineID, Timestamp: at, Component: "comp1"},
		{MachineID: machineID, Timestamp: at, Component: "comp2"},
		{MachineID: machineID, Timestamp: at, Component: "comp3"},
		{MachineID: machineID, Timestamp: at, Component: "comp4"},
	}
}

func TestTrackRecencyGrowsAndResets(t *testing.T) {
	tracker := NewRecencyTracker(DefaultConfig())

	events := allComponentsAt(1, ts("2014-12-01 06:00:00"))
	events = append(events, types.MaintenanceEvent{
		MachineID: 1, Timestamp: ts("2015-01-02 06:00:00"), Component: "comp2",
	})

	rows, err := tracker.Track(1, events, ts("2015-01-01 06:00:00"), ts("2015-01-03 06:00:00"))
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	at := make(map[time.Time][]float64, len(rows))
	for _, row := range rows {
		at[row.Timestamp] = row.Days
	}

	// resets to zero exactly at the replacement instant
	assert.Equal(t, 0.0, at[ts("2015-01-02 06:00:00")][1])
	// strictly increasing between events
	assert.Equal(t, 0.125, at[ts("2015-01-02 09:00:00")][1])
	assert.Equal(t, 0.25, at[ts("2015-01-02 12:00:00")][1])
	// untouched components keep aging
	assert.InDelta(t, 32.0, at[ts("2015-01-02 06:00:00")][0], 1e-9)

	for i := 1; i < len(rows); i++ {
		if rows[i].Days[0] <= rows[i-1].Days[0] {
			t.Fatalf("comp1 recency not strictly increasing at %s", rows[i].Timestamp)
		}
	}
}

func TestTrackUndefinedBeforeFirstEvent(t *testing.T) {
	tracker := NewRecencyTracker(DefaultConfig())

	// comp4 first replaced mid-range: rows before that are excluded, not zero
	events := []types.MaintenanceEvent{
		{MachineID: 1, Timestamp: ts("2014-12-01 06:00:00"), Component: "comp1"},
		{MachineID: 1, Timestamp: ts("2014-12-01 06:00:00"), Component: "comp2"},
		{MachineID: 1, Timestamp: ts("2014-12-01 06:00:00"), Component: "comp3"},
		{MachineID: 1, Timestamp: ts("2015-01-02 06:00:00"), Component: "comp4"},
	}

	rows, err := tracker.Track(1, events, ts("2015-01-01 06:00:00"), ts("2015-01-03 06:00:00"))
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	assert.Equal(t, ts("2015-01-02 06:00:00"), rows[0].Timestamp)
	assert.Equal(t, 0.0, rows[0].Days[3])
}

func TestTrackNoEventsYieldsNothing(t *testing.T) {
	tracker := NewRecencyTracker(DefaultConfig())

	rows, err := tracker.Track(1, nil, ts("2015-01-01 06:00:00"), ts("2015-01-03 06:00:00"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestTrackUnknownComponentIsFatal(t *testing.T) {
	tracker := NewRecencyTracker(DefaultConfig())

	events := []types.MaintenanceEvent{
		{MachineID: 1, Timestamp: ts("2014-12-01 06:00:00"), Component: "comp7"},
	}
	_, err := tracker.Track(1, events, ts("2015-01-01 06:00:00"), ts("2015-01-03 06:00:00"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownCategory))
}
