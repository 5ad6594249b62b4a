package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/ntentasd/pdm-pipeline/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bare feature rows on the 3h grid over [start, end]
func gridRecords(machineID int, start, end time.Time) []types.FeatureRecord {
	var out []types.FeatureRecord
	for t := start; !t.After(end); t = t.Add(3 * time.Hour) {
		out = append(out, types.FeatureRecord{MachineID: machineID, Timestamp: t})
	}
	return out
}

func labelsByTime(rows []types.LabelledRecord) map[time.Time]string {
	out := make(map[time.Time]string, len(rows))
	for _, r := range rows {
		out[r.Timestamp] = r.Label
	}
	return out
}

func TestLabelSingleFailureHorizon(t *testing.T) {
	builder := NewLabelBuilder(DefaultConfig())

	records := gridRecords(1, ts("2015-01-02 06:00:00"), ts("2015-01-07 06:00:00"))
	failures := []types.FailureEvent{
		{MachineID: 1, Timestamp: ts("2015-01-05 06:00:00"), Component: "comp4"},
	}

	rows, err := builder.Label(records, failures)
	require.NoError(t, err)

	at := labelsByTime(rows)

	// exactly the 8 grid points 2015-01-04 09:00 .. 2015-01-05 06:00
	for tm := ts("2015-01-04 09:00:00"); !tm.After(ts("2015-01-05 06:00:00")); tm = tm.Add(3 * time.Hour) {
		assert.Equal(t, "comp4", at[tm], "at %s", tm)
	}
	assert.Equal(t, types.LabelNone, at[ts("2015-01-04 06:00:00")])
	assert.Equal(t, types.LabelNone, at[ts("2015-01-05 09:00:00")])
}

func TestLabelNearestFailureWins(t *testing.T) {
	builder := NewLabelBuilder(DefaultConfig())

	records := gridRecords(1, ts("2015-01-02 06:00:00"), ts("2015-01-07 06:00:00"))
	failures := []types.FailureEvent{
		{MachineID: 1, Timestamp: ts("2015-01-04 06:00:00"), Component: "comp1"},
		{MachineID: 1, Timestamp: ts("2015-01-04 18:00:00"), Component: "comp3"},
	}

	rows, err := builder.Label(records, failures)
	require.NoError(t, err)

	at := labelsByTime(rows)

	// both horizons cover 2015-01-04 09:00; the chronologically next failure
	// (comp3 at 18:00) must win there, never the farther one
	assert.Equal(t, "comp1", at[ts("2015-01-04 06:00:00")])
	assert.Equal(t, "comp3", at[ts("2015-01-04 09:00:00")])
	assert.Equal(t, "comp3", at[ts("2015-01-04 18:00:00")])
	assert.Equal(t, types.LabelNone, at[ts("2015-01-04 21:00:00")])
}

func TestLabelDuplicateFailureIsFatal(t *testing.T) {
	builder := NewLabelBuilder(DefaultConfig())

	records := gridRecords(1, ts("2015-01-02 06:00:00"), ts("2015-01-07 06:00:00"))
	failures := []types.FailureEvent{
		{MachineID: 1, Timestamp: ts("2015-01-05 06:00:00"), Component: "comp1"},
		{MachineID: 1, Timestamp: ts("2015-01-05 06:00:00"), Component: "comp2"},
	}

	_, err := builder.Label(records, failures)
	require.Error(t, err)
	assert.True(t, errors.Is(err, &DuplicateFailureError{}))
}

func TestLabelIdenticalDuplicateIsDeduped(t *testing.T) {
	builder := NewLabelBuilder(DefaultConfig())

	records := gridRecords(1, ts("2015-01-02 06:00:00"), ts("2015-01-07 06:00:00"))
	failures := []types.FailureEvent{
		{MachineID: 1, Timestamp: ts("2015-01-05 06:00:00"), Component: "comp4"},
		{MachineID: 1, Timestamp: ts("2015-01-05 06:00:00"), Component: "comp4"},
	}

	rows, err := builder.Label(records, failures)
	require.NoError(t, err)
	assert.Equal(t, "comp4", labelsByTime(rows)[ts("2015-01-05 06:00:00")])
}

func TestLabelOffGridFailureIsFatal(t *testing.T) {
	builder := NewLabelBuilder(DefaultConfig())

	records := gridRecords(1, ts("2015-01-02 06:00:00"), ts("2015-01-07 06:00:00"))
	failures := []types.FailureEvent{
		{MachineID: 1, Timestamp: ts("2015-01-05 07:00:00"), Component: "comp4"},
	}

	_, err := builder.Label(records, failures)
	require.Error(t, err)
	assert.True(t, errors.Is(err, &ValidationError{}))
}
