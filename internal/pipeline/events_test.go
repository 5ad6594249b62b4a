package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/ntentasd/pdm-pipeline/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountSingleEvent(t *testing.T) {
	cfg := DefaultConfig()
	counter := NewEventCounter(cfg)

	eventTime := ts("2015-01-02 04:00:00")
	events := []types.ErrorEvent{{MachineID: 1, Timestamp: eventTime, Category: "error2"}}

	rows, err := counter.Count(1, events, ts("2015-01-01 06:00:00"), ts("2015-01-04 06:00:00"))
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	for _, row := range rows {
		covered := !row.Timestamp.Before(eventTime) && row.Timestamp.Sub(eventTime) < cfg.LongWindow
		want := 0.0
		if covered {
			want = 1.0
		}
		assert.Equal(t, want, row.Counts[1], "at %s", row.Timestamp)

		// other categories stay zero-filled
		for k, c := range row.Counts {
			if k != 1 {
				assert.Equal(t, 0.0, c)
			}
		}
	}
}

func TestCountWindowBoundaries(t *testing.T) {
	counter := NewEventCounter(DefaultConfig())

	eventTime := ts("2015-01-02 06:00:00")
	events := []types.ErrorEvent{{MachineID: 1, Timestamp: eventTime, Category: "error1"}}

	rows, err := counter.Count(1, events, ts("2015-01-01 06:00:00"), ts("2015-01-04 06:00:00"))
	require.NoError(t, err)

	at := make(map[time.Time][]float64, len(rows))
	for _, row := range rows {
		at[row.Timestamp] = row.Counts
	}

	// window is (t-24h, t]: counted exactly at the event instant, gone once
	// the left edge reaches it
	assert.Equal(t, 0.0, at[ts("2015-01-02 03:00:00")][0])
	assert.Equal(t, 1.0, at[ts("2015-01-02 06:00:00")][0])
	assert.Equal(t, 1.0, at[ts("2015-01-03 03:00:00")][0])
	assert.Equal(t, 0.0, at[ts("2015-01-03 06:00:00")][0])
}

func TestCountSimultaneousEventsAddUp(t *testing.T) {
	counter := NewEventCounter(DefaultConfig())

	at := ts("2015-01-02 04:00:00")
	events := []types.ErrorEvent{
		{MachineID: 1, Timestamp: at, Category: "error1"},
		{MachineID: 1, Timestamp: at, Category: "error1"},
		{MachineID: 1, Timestamp: at, Category: "error3"},
	}

	rows, err := counter.Count(1, events, ts("2015-01-02 00:00:00"), ts("2015-01-02 12:00:00"))
	require.NoError(t, err)

	var row ErrorCounts
	for _, r := range rows {
		if r.Timestamp.Equal(ts("2015-01-02 06:00:00")) {
			row = r
		}
	}
	require.NotNil(t, row.Counts)

	// duplicates add up, they do not clamp to 1
	assert.Equal(t, 2.0, row.Counts[0])
	assert.Equal(t, 1.0, row.Counts[2])
}

func TestCountUnknownCategoryIsFatal(t *testing.T) {
	counter := NewEventCounter(DefaultConfig())

	events := []types.ErrorEvent{{MachineID: 1, Timestamp: ts("2015-01-02 04:00:00"), Category: "error9"}}
	_, err := counter.Count(1, events, ts("2015-01-01 06:00:00"), ts("2015-01-04 06:00:00"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownCategory))
}

func TestCountOutOfOrderEventsAreFatal(t *testing.T) {
	counter := NewEventCounter(DefaultConfig())

	events := []types.ErrorEvent{
		{MachineID: 1, Timestamp: ts("2015-01-02 08:00:00"), Category: "error1"},
		{MachineID: 1, Timestamp: ts("2015-01-02 04:00:00"), Category: "error2"},
	}
	_, err := counter.Count(1, events, ts("2015-01-01 06:00:00"), ts("2015-01-04 06:00:00"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, &ValidationError{}))
}
