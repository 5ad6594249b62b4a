package store

import (
	"context"
	"time"

	"github.com/ntentasd/pdm-pipeline/internal/metrics"
	"github.com/ntentasd/pdm-pipeline/pkg/types"
)

// The sparse event tables are partitioned by machine_id alone: per machine
// they stay in the low thousands of rows, so no day bucketing.

func (db *DB) GetErrors(ctx context.Context, machineID int, from, to time.Time) ([]types.ErrorEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	iter := db.Data.Query(`
SELECT timestamp, category
FROM errors
WHERE machine_id = ? AND timestamp >= ? AND timestamp <= ?
ORDER BY timestamp ASC
`, machineID, from, to).WithContext(ctx).Iter()

	var results []types.ErrorEvent
	var ts time.Time
	var category string

	for iter.Scan(&ts, &category) {
		results = append(results, types.ErrorEvent{
			MachineID: machineID,
			Timestamp: ts,
			Category:  category,
		})
	}

	if err := iter.Close(); err != nil {
		return nil, err
	}
	metrics.DbReadLatencySeconds.WithLabelValues("errors").Observe(time.Since(start).Seconds())

	return results, nil
}

// GetMaintenance returns the full replacement history up to a timestamp: the
// recency fold needs events from before the telemetry range to seed its
// last-seen state.
func (db *DB) GetMaintenance(ctx context.Context, machineID int, to time.Time) ([]types.MaintenanceEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	iter := db.Data.Query(`
SELECT timestamp, component
FROM maintenance
WHERE machine_id = ? AND timestamp <= ?
ORDER BY timestamp ASC
`, machineID, to).WithContext(ctx).Iter()

	var results []types.MaintenanceEvent
	var ts time.Time
	var component string

	for iter.Scan(&ts, &component) {
		results = append(results, types.MaintenanceEvent{
			MachineID: machineID,
			Timestamp: ts,
			Component: component,
		})
	}

	if err := iter.Close(); err != nil {
		return nil, err
	}
	metrics.DbReadLatencySeconds.WithLabelValues("maintenance").Observe(time.Since(start).Seconds())

	return results, nil
}

func (db *DB) GetFailures(ctx context.Context, machineID int, from, to time.Time) ([]types.FailureEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	iter := db.Data.Query(`
SELECT timestamp, component
FROM failures
WHERE machine_id = ? AND timestamp >= ? AND timestamp <= ?
ORDER BY timestamp ASC
`, machineID, from, to).WithContext(ctx).Iter()

	var results []types.FailureEvent
	var ts time.Time
	var component string

	for iter.Scan(&ts, &component) {
		results = append(results, types.FailureEvent{
			MachineID: machineID,
			Timestamp: ts,
			Component: component,
		})
	}

	if err := iter.Close(); err != nil {
		return nil, err
	}
	metrics.DbReadLatencySeconds.WithLabelValues("failures").Observe(time.Since(start).Seconds())

	return results, nil
}

func (db *DB) InsertErrorEvent(ctx context.Context, e types.ErrorEvent) error {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	return db.Data.Query(`
INSERT INTO errors (machine_id, timestamp, category)
VALUES (?, ?, ?)
`, e.MachineID, e.Timestamp, e.Category).WithContext(ctx).Exec()
}

func (db *DB) InsertMaintenanceEvent(ctx context.Context, e types.MaintenanceEvent) error {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	return db.Data.Query(`
INSERT INTO maintenance (machine_id, timestamp, component)
VALUES (?, ?, ?)
`, e.MachineID, e.Timestamp, e.Component).WithContext(ctx).Exec()
}

func (db *DB) InsertFailureEvent(ctx context.Context, e types.FailureEvent) error {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	return db.Data.Query(`
INSERT INTO failures (machine_id, timestamp, component)
VALUES (?, ?, ?)
`, e.MachineID, e.Timestamp, e.Component).WithContext(ctx).Exec()
}
