package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ntentasd/pdm-pipeline/internal/metrics"
	"github.com/ntentasd/pdm-pipeline/pkg/types"
)

// SaveLabelled persists one run's labelled table. The full row is stored as
// a JSON payload next to the queryable key columns; the column-naming
// contract lives in the CSV rendering, not here.
func (db *DB) SaveLabelled(ctx context.Context, runID uuid.UUID, records []types.LabelledRecord) error {
	start := time.Now()

	for _, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}

		qctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		err = db.Data.Query(`
INSERT INTO features (run_id, machine_id, bucket_date, timestamp, label, payload)
VALUES (?, ?, ?, ?, ?, ?)
`, gocqlUUID(runID), rec.MachineID, dayBucket(rec.Timestamp), rec.Timestamp,
			rec.Label, payload).WithContext(qctx).Exec()
		cancel()
		if err != nil {
			return fmt.Errorf("failed to insert feature row: %w", err)
		}
	}

	metrics.DbWriteLatencySeconds.WithLabelValues("features").Observe(time.Since(start).Seconds())
	return nil
}

// GetLatestLabelled returns the n most recent labelled rows of one machine
// from the latest persisted run.
func (db *DB) GetLatestLabelled(ctx context.Context, runID uuid.UUID, machineID int, n int) ([]types.LabelledRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	iter := db.Data.Query(`
SELECT payload
FROM features
WHERE run_id = ? AND machine_id = ?
ORDER BY timestamp DESC
LIMIT ?
`, gocqlUUID(runID), machineID, n).WithContext(ctx).Iter()

	var results []types.LabelledRecord
	var payload []byte

	for iter.Scan(&payload) {
		var rec types.LabelledRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("failed to parse feature row: %w", err)
		}
		results = append(results, rec)
	}

	if err := iter.Close(); err != nil {
		return nil, err
	}
	metrics.DbReadLatencySeconds.WithLabelValues("features").Observe(time.Since(start).Seconds())

	return results, nil
}
