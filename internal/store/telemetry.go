package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ntentasd/pdm-pipeline/internal/metrics"
	"github.com/ntentasd/pdm-pipeline/pkg/types"
	"gopkg.in/inf.v0"
)

func dayBucket(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func decToFloat(d *inf.Dec) float64 {
	if d == nil {
		return 0
	}
	val, _ := strconv.ParseFloat(d.String(), 64)
	return val
}

// GetTelemetry returns one machine's readings between two timestamps,
// possibly spanning multiple bucket_dates, sorted by timestamp.
func (db *DB) GetTelemetry(ctx context.Context, machineID int, from, to time.Time) ([]types.TelemetryReading, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	readings := make([]types.TelemetryReading, 0, 256)
	queryStart := time.Now()

	// walk all days (buckets) between from and to
	for date := dayBucket(from); !date.After(dayBucket(to)); date = date.Add(24 * time.Hour) {
		iter := db.Data.Query(`
SELECT timestamp, volt, rotate, pressure, vibration
FROM telemetry
WHERE machine_id = ? AND bucket_date = ? AND timestamp >= ? AND timestamp <= ?
ORDER BY timestamp ASC
`, machineID, date, from, to).WithContext(ctx).Iter()

		var ts time.Time
		var volt, rotate, pressure, vibration *inf.Dec
		for iter.Scan(&ts, &volt, &rotate, &pressure, &vibration) {
			readings = append(readings, types.TelemetryReading{
				MachineID: machineID,
				Timestamp: ts,
				Volt:      decToFloat(volt),
				Rotate:    decToFloat(rotate),
				Pressure:  decToFloat(pressure),
				Vibration: decToFloat(vibration),
			})
		}

		if err := iter.Close(); err != nil {
			return nil, fmt.Errorf("failed to query bucket %s: %w", date.Format(time.DateOnly), err)
		}
	}

	metrics.DbReadLatencySeconds.WithLabelValues("telemetry").Observe(time.Since(queryStart).Seconds())
	return readings, nil
}

func (db *DB) InsertTelemetry(ctx context.Context, r types.TelemetryReading) error {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := db.Data.Query(`
INSERT INTO telemetry (machine_id, bucket_date, timestamp, volt, rotate, pressure, vibration)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, r.MachineID, dayBucket(r.Timestamp), r.Timestamp,
		r.Volt, r.Rotate, r.Pressure, r.Vibration).WithContext(ctx).Exec()
	if err != nil {
		return err
	}
	metrics.DbWriteLatencySeconds.WithLabelValues("telemetry").Observe(time.Since(start).Seconds())
	return nil
}
