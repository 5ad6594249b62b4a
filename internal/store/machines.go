package store

import (
	"context"
	"errors"
	"time"

	"github.com/gocql/gocql"
	"github.com/ntentasd/pdm-pipeline/internal/metrics"
	"github.com/ntentasd/pdm-pipeline/pkg/types"
)

var ErrMachineNotFound = errors.New("machine not found")

func (db *DB) GetMachines(ctx context.Context) ([]types.Machine, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	query := db.Meta.Query(`
SELECT machine_id, model, age
FROM machines
`).WithContext(ctx)

	var results []types.Machine
	iter := query.Iter()

	var machineID, age int
	var model string

	for iter.Scan(&machineID, &model, &age) {
		results = append(results, types.Machine{
			MachineID: machineID,
			Model:     model,
			Age:       age,
		})
	}

	if err := iter.Close(); err != nil {
		return nil, err
	}
	metrics.DbReadLatencySeconds.WithLabelValues("machines").Observe(time.Since(start).Seconds())

	return results, nil
}

func (db *DB) GetMachine(ctx context.Context, machineID int) (*types.Machine, error) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	var model string
	var age int

	err := db.Meta.Query(`
SELECT model, age
FROM machines
WHERE machine_id = ?
`, machineID).WithContext(ctx).Scan(&model, &age)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, ErrMachineNotFound
		}
		return nil, err
	}

	return &types.Machine{
		MachineID: machineID,
		Model:     model,
		Age:       age,
	}, nil
}
