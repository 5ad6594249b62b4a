package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ntentasd/pdm-pipeline/internal/metrics"
	"github.com/ntentasd/pdm-pipeline/pkg/types"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
)

// Inputs are the fully materialized raw datasets of one batch run. Slices
// must be sorted by timestamp within machine; the Runner partitions them.
type Inputs struct {
	Machines    []types.Machine
	Telemetry   []types.TelemetryReading
	Errors      []types.ErrorEvent
	Maintenance []types.MaintenanceEvent
	Failures    []types.FailureEvent
}

// Runner drives the per-machine stages on a fixed-size worker pool. Machine
// partitions share nothing, so they run fully in parallel; the merged table
// is re-sorted by (machine, timestamp) to keep the output byte-deterministic
// regardless of completion order. A failed partition fails the whole batch.
type Runner struct {
	cfg     Config
	log     zerolog.Logger
	workers int

	agg     *WindowAggregator
	counter *EventCounter
	recency *RecencyTracker
	fuser   *FeatureFuser
	labels  *LabelBuilder
}

func NewRunner(cfg Config, logger zerolog.Logger, workers int) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		cfg:     cfg,
		log:     logger,
		workers: workers,
		agg:     NewWindowAggregator(cfg),
		counter: NewEventCounter(cfg),
		recency: NewRecencyTracker(cfg),
		fuser:   NewFeatureFuser(cfg),
		labels:  NewLabelBuilder(cfg),
	}, nil
}

type partition struct {
	machine     types.Machine
	telemetry   []types.TelemetryReading
	errors      []types.ErrorEvent
	maintenance []types.MaintenanceEvent
	failures    []types.FailureEvent
}

type partitionResult struct {
	machineID int
	records   []types.LabelledRecord
	err       error
}

// Run produces the full labelled table for one batch.
func (r *Runner) Run(ctx context.Context, in Inputs) ([]types.LabelledRecord, error) {
	ctx, span := otel.Tracer("pdm-pipeline").Start(ctx, "pipeline.Run")
	defer span.End()

	start := time.Now()
	parts, err := r.partition(in)
	if err != nil {
		metrics.PipelineRunFailuresTotal.Inc()
		return nil, err
	}

	jobs := make(chan partition, len(parts))
	results := make(chan partitionResult, len(parts))

	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				records, err := r.runPartition(p)
				results <- partitionResult{machineID: p.machine.MachineID, records: records, err: err}
			}
		}()
	}

	for _, p := range parts {
		jobs <- p
	}
	close(jobs)
	wg.Wait()
	close(results)

	var merged []types.LabelledRecord
	for res := range results {
		if res.err != nil {
			span.RecordError(res.err)
			metrics.PipelineRunFailuresTotal.Inc()
			return nil, res.err
		}
		merged = append(merged, res.records...)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].MachineID != merged[j].MachineID {
			return merged[i].MachineID < merged[j].MachineID
		}
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})

	metrics.PipelineRowsTotal.WithLabelValues("labelled").Add(float64(len(merged)))
	metrics.PipelineRunDurationSeconds.Observe(time.Since(start).Seconds())

	r.log.Info().
		Int("machines", len(parts)).
		Int("rows", len(merged)).
		Dur("elapsed", time.Since(start)).
		Msg("pipeline run complete")

	return merged, nil
}

func (r *Runner) runPartition(p partition) ([]types.LabelledRecord, error) {
	tele, err := r.agg.Aggregate(p.telemetry)
	if err != nil {
		return nil, err
	}
	if len(tele) == 0 {
		r.log.Debug().Int("machine_id", p.machine.MachineID).Msg("series shorter than long window, no rows")
		return nil, nil
	}

	start := p.telemetry[0].Timestamp
	end := p.telemetry[len(p.telemetry)-1].Timestamp

	counts, err := r.counter.Count(p.machine.MachineID, p.errors, start, end)
	if err != nil {
		return nil, err
	}

	recs, err := r.recency.Track(p.machine.MachineID, p.maintenance, start, end)
	if err != nil {
		return nil, err
	}

	fused, err := r.fuser.Fuse(p.machine, tele, counts, recs)
	if err != nil {
		return nil, err
	}

	return r.labels.Label(fused, p.failures)
}

// partition splits the flat inputs by machine and enforces the shared
// machine-id domain: records for an unregistered machine abort the run.
func (r *Runner) partition(in Inputs) ([]partition, error) {
	byID := make(map[int]*partition, len(in.Machines))
	parts := make([]partition, len(in.Machines))
	for i, m := range in.Machines {
		parts[i] = partition{machine: m}
		byID[m.MachineID] = &parts[i]
	}

	unknown := func(stage string, id int, ts time.Time) error {
		return &ValidationError{
			Stage:     stage,
			MachineID: id,
			Timestamp: ts,
			Reason:    "machine id not in the machines dataset",
		}
	}

	for _, t := range in.Telemetry {
		p, ok := byID[t.MachineID]
		if !ok {
			return nil, unknown("partition telemetry", t.MachineID, t.Timestamp)
		}
		p.telemetry = append(p.telemetry, t)
	}
	for _, e := range in.Errors {
		p, ok := byID[e.MachineID]
		if !ok {
			return nil, unknown("partition errors", e.MachineID, e.Timestamp)
		}
		p.errors = append(p.errors, e)
	}
	for _, e := range in.Maintenance {
		p, ok := byID[e.MachineID]
		if !ok {
			return nil, unknown("partition maintenance", e.MachineID, e.Timestamp)
		}
		p.maintenance = append(p.maintenance, e)
	}
	for _, f := range in.Failures {
		p, ok := byID[f.MachineID]
		if !ok {
			return nil, unknown("partition failures", f.MachineID, f.Timestamp)
		}
		p.failures = append(p.failures, f)
	}
	return parts, nil
}
