package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/ntentasd/pdm-pipeline/internal/metrics"
	"github.com/ntentasd/pdm-pipeline/internal/trainer"
	"github.com/ntentasd/pdm-pipeline/pkg/types"
	"github.com/ntentasd/pdm-pipeline/pkg/utils"
)

const latestRows = 5

func healthHandler(w http.ResponseWriter, r *http.Request) {
	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"state": "healthy",
	})
}

func runKey(id uuid.UUID) string {
	return fmt.Sprintf("run:%s", id)
}

func (app *App) runsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.ReplyMethodNotAllowed(w)
		return
	}

	start := time.Now()
	defer func() {
		metrics.HttpRequestLatencySeconds.WithLabelValues("POST").Observe(time.Since(start).Seconds())
	}()

	var req struct {
		From   string `json:"from"`
		To     string `json:"to"`
		Cutoff string `json:"cutoff"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ReplyBadRequest(w, "invalid request body")
		return
	}

	from, err := time.Parse(time.DateTime, req.From)
	if err != nil {
		utils.ReplyBadRequest(w, "invalid from timestamp")
		return
	}
	to, err := time.Parse(time.DateTime, req.To)
	if err != nil {
		utils.ReplyBadRequest(w, "invalid to timestamp")
		return
	}
	cutoff, err := time.Parse(time.DateTime, req.Cutoff)
	if err != nil {
		utils.ReplyBadRequest(w, "invalid cutoff timestamp")
		return
	}
	if !cutoff.After(from) || !cutoff.Before(to) {
		utils.ReplyBadRequest(w, "cutoff must fall inside [from, to]")
		return
	}

	runID := uuid.New()
	summary := types.RunSummary{
		RunID:     runID,
		State:     types.RunStateRunning,
		StartedAt: time.Now().UTC(),
		Cutoff:    cutoff,
	}
	if err := app.Cache.StoreSummary(r.Context(), runKey(runID), summary, 24*time.Hour); err != nil {
		app.Logger.Warn().Err(err).Msg("failed to cache run summary")
	}

	go app.executeRun(runID, from, to, cutoff)

	utils.ReplyJSON(w, http.StatusAccepted, utils.Body{
		"data": summary,
	})
}

func (app *App) executeRun(runID uuid.UUID, from, to, cutoff time.Time) {
	ctx := context.Background()
	started := time.Now()

	summary := types.RunSummary{
		RunID:     runID,
		State:     types.RunStateRunning,
		StartedAt: started.UTC(),
		Cutoff:    cutoff,
	}
	fail := func(err error) {
		app.Logger.Error().Err(err).Stringer("run_id", runID).Msg("pipeline run failed")
		summary.State = types.RunStateFailed
		summary.Error = err.Error()
		summary.DurationMs = time.Since(started).Milliseconds()
		app.Cache.StoreSummary(ctx, runKey(runID), summary, 24*time.Hour)
	}

	inputs, err := app.Store.LoadInputs(ctx, from, to)
	if err != nil {
		fail(err)
		return
	}
	summary.Machines = len(inputs.Machines)

	rows, err := app.Runner.Run(ctx, inputs)
	if err != nil {
		fail(err)
		return
	}
	summary.Rows = len(rows)

	split, err := app.Splitter.Split(rows, cutoff, time.Time{})
	if err != nil {
		fail(err)
		return
	}
	summary.TrainRows = len(split.Train)
	summary.TestRows = len(split.Test)

	if err := app.Store.SaveLabelled(ctx, runID, rows); err != nil {
		fail(err)
		return
	}
	app.cacheLatest(rows)
	app.setLastRun(runID)

	if _, err := app.Trainer.SubmitJob(trainer.TrainingRequest{
		RunID:      runID,
		Cutoffs:    []time.Time{cutoff},
		LabelSet:   append([]string{types.LabelNone}, app.Cfg.ComponentSet...),
		FeatureRef: runKey(runID),
	}); err != nil {
		// the table is persisted, a failed submission is retryable
		app.Logger.Warn().Err(err).Stringer("run_id", runID).Msg("failed to submit training job")
	}

	summary.State = types.RunStateDone
	summary.DurationMs = time.Since(started).Milliseconds()
	if err := app.Cache.StoreSummary(ctx, runKey(runID), summary, 24*time.Hour); err != nil {
		app.Logger.Warn().Err(err).Msg("failed to cache run summary")
	}
}

// cacheLatest keeps each machine's most recent labelled rows warm for the
// latest-features endpoint.
func (app *App) cacheLatest(rows []types.LabelledRecord) {
	last := make(map[int][]types.LabelledRecord)
	for _, r := range rows {
		keep := append(last[r.MachineID], r)
		if len(keep) > latestRows {
			keep = keep[1:]
		}
		last[r.MachineID] = keep
	}

	for _, recs := range last {
		for _, rec := range recs {
			if err := app.Cache.StoreLatest(rec.MachineID, rec); err != nil {
				app.Logger.Warn().Err(err).Int("machine_id", rec.MachineID).Msg("failed to cache row")
				return
			}
		}
	}
}

func (app *App) getRunHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.ReplyMethodNotAllowed(w)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.ReplyBadRequest(w, "invalid run id")
		return
	}

	cached, err := app.Cache.FetchSummary(r.Context(), runKey(id))
	if err != nil {
		utils.ReplyNotFound(w, "run not found")
		return
	}

	var summary types.RunSummary
	if err := json.Unmarshal(cached, &summary); err != nil {
		utils.ReplyInternalServerError(w, err.Error())
		return
	}

	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"data": summary,
	})
}

func (app *App) latestFeaturesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.ReplyMethodNotAllowed(w)
		return
	}

	start := time.Now()
	defer func() {
		metrics.HttpRequestLatencySeconds.WithLabelValues("GET").Observe(time.Since(start).Seconds())
	}()

	machineID, err := strconv.Atoi(r.URL.Query().Get("machine_id"))
	if err != nil {
		utils.ReplyBadRequest(w, "missing or invalid machine_id")
		return
	}

	res, err := app.Cache.FetchLatest(machineID, latestRows)
	if err != nil {
		utils.ReplyInternalServerError(w, err.Error())
		return
	}

	// less than a full page, cache is stale
	if len(res) < latestRows {
		runID := app.lastRun()
		if runID == uuid.Nil {
			utils.ReplyNotFound(w, "no completed run yet")
			return
		}

		res, err = app.Store.GetLatestLabelled(r.Context(), runID, machineID, latestRows)
		if err != nil {
			utils.ReplyInternalServerError(w, err.Error())
			return
		}
		for _, rec := range res {
			app.Cache.StoreLatest(machineID, rec)
		}
	}

	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"data": res,
	})
}
