package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/ntentasd/pdm-pipeline/internal/pipeline"
	"github.com/ntentasd/pdm-pipeline/internal/store"
	"github.com/rs/zerolog"
)

var scyllaNodes []string

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if scyllaEnv := os.Getenv("SCYLLA_NODES"); scyllaEnv != "" {
		scyllaNodes = strings.Split(scyllaEnv, ",")
	}

	from, err := time.Parse(time.DateTime, os.Getenv("PDM_FROM"))
	if err != nil {
		log.Fatalf("invalid PDM_FROM: %v", err)
	}
	to, err := time.Parse(time.DateTime, os.Getenv("PDM_TO"))
	if err != nil {
		log.Fatalf("invalid PDM_TO: %v", err)
	}
	cutoff, err := time.Parse(time.DateTime, os.Getenv("PDM_CUTOFF"))
	if err != nil {
		log.Fatalf("invalid PDM_CUTOFF: %v", err)
	}
	if !cutoff.After(from) || !cutoff.Before(to) {
		log.Fatal("PDM_CUTOFF must fall inside [PDM_FROM, PDM_TO]")
	}

	clusterMeta := gocql.NewCluster(scyllaNodes...)
	clusterMeta.Keyspace = "pdm_meta"
	clusterMeta.DisableInitialHostLookup = true
	clusterMeta.DisableShardAwarePort = true
	metaSess, err := clusterMeta.CreateSession()
	if err != nil {
		log.Fatalf("unable to connect: %v", err)
	}

	clusterData := gocql.NewCluster(scyllaNodes...)
	clusterData.Keyspace = "pdm_data"
	clusterData.DisableInitialHostLookup = true
	clusterData.DisableShardAwarePort = true
	dataSess, err := clusterData.CreateSession()
	if err != nil {
		log.Fatalf("unable to connect: %v", err)
	}

	db := store.New(metaSess, dataSess)
	defer db.Close()

	cfg, err := pipeline.FromEnv()
	if err != nil {
		log.Fatalf("invalid pipeline config: %v", err)
	}

	runner, err := pipeline.NewRunner(cfg, logger, pipeline.WorkersFromEnv())
	if err != nil {
		log.Fatalf("failed to build runner: %v", err)
	}

	ctx := context.Background()
	started := time.Now()
	runID := uuid.New()

	inputs, err := db.LoadInputs(ctx, from, to)
	if err != nil {
		log.Fatalf("failed to load inputs: %v", err)
	}

	rows, err := runner.Run(ctx, inputs)
	if err != nil {
		log.Fatalf("pipeline run failed: %v", err)
	}

	split, err := pipeline.NewTemporalSplitter(cfg).Split(rows, cutoff, time.Time{})
	if err != nil {
		log.Fatalf("temporal split failed: %v", err)
	}

	if err := db.SaveLabelled(ctx, runID, rows); err != nil {
		log.Fatalf("failed to persist labelled table: %v", err)
	}

	out := os.Stdout
	if path := os.Getenv("PDM_OUT"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			log.Fatalf("failed to create output file: %v", err)
		}
		defer f.Close()
		out = f
	}
	if err := pipeline.WriteCSV(out, cfg, rows); err != nil {
		log.Fatalf("failed to write csv: %v", err)
	}

	logger.Info().
		Stringer("run_id", runID).
		Int("machines", len(inputs.Machines)).
		Int("rows", len(rows)).
		Int("train_rows", len(split.Train)).
		Int("test_rows", len(split.Test)).
		Dur("elapsed", time.Since(started)).
		Msg("batch run complete")
}
