package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/ntentasd/pdm-pipeline/internal/cache"
	"github.com/ntentasd/pdm-pipeline/internal/ingest"
	"github.com/ntentasd/pdm-pipeline/internal/pipeline"
	"github.com/ntentasd/pdm-pipeline/internal/routes"
	"github.com/ntentasd/pdm-pipeline/internal/store"
	"github.com/ntentasd/pdm-pipeline/internal/tracing"
	"github.com/ntentasd/pdm-pipeline/internal/trainer"
	"github.com/rs/zerolog"
)

var (
	scyllaNodes  []string
	kafkaBrokers []string
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	scyllaEnv := os.Getenv("SCYLLA_NODES")
	kafkaEnv := os.Getenv("KAFKA_BROKERS")
	trainerURL := os.Getenv("TRAINER_URL")

	if scyllaEnv != "" {
		scyllaNodes = strings.Split(scyllaEnv, ",")
	}

	if kafkaEnv != "" {
		kafkaBrokers = strings.Split(kafkaEnv, ",")
	}

	shutdownTracer := tracing.InitTracer()
	defer shutdownTracer(context.Background())

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

	var c cache.Cache
	if addrs := cache.ResolveValkeyAddrs(); len(addrs) > 0 {
		c = cache.NewValkey(addrs)
	} else if addr := os.Getenv("MEMCACHED_ADDR"); addr != "" {
		c = cache.NewMemcached(addr)
	} else {
		log.Fatal("no cache discovery env provided (VALKEY_NODES, VALKEY_SERVICE or MEMCACHED_ADDR)")
	}
	defer c.Close()

	cfg, err := pipeline.FromEnv()
	if err != nil {
		log.Fatalf("invalid pipeline config: %v", err)
	}

	runner, err := pipeline.NewRunner(cfg, logger, pipeline.WorkersFromEnv())
	if err != nil {
		log.Fatalf("failed to build runner: %v", err)
	}

	tc := trainer.New(trainerURL)

	if len(kafkaBrokers) > 0 {
		ingester := ingest.New(kafkaBrokers, db)
		if err := ingester.Drain(context.Background()); err != nil {
			log.Fatalf("failed to materialize raw topics: %v", err)
		}
	}

	app := routes.New(db, c, tc, runner, cfg, logger)
	mux := routes.NewMux(app)

	sv := trainer.NewSupervisor(tc, time.Second*5)
	sv.Start(context.Background())
	defer sv.Stop()

	log.Println("Listening on port :8080...")
	if err := http.ListenAndServe(":8080", mux); err != nil {
		panic(err)
	}
}
