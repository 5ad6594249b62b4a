// Package routes
package routes

import (
	"net/http"

	"github.com/ntentasd/pdm-pipeline/pkg/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewMux(app *App) http.Handler {
	mux := http.NewServeMux()

	// health check
	mux.HandleFunc("/healthz", healthHandler)

	// metrics
	mux.Handle("/metrics", promhttp.Handler())

	// pipeline runs
	mux.HandleFunc("/runs", app.runsHandler)
	mux.HandleFunc("/runs/{id}", app.getRunHandler)

	// latest labelled rows per machine
	mux.HandleFunc("/features/latest", app.latestFeaturesHandler)

	// training jobs
	mux.HandleFunc("/jobs", app.listJobsHandler)
	mux.HandleFunc("/jobs/{id}", app.getJobHandler)

	return utils.WithCORS(mux)
}
