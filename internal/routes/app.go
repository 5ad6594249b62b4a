package routes

import (
	"sync"

	"github.com/google/uuid"
	"github.com/ntentasd/pdm-pipeline/internal/cache"
	"github.com/ntentasd/pdm-pipeline/internal/pipeline"
	"github.com/ntentasd/pdm-pipeline/internal/store"
	"github.com/ntentasd/pdm-pipeline/internal/trainer"
	"github.com/rs/zerolog"
)

type App struct {
	Store    *store.DB
	Cache    cache.Cache
	Trainer  *trainer.Client
	Runner   *pipeline.Runner
	Splitter *pipeline.TemporalSplitter
	Cfg      pipeline.Config
	Logger   zerolog.Logger

	mu        sync.Mutex
	lastRunID uuid.UUID
}

func New(
	db *store.DB,
	c cache.Cache,
	tc *trainer.Client,
	runner *pipeline.Runner,
	cfg pipeline.Config,
	logger zerolog.Logger,
) *App {
	return &App{
		Store:    db,
		Cache:    c,
		Trainer:  tc,
		Runner:   runner,
		Splitter: pipeline.NewTemporalSplitter(cfg),
		Cfg:      cfg,
		Logger:   logger,
	}
}

func (app *App) setLastRun(id uuid.UUID) {
	app.mu.Lock()
	app.lastRunID = id
	app.mu.Unlock()
}

func (app *App) lastRun() uuid.UUID {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.lastRunID
}
