package cmd

import (
	"context"
	"fmt"

	"artifact-store/core/bucket"
	"artifact-store/core/config"
	"artifact-store/core/logger"
	"artifact-store/core/metrics"
	"artifact-store/feature/files"

	"go.uber.org/zap"
)

// deps is the wiring shared by every command.
type deps struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Collector
	engine  *bucket.Engine
	files   *files.Service
}

func newDeps() (*deps, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	collector := metrics.NewCollector(cfg.Metrics)
	exec := bucket.NewExecutor(cfg.Retry, logg, collector)

	return &deps{
		cfg:     cfg,
		logger:  logg,
		metrics: collector,
		engine:  bucket.NewEngine(cfg.Storage, exec, logg),
		files:   files.NewService(logg, cfg.Storage.PublicBase()),
	}, nil
}

// session starts the engine on first use and returns a session.
func (d *deps) session(ctx context.Context) (bucket.Session, error) {
	if err := d.engine.Start(ctx); err != nil {
		return bucket.Session{}, err
	}
	return d.engine.Session()
}
