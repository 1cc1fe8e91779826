// Package scheduler runs periodic background imports of external
// communication feeds.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ramonvasc/comunicahub/internal/ingest"
	"github.com/ramonvasc/comunicahub/pkg/logger"
)

const defaultImportSpec = "@hourly"

// Source produces one batch of external records plus the registry snapshot
// used to prime the matcher caches. Implementations wrap a concrete upstream
// (HTTP poll of the publication API, file drop, replay of a stored export).
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]ingest.ExternalRecord, ingest.Seed, error)
}

// Importer drives the ingestion pipeline on a cron schedule. Each tick fetches
// every configured source and ingests the batches sequentially; one failing
// source never blocks the others.
type Importer struct {
	pipeline *ingest.Pipeline
	sources  []Source
	cron     *cron.Cron
	schedule string
	timeout  time.Duration
	log      *zap.Logger
}

// Option customises the Importer.
type Option func(*Importer)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(imp *Importer) {
		if c != nil {
			imp.cron = c
		}
	}
}

// WithSchedule overrides the cron specification for import runs.
func WithSchedule(spec string) Option {
	return func(imp *Importer) {
		if spec != "" {
			imp.schedule = spec
		}
	}
}

// WithRunTimeout bounds how long one scheduled run may take across all sources.
func WithRunTimeout(timeout time.Duration) Option {
	return func(imp *Importer) {
		if timeout > 0 {
			imp.timeout = timeout
		}
	}
}

// NewImporter constructs an Importer over the given sources.
func NewImporter(pipeline *ingest.Pipeline, sources []Source, opts ...Option) (*Importer, error) {
	if pipeline == nil {
		return nil, errors.New("importer: pipeline is required")
	}

	imp := &Importer{
		pipeline: pipeline,
		sources:  sources,
		schedule: defaultImportSpec,
		timeout:  5 * time.Minute,
		log:      logger.WithModule("scheduler"),
	}
	for _, opt := range opts {
		opt(imp)
	}

	if imp.cron == nil {
		imp.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return imp, nil
}

// Start registers the import job and launches the scheduler. With no sources
// configured there is nothing to schedule.
func (imp *Importer) Start() error {
	if len(imp.sources) == 0 {
		return nil
	}

	if _, err := imp.cron.AddFunc(imp.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), imp.timeout)
		defer cancel()

		if _, err := imp.RunOnce(ctx); err != nil {
			imp.log.Warn("scheduled import incomplete", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	imp.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for any running import to complete.
func (imp *Importer) Stop() context.Context {
	if imp.cron == nil {
		return context.Background()
	}
	return imp.cron.Stop()
}

// RunOnce fetches and ingests every source sequentially and returns combined
// counts. Fetch failures are collected per source; batches that did arrive
// are still ingested.
func (imp *Importer) RunOnce(ctx context.Context) (ingest.Summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var total ingest.Summary
	var errs error

	for _, source := range imp.sources {
		records, seed, err := source.Fetch(ctx)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("source %s: %w", source.Name(), err))
			continue
		}

		summary := imp.pipeline.IngestBatch(ctx, records, seed)
		total.Saved += summary.Saved
		total.Skipped += summary.Skipped
	}

	return total, errs
}
