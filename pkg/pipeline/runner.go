package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/dcmdict/pkg/cache"
	"github.com/matzehuels/dcmdict/pkg/config"
	"github.com/matzehuels/dcmdict/pkg/dictionary"
	"github.com/matzehuels/dcmdict/pkg/docbook"
	"github.com/matzehuels/dcmdict/pkg/errors"
	"github.com/matzehuels/dcmdict/pkg/observability"
	"github.com/matzehuels/dcmdict/pkg/source"
)

// Runner encapsulates run execution with caching.
// Both CLI and server use this to avoid duplicating wiring.
//
// The Runner is stateless except for the cache and logger; it doesn't
// store results. Each Execute call builds its own document library and
// resolver, so multiple goroutines can safely share a Runner.
type Runner struct {
	Config config.Config
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner for cfg with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(cfg config.Config, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Config: cfg,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete retrieve → resolve → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	runID := uuid.NewString()
	src := r.source(opts)
	start := time.Now()

	observability.Pipeline().OnRunStart(ctx, runID, src)
	result, err := r.execute(ctx, runID, src, opts)
	sops := 0
	if result != nil {
		sops = result.Stats.SopCount
	}
	observability.Pipeline().OnRunComplete(ctx, runID, sops, time.Since(start), err)
	return result, err
}

func (r *Runner) execute(ctx context.Context, runID, src string, opts Options) (*Result, error) {
	logger := opts.Logger.With("run", runID[:8])
	logger.Debug("starting run", "source", src, "selection", opts.String())

	result := &Result{RunID: runID}

	// Stage 1+2: Retrieve and resolve
	resolveStart := time.Now()
	dict, err := r.Resolve(ctx, src, opts, logger)
	if err != nil {
		logger.Error("resolution failed",
			"code", errors.GetCode(err),
			"structural", errors.Fatal(err),
			"duration", time.Since(resolveStart))
		return nil, fmt.Errorf("resolve: %w", err)
	}
	result.Dictionary = dict
	result.Stats.ResolveTime = time.Since(resolveStart)
	result.Stats.SopCount = len(dict.Filtered.Sops)
	result.Stats.IodCount = len(dict.Filtered.Iods)
	result.Stats.ModuleCount = len(dict.Filtered.Modules)
	result.Stats.AttributeCount = len(dict.Filtered.Attributes)

	logger.Info("resolved dictionary",
		"sops", result.Stats.SopCount,
		"modules", result.Stats.ModuleCount,
		"attributes", result.Stats.AttributeCount,
		"duration", result.Stats.ResolveTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, err := Render(dict.Filtered, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)

	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Resolve retrieves the configured parts from src and resolves them with
// the filters of opts. opts must already be validated.
func (r *Runner) Resolve(ctx context.Context, src string, opts Options, logger *log.Logger) (*dictionary.Result, error) {
	fetcher, err := source.NewFetcher(src, r.Cache, source.Options{
		Logger:  logger,
		Keyer:   r.Keyer,
		TTL:     r.Config.Cache.TTL.Duration,
		Refresh: opts.Refresh,
	})
	if err != nil {
		return nil, err
	}

	ropts := r.Config.ResolverOptions()
	ropts.SopPatterns = opts.SopPatterns
	ropts.MandatoryTags = opts.Tags()
	ropts.Logger = logger

	resolver, err := dictionary.NewResolver(docbook.NewLibrary(fetcher, logger), ropts)
	if err != nil {
		return nil, err
	}
	return resolver.Resolve(ctx)
}

// Close releases the runner's cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) source(opts Options) string {
	if opts.Source != "" {
		return opts.Source
	}
	return r.Config.Source
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
