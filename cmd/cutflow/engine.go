package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"gocuts/adapters/table"
	"gocuts/domain/core"
	"gocuts/internal"
	"gocuts/internal/cache"
	"gocuts/internal/config"
	"gocuts/internal/cuts"
	"gocuts/ports"
)

type engineOptions struct {
	dataPath string
	run      string
	runType  string
	chi2     int
}

// engine bundles a generator with the run it was built for
type engine struct {
	gen    *cuts.Generator
	data   *table.Table
	run    core.RunID
	logger *internal.Logger
	close  func() error
}

func openCache(ctx context.Context, cfg config.CacheConfig) (ports.ComputeCachePort, func() error, error) {
	if cfg.Driver == "memory" {
		return cache.NewMemory(), func() error { return nil }, nil
	}
	store, err := cache.OpenSQLStore(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

func loadAnalysis(path string, logger *internal.Logger) (ports.ConfigurationPort, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Warn("analysis config %s not found, cuts needing configuration are disabled", path)
		return config.NewAnalysis(nil), nil
	}
	return config.LoadAnalysis(path)
}

func openEngine(ctx context.Context, opts *engineOptions) (*engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := internal.NewLogger(internal.ParseLogLevel(cfg.Log.Level))

	runType := cfg.Analysis.RunType
	if opts.runType != "" {
		if runType, err = core.ParseRunType(opts.runType); err != nil {
			return nil, err
		}
	}
	run := opts.run
	if run == "" {
		run = strings.TrimSuffix(filepath.Base(opts.dataPath), filepath.Ext(opts.dataPath))
	}
	runID, err := core.ParseRunID(run)
	if err != nil {
		return nil, err
	}

	data, err := table.NewReader(opts.dataPath, logger).Read()
	if err != nil {
		return nil, err
	}
	analysis, err := loadAnalysis(cfg.Analysis.Path, logger)
	if err != nil {
		return nil, err
	}
	store, closeCache, err := openCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}

	gen, err := cuts.New(ctx, data, data, store, config.ForDUT(analysis, cfg.Analysis.DUTName),
		cuts.WithRun(runID),
		cuts.WithRunType(runType),
		cuts.WithLogger(logger),
		cuts.WithLenient(cfg.Analysis.Lenient),
	)
	if err != nil {
		closeCache()
		return nil, classify(err)
	}
	if opts.chi2 != 0 {
		if err := gen.SetChi2(ctx, opts.chi2); err != nil {
			closeCache()
			return nil, classify(err)
		}
	}
	return &engine{gen: gen, data: data, run: runID, logger: logger, close: closeCache}, nil
}
