package main

import (
	"log/slog"
	"os"

	"github.com/indigo-web/twotter"
	"github.com/indigo-web/twotter/config"
	"github.com/indigo-web/twotter/portal"
	"github.com/indigo-web/twotter/portal/memory"
	"github.com/indigo-web/twotter/portal/seed"
	"github.com/indigo-web/twotter/portal/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger(os.Stderr)

	if info, err := os.Stat(cfg.Paths.Templates); err != nil || !info.IsDir() {
		logger.Error("template root is not a directory", slog.String("path", cfg.Paths.Templates))
		os.Exit(1)
	}

	store, closeStore, err := openStorage(cfg.Storage, logger)
	if err != nil {
		logger.Error("opening storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	if len(cfg.Storage.Seed) > 0 {
		if err = seedFrom(cfg.Storage.Seed, store); err != nil {
			logger.Error("seeding storage", slog.String("file", cfg.Storage.Seed), slog.String("error", err.Error()))
			closeStore()
			os.Exit(1)
		}
	}

	app := twotter.New(store).
		Tune(cfg).
		Logger(logger)

	if err = app.Serve(); err != nil {
		logger.Error("serving", slog.String("error", err.Error()))
		closeStore()
		os.Exit(1)
	}
}

func openStorage(cfg config.Storage, logger *slog.Logger) (portal.Portal, func(), error) {
	if cfg.Driver == config.DriverMemory {
		return memory.New(), func() {}, nil
	}

	store, err := sqlite.Open(cfg.DSN, logger)
	if err != nil {
		return nil, nil, err
	}

	return store, func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing storage", slog.String("error", err.Error()))
		}
	}, nil
}

func seedFrom(path string, p portal.Portal) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = file.Close()
	}()

	return seed.Load(file, p)
}
