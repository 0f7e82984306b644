package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"mealhub/internal/mealdb"
	"mealhub/internal/mirror"
	"mealhub/pkg/utils"
)

func main() {
	var (
		configPath = flag.String("config", utils.DefaultConfigPath(), "path to config.toml")
		outPath    = flag.String("out", "data/mirror.json", "output JSON path")
		lookups    = flag.Int("lookups", 0, "how many meals to fetch details for (0 = all, -1 = none)")
		rps        = flag.Float64("rps", 2, "max MealDB requests per second (0 = unlimited)")
	)
	flag.Parse()

	cfg, err := utils.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := mealdb.NewClient(cfg.MealDBBaseURL,
		mealdb.WithRateLimit(*rps),
		mealdb.WithLogger(logger.Named("mealdb")),
	)
	if err != nil {
		logger.Fatal("mealdb client", zap.Error(err))
	}

	ds, err := mirror.Build(ctx, client, mirror.BuildOptions{Lookups: *lookups, Logger: logger})
	if err != nil {
		logger.Fatal("export failed", zap.Error(err))
	}
	if err := ds.Save(*outPath); err != nil {
		logger.Fatal("write failed", zap.Error(err))
	}
	logger.Info("mirror exported",
		zap.String("out", *outPath),
		zap.Int("categories", len(ds.Categories)),
		zap.Int("meals", len(ds.Meals)),
	)
}
