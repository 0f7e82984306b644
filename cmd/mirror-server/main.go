package main

import (
	"flag"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mealhub/internal/mirror"
)

func main() {
	var (
		addr     = flag.String("addr", ":9000", "listen address")
		dataPath = flag.String("data", "data/mirror.json", "dataset written by export-mirror")
	)
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	ds, err := mirror.Load(*dataPath)
	if err != nil {
		logger.Fatal("cannot load mirror dataset", zap.Error(err))
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              *addr,
		Handler:           mirror.Handler(ds),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// point MEALHUB_MEALDB_URL at http://localhost:9000/api/json/v1/1/
	logger.Info("mirror-server listening",
		zap.String("addr", *addr),
		zap.Int("categories", len(ds.Categories)),
		zap.Int("meals", len(ds.Meals)),
	)
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("mirror-server stopped", zap.Error(err))
	}
}
