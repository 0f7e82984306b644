package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"mealhub/internal/catalog"
	"mealhub/internal/mealdb"
	"mealhub/internal/meals"
	"mealhub/internal/store"
	synchub "mealhub/internal/sync"
	"mealhub/pkg/utils"
)

func main() {
	configPath := flag.String("config", utils.DefaultConfigPath(), "path to config.toml")
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

	os.Exit(finish(logger, run(cfg, logger)))
}

// finish logs err, flushes the logger and returns the process exit code.
func finish(logger *zap.Logger, err error) int {
	if err != nil {
		logger.Error("api-server failed", zap.Error(err))
	}
	_ = logger.Sync()
	if err != nil {
		return 1
	}
	return 0
}

func run(cfg utils.Config, logger *zap.Logger) error {
	client, err := mealdb.NewClient(cfg.MealDBBaseURL,
		mealdb.WithRateLimit(cfg.RequestsPerSecond),
		mealdb.WithLogger(logger.Named("mealdb")),
	)
	if err != nil {
		return err
	}

	cache := store.New()
	catalogLog := logger.Named("catalog")
	engine := catalog.NewEngine(client, cache, catalogLog)
	gallery := catalog.NewGallery(client, cache, catalogLog)
	details, err := catalog.NewDetails(client, cache, cfg.DetailCacheSize, catalogLog)
	if err != nil {
		return err
	}

	hub := synchub.NewHub(logger.Named("sync"))
	unsubscribe := synchub.Forward(cache, hub)
	defer unsubscribe()

	if cfg.LogDevelopment {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), utils.GinLogger(logger.Named("http")))
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return fmt.Errorf("trusted proxies: %w", err)
	}

	router.GET("/ws", synchub.WSHandler(hub))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "mealdb": client.BaseURL()})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		if cache.Empty() {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"reason":      "catalog not loaded",
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	router.GET("/debug", func(c *gin.Context) {
		snap := cache.Snapshot()
		stats := hub.Stats()
		c.JSON(http.StatusOK, gin.H{
			"mealdb":      client.BaseURL(),
			"generation":  snap.Generation,
			"source":      snap.Source,
			"meals":       len(snap.Meals),
			"updated_at":  snap.UpdatedAt,
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	meals.NewHandler(engine, gallery, details, logger.Named("http")).RegisterRoutes(router.Group(""))

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var tcpSrv *synchub.Server
	if cfg.SyncAddr != "" {
		tcpSrv = synchub.NewServer(cfg.SyncAddr, hub, logger.Named("sync"))
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	if tcpSrv != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tcpSrv.Run(); err != nil {
				errCh <- fmt.Errorf("tcp sync: %w", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("HTTP API server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", zap.Stringer("signal", sig))
	case runErr = <-errCh:
		logger.Error("server error", zap.Error(runErr))
	}

	logger.Info("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown error", zap.Error(err))
	}
	if tcpSrv != nil {
		if err := tcpSrv.Close(); err != nil {
			logger.Warn("tcp shutdown error", zap.Error(err))
		}
	}

	wg.Wait()
	logger.Info("servers stopped")
	return runErr
}
