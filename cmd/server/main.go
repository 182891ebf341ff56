package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/libertypay/card-reconciliation/internal/config"
	"github.com/libertypay/card-reconciliation/internal/database"
	"github.com/libertypay/card-reconciliation/internal/handler"
	"github.com/libertypay/card-reconciliation/internal/middleware"
	"github.com/libertypay/card-reconciliation/internal/recon"
	"github.com/libertypay/card-reconciliation/internal/repository"
	"github.com/libertypay/card-reconciliation/internal/scheduler"
	"github.com/libertypay/card-reconciliation/internal/service"
	"github.com/libertypay/card-reconciliation/internal/sheets"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := database.RunMigrations(cfg.DatabaseURL()); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	params := recon.DefaultCostModel()
	params.InterswitchMerchantID = cfg.MerchantIDInterswitchUnity
	params.NIBSSMerchantID = cfg.MerchantIDNIBSSUnity
	params.ParallexMerchantID = cfg.MerchantIDNIBSSParallex

	engine := recon.New(params, log.Logger)
	loader := sheets.NewLoader(cfg)
	metricsRepo := repository.NewMetricsRepository(pool)
	reconService := service.NewReconciliationService(engine, loader, metricsRepo, cfg, log.Logger)

	sched := scheduler.New(reconService, log.Logger)
	if err := sched.Start(cfg.Schedule); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}

	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(gin.Recovery())

	healthHandler := handler.NewHealthHandler(pool)
	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	reconHandler := handler.NewReconciliationHandler(reconService)
	metricsHandler := handler.NewMetricsHandler(reconService)
	configHandler := handler.NewConfigHandler(cfg)

	api := router.Group("/api/v1")
	{
		api.POST("/reconciliation/run", reconHandler.Run)
		api.GET("/reconciliation/debug", reconHandler.Debug)
		api.GET("/reconciliation/metrics", metricsHandler.List)
		api.GET("/reconciliation/metrics/latest", metricsHandler.GetLatest)
		api.GET("/reconciliation/metrics/:run_date", metricsHandler.GetByDate)
		api.GET("/config", configHandler.Get)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}
