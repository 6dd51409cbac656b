package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"frauddetect/internal/api"
	"frauddetect/internal/artifact"
	"frauddetect/internal/config"
	"frauddetect/internal/inference"
	"frauddetect/pkg/utils"
)

func main() {
	cfgPath := flag.String("config", "", "YAML config file (optional)")
	model := flag.String("model", "", "Artifact path, overrides artifact.path")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		utils.Logger().Fatal("config", zap.Error(err))
	}
	if *model != "" {
		cfg.Artifact.Path = *model
	}
	logger := utils.Configure(cfg.LogLevel, cfg.LogFile)
	defer logger.Sync()

	srv := &api.Server{Log: logger, StaticDir: cfg.Server.StaticDir, MaxBatch: cfg.Server.MaxBatch}
	a, err := artifact.Load(cfg.Artifact.Path)
	if err != nil {
		logger.Error("model not loaded, serving health only", zap.Error(err))
	} else if srv.Predictor, err = inference.New(a); err != nil {
		logger.Error("model rejected", zap.Error(err))
	} else {
		logger.Info("model loaded", zap.String("path", cfg.Artifact.Path), zap.Stringer("params", a.Params),
			zap.Time("created_at", a.CreatedAt))
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	httpSrv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
