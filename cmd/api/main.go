package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"balancedbag/internal/artifact"
	"balancedbag/internal/config"
	"balancedbag/internal/models"
	"balancedbag/internal/server"
	"balancedbag/pkg/utils"
)

func main() {
	logger := utils.Logger()
	defer logger.Sync()

	cfgPath := flag.String("config", os.Getenv("CONFIG_PATH"), "YAML or TOML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	var model models.Classifier
	threshold := 0.5
	if a, err := artifact.Load(cfg.Model.Path); err != nil {
		logger.Warn("no trained model, using rules", zap.String("path", cfg.Model.Path), zap.Error(err))
	} else {
		if a.Algo != cfg.Model.Algo {
			logger.Warn("artifact algo differs from config", zap.String("artifact", a.Algo), zap.String("config", cfg.Model.Algo))
		}
		model, threshold = a.Model, a.Threshold
		logger.Info("model loaded",
			zap.String("model", a.Model.Name()),
			zap.String("run_id", a.RunID),
			zap.Float64("threshold", a.Threshold),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := server.New(cfg.Server, model, threshold, logger).Run(ctx); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}
