package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"carprice/config"
	"carprice/pkg/collector"
	"carprice/pkg/logger"
	"carprice/pkg/predict"
	"carprice/pkg/view"
	"carprice/router"

	// Estimate
	estimateCtrlImp "carprice/pkg/estimate/controllerImp"
	estimateSvcImp "carprice/pkg/estimate/serviceImp"

	// Health
	healthCtrlImp "carprice/pkg/health/controllerImp"
)

func main() {
	// 1) Config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// 2) Logging
	logger.Setup(cfg.LogLevel, cfg.LogFormat)
	slog.Info("config loaded",
		"port", cfg.Port,
		"predict_url", cfg.PredictURL,
		"predict_timeout", cfg.PredictTimeout,
		"reference_year", cfg.ReferenceYear,
		"min_year", cfg.MinYear,
		"max_year", cfg.MaxYear,
		"strict_input", cfg.StrictInput,
	)

	// 3) Prediction client + estimate service
	client := predict.NewHTTP(cfg.PredictURL, cfg.PredictTimeout)
	col := collector.New(cfg.MinYear, cfg.MaxYear, cfg.StrictInput)
	svc := estimateSvcImp.New(col, client, cfg.ReferenceYear)
	slog.Info("prediction backend", "client", client.String())

	// 4) Echo
	renderer, err := view.New()
	if err != nil {
		slog.Error("templates", "error", err)
		os.Exit(1)
	}
	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer
	e.Use(echoMiddleware.Recover())

	// 5) Controllers + router
	estCtrl := estimateCtrlImp.New(svc, cfg.ShowEngineered)
	hCtrl := healthCtrlImp.NewHealthCtrl(client.Endpoint())
	r := router.New(e, estCtrl, hCtrl)

	// 6) Start
	slog.Info("listening", "addr", ":"+cfg.Port)
	if err := r.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
