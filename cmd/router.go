package main

import (
	"log/slog"
	"net/http"

	"github.com/NYTimes/gziphandler"

	"github.com/angeloszaimis/proxy-dashboard/internal/handler"
	"github.com/angeloszaimis/proxy-dashboard/internal/metrics"
)

func setupRouter(log *slog.Logger, dashboardHandler *handler.DashboardHandler, statusHandler *handler.StatusHandler, metricsCollector *metrics.Collector) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", dashboardHandler.ServePage)
	mux.HandleFunc(handler.RefreshAction, dashboardHandler.ServeRefresh)
	mux.Handle("/api/status", statusHandler)
	mux.HandleFunc("/metrics", metricsCollector.Handler())

	return handler.WithRequestLogging(log, gziphandler.GzipHandler(mux))
}
