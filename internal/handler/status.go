package handler

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"

	"github.com/angeloszaimis/proxy-dashboard/internal/metrics"
	"github.com/angeloszaimis/proxy-dashboard/internal/status"
)

// StatusHandler serves the checker's status file as JSON.
type StatusHandler struct {
	logger           *slog.Logger
	path             string
	metricsCollector *metrics.Collector
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	snap, err := status.ReadFile(h.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			h.logger.Warn("Status file not found", slog.String("path", h.path))
			h.writeError(w, http.StatusNotFound, "status file not found")
			return
		}

		h.logger.Error("Failed to read status file",
			slog.String("path", h.path),
			slog.Any("err", err))
		h.writeError(w, http.StatusInternalServerError, "failed to read status file: "+err.Error())
		return
	}

	data, err := status.Encode(snap)
	if err != nil {
		h.logger.Error("Failed to encode status", slog.Any("err", err))
		h.writeError(w, http.StatusInternalServerError, "failed to read status file: "+err.Error())
		return
	}

	h.logger.Debug("Serving status",
		slog.String("path", h.path),
		slog.Int("results", len(snap.AllResults)),
		slog.String("size", humanize.Bytes(uint64(len(data)))))

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		w.Write(data)
	}

	h.emit(http.StatusOK)
}

func (h *StatusHandler) writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})

	h.emit(code)
}

func (h *StatusHandler) emit(code int) {
	h.metricsCollector.Emit(metrics.MetricEvent{
		Type:       metrics.EventStatusServed,
		StatusCode: code,
	})
}

// NewStatusHandler returns a handler serving the status file at path.
func NewStatusHandler(logger *slog.Logger, path string, collector *metrics.Collector) *StatusHandler {
	return &StatusHandler{
		logger:           logger,
		path:             path,
		metricsCollector: collector,
	}
}
