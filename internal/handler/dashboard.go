package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"

	"github.com/angeloszaimis/proxy-dashboard/internal/view"
)

// RefreshAction is the path the refresh control posts to.
const RefreshAction = "/refresh"

// Refresher runs one refresh cycle against the shared view.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// PageSource yields a consistent copy of the current view.
type PageSource interface {
	Page() view.Page
}

// DashboardHandler renders the dashboard page and handles its refresh
// control.
type DashboardHandler struct {
	logger    *slog.Logger
	pages     PageSource
	refresher Refresher
}

// ServePage refreshes the view and renders it. Every page load is one
// refresh trigger; a failed refresh still renders, showing the failure.
func (h *DashboardHandler) ServePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.Method == http.MethodGet {
		h.refresh(r, "Page load refresh failed")
	}

	h.render(w, r)
}

// ServeRefresh is the refresh control. It runs one refresh and answers
// with the page, so the click is not followed by a second page-load
// refresh.
func (h *DashboardHandler) ServeRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.refresh(r, "Manual refresh failed")
	h.render(w, r)
}

// refresh outlives the request: the view is shared, so a browser that
// disconnects mid-fetch must not leave "load failed" for everyone else.
func (h *DashboardHandler) refresh(r *http.Request, failure string) {
	if err := h.refresher.Refresh(context.WithoutCancel(r.Context())); err != nil {
		h.logger.Debug(failure, slog.Any("err", err))
	}
}

func (h *DashboardHandler) render(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := view.RenderHTML(&buf, h.pages.Page(), RefreshAction); err != nil {
		h.logger.Error("Failed to render dashboard", slog.Any("err", err))
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		w.Write(buf.Bytes())
	}
}

func NewDashboardHandler(logger *slog.Logger, pages PageSource, refresher Refresher) *DashboardHandler {
	return &DashboardHandler{
		logger:    logger,
		pages:     pages,
		refresher: refresher,
	}
}
