package refresher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angeloszaimis/proxy-dashboard/internal/metrics"
	"github.com/angeloszaimis/proxy-dashboard/internal/status"
	"github.com/angeloszaimis/proxy-dashboard/internal/view"
)

// View is the part of the dashboard a refresh writes to.
type View interface {
	SetUpdateTime(text string)
	SetBestProxy(text string, class view.Class)
	SetBestProxyText(text string)
	ReplaceRows(rows []view.Row)
}

// Refresher re-renders a View from the status endpoint.
type Refresher struct {
	logger           *slog.Logger
	client           *http.Client
	endpoint         string
	view             View
	messages         view.Messages
	metricsCollector *metrics.Collector
}

// Refresh fetches the status snapshot and renders it. On failure the
// summary fields show the "load failed" placeholder, the table is left
// untouched and the error is logged and returned.
func (r *Refresher) Refresh(ctx context.Context) error {
	log := r.logger.With(slog.String("refresh_id", uuid.NewString()))
	start := time.Now()

	r.metricsCollector.Emit(metrics.MetricEvent{
		Type:      metrics.EventRefreshStarted,
		Timestamp: start,
		Endpoint:  r.endpoint,
	})

	snap, statusCode, err := r.fetch(ctx)
	duration := time.Since(start)

	if err != nil {
		r.renderFailure()

		log.Error("Failed to refresh dashboard",
			slog.String("endpoint", r.endpoint),
			slog.Duration("duration", duration),
			slog.Any("err", err))

		r.metricsCollector.Emit(metrics.MetricEvent{
			Type:       metrics.EventRefreshFailed,
			Timestamp:  time.Now(),
			Endpoint:   r.endpoint,
			Duration:   duration,
			StatusCode: statusCode,
			Failure:    failureKind(err),
		})
		return err
	}

	r.render(snap)

	log.Debug("Dashboard refreshed",
		slog.String("endpoint", r.endpoint),
		slog.Int("results", len(snap.AllResults)),
		slog.String("best_proxy", snap.BestURL()),
		slog.Duration("duration", duration))

	r.metricsCollector.Emit(metrics.MetricEvent{
		Type:       metrics.EventRefreshSucceeded,
		Timestamp:  time.Now(),
		Endpoint:   r.endpoint,
		Duration:   duration,
		StatusCode: statusCode,
		Rows:       len(snap.AllResults),
	})
	return nil
}

// Trigger starts a refresh in the background and returns immediately.
// The returned channel is closed once the refresh has written the view.
func (r *Refresher) Trigger(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)
		_ = r.Refresh(ctx)
	}()

	return done
}

// Endpoint returns the status URL this refresher reads.
func (r *Refresher) Endpoint() string {
	return r.endpoint
}

func (r *Refresher) fetch(ctx context.Context) (status.Snapshot, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint, nil)
	if err != nil {
		return status.Snapshot{}, 0, &FetchError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	res, err := r.client.Do(req)
	if err != nil {
		return status.Snapshot{}, 0, &FetchError{Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, res.Body)
		return status.Snapshot{}, res.StatusCode, &FetchError{StatusCode: res.StatusCode}
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return status.Snapshot{}, res.StatusCode, &FetchError{StatusCode: res.StatusCode, Err: err}
	}

	snap, err := status.Decode(raw)
	if err != nil {
		return status.Snapshot{}, res.StatusCode, &ParseError{Err: err}
	}

	return snap, res.StatusCode, nil
}

func failureKind(err error) metrics.FailureKind {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return metrics.FailureParse
	}
	return metrics.FailureFetch
}

// New creates a Refresher. A nil client uses http.DefaultClient and a nil
// collector disables metrics.
func New(logger *slog.Logger, client *http.Client, endpoint string, v View, messages view.Messages, collector *metrics.Collector) *Refresher {
	if client == nil {
		client = http.DefaultClient
	}

	return &Refresher{
		logger:           logger,
		client:           client,
		endpoint:         endpoint,
		view:             v,
		messages:         messages,
		metricsCollector: collector,
	}
}
