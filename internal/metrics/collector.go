package metrics

import (
	"context"
	"log/slog"
	"time"
)

type EventType string

const (
	EventRefreshStarted   EventType = "refresh_started"
	EventRefreshSucceeded EventType = "refresh_succeeded"
	EventRefreshFailed    EventType = "refresh_failed"
	EventStatusServed     EventType = "status_served"
)

// FailureKind tells fetch failures from parse failures.
type FailureKind string

const (
	FailureFetch FailureKind = "fetch"
	FailureParse FailureKind = "parse"
)

type MetricEvent struct {
	Type       EventType
	Timestamp  time.Time
	Endpoint   string
	Duration   time.Duration
	StatusCode int
	Rows       int
	Failure    FailureKind
}

type Collector struct {
	eventCh chan MetricEvent
	metrics *Metrics
	logger  *slog.Logger
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan MetricEvent, bufferSize),
		metrics: NewMetrics(),
		logger:  logger,
	}
}

// Emit queues an event without blocking. Events are dropped when the
// buffer is full. A nil collector ignores every event.
func (c *Collector) Emit(event MetricEvent) {
	if c == nil {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case c.eventCh <- event:
	default:
		c.logger.Debug("Metrics buffer full, dropping event", slog.String("type", string(event.Type)))
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventRefreshStarted:
		c.metrics.RecordStarted(event.Endpoint)

	case EventRefreshSucceeded:
		c.metrics.RecordSuccess(event.Endpoint, event.Duration, event.StatusCode, event.Rows, event.Timestamp)

	case EventRefreshFailed:
		c.metrics.RecordFailure(event.Endpoint, event.Duration, event.StatusCode, event.Failure)

	case EventStatusServed:
		c.metrics.RecordStatusServed(event.StatusCode)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot() Snapshot {
	return c.metrics.Snapshot()
}
