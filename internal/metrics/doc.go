// Package metrics provides real-time metrics collection for dashboard refreshes
// and the status API.
//
// It uses a channel-based event pipeline to asynchronously collect:
//   - Refresh counts per status endpoint (started, succeeded, failed)
//   - Failure counts by kind (fetch, parse)
//   - Refresh latencies with percentile calculations (P50, P95, P99)
//   - HTTP status codes returned by the status endpoint
//   - Responses served by the local status API
//
// The collector runs in a dedicated goroutine. Events are sent through a
// buffered channel with non-blocking semantics so a slow collector never
// delays a refresh.
//
// Example usage:
//
//	collector := metrics.NewCollector(100, logger)
//	collector.Start(ctx)
//
//	collector.Emit(metrics.MetricEvent{
//		Type:       metrics.EventRefreshSucceeded,
//		Endpoint:   "http://127.0.0.1:5000/api/status",
//		Duration:   15 * time.Millisecond,
//		StatusCode: 200,
//		Rows:       4,
//	})
//
//	snapshot := collector.Snapshot()
//
// Remaining events are drained on shutdown.
package metrics
