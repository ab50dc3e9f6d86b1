package metrics

import (
	"sort"
	"sync"
	"time"
)

const maxLatencySamples = 1000

type Metrics struct {
	mutex       sync.RWMutex
	started     map[string]int64
	succeeded   map[string]int64
	failures    map[string]map[FailureKind]int64
	latencies   map[string][]time.Duration
	statusCodes map[string]map[int]int64
	lastSuccess map[string]time.Time
	lastRows    map[string]int
	served      map[int]int64
	startTime   time.Time
}

type Snapshot struct {
	TotalRefreshes int64                      `json:"total_refreshes"`
	Uptime         time.Duration              `json:"uptime"`
	Endpoints      map[string]EndpointMetrics `json:"endpoints"`
	StatusServed   map[int]int64              `json:"status_served"`
}

type EndpointMetrics struct {
	Started     int64                 `json:"started"`
	Succeeded   int64                 `json:"succeeded"`
	Failed      int64                 `json:"failed"`
	InFlight    int64                 `json:"in_flight"`
	Failures    map[FailureKind]int64 `json:"failures"`
	StatusCodes map[int]int64         `json:"status_codes"`
	AvgLatency  time.Duration         `json:"avg_latency"`
	P50Latency  time.Duration         `json:"p50_latency"`
	P95Latency  time.Duration         `json:"p95_latency"`
	P99Latency  time.Duration         `json:"p99_latency"`
	LastSuccess time.Time             `json:"last_success"`
	LastRows    int                   `json:"last_rows"`
}

func (m *Metrics) RecordStarted(endpoint string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.started[endpoint]++
}

func (m *Metrics) RecordSuccess(endpoint string, duration time.Duration, statusCode int, rows int, at time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.succeeded[endpoint]++
	m.recordLatency(endpoint, duration)
	m.recordStatusCode(endpoint, statusCode)

	if at.After(m.lastSuccess[endpoint]) {
		m.lastSuccess[endpoint] = at
		m.lastRows[endpoint] = rows
	}
}

func (m *Metrics) RecordFailure(endpoint string, duration time.Duration, statusCode int, kind FailureKind) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.failures[endpoint] == nil {
		m.failures[endpoint] = make(map[FailureKind]int64)
	}
	m.failures[endpoint][kind]++
	m.recordLatency(endpoint, duration)
	m.recordStatusCode(endpoint, statusCode)
}

func (m *Metrics) RecordStatusServed(statusCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.served[statusCode]++
}

// caller holds the lock
func (m *Metrics) recordLatency(endpoint string, duration time.Duration) {
	m.latencies[endpoint] = append(m.latencies[endpoint], duration)

	if len(m.latencies[endpoint]) > maxLatencySamples {
		m.latencies[endpoint] = m.latencies[endpoint][1:]
	}
}

// caller holds the lock; zero means no response was received
func (m *Metrics) recordStatusCode(endpoint string, statusCode int) {
	if statusCode == 0 {
		return
	}

	if m.statusCodes[endpoint] == nil {
		m.statusCodes[endpoint] = make(map[int]int64)
	}
	m.statusCodes[endpoint][statusCode]++
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Uptime:       time.Since(m.startTime),
		Endpoints:    make(map[string]EndpointMetrics),
		StatusServed: make(map[int]int64, len(m.served)),
	}

	for code, n := range m.served {
		snap.StatusServed[code] = n
	}

	allEndpoints := make(map[string]bool)
	for endpoint := range m.started {
		allEndpoints[endpoint] = true
	}
	for endpoint := range m.succeeded {
		allEndpoints[endpoint] = true
	}
	for endpoint := range m.failures {
		allEndpoints[endpoint] = true
	}

	for endpoint := range allEndpoints {
		snap.TotalRefreshes += m.started[endpoint]

		em := EndpointMetrics{
			Started:     m.started[endpoint],
			Succeeded:   m.succeeded[endpoint],
			Failures:    make(map[FailureKind]int64),
			StatusCodes: make(map[int]int64),
			LastSuccess: m.lastSuccess[endpoint],
			LastRows:    m.lastRows[endpoint],
		}

		for kind, n := range m.failures[endpoint] {
			em.Failures[kind] = n
			em.Failed += n
		}
		for code, n := range m.statusCodes[endpoint] {
			em.StatusCodes[code] = n
		}

		em.InFlight = max(em.Started-em.Succeeded-em.Failed, 0)

		durations := m.latencies[endpoint]
		if len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			em.AvgLatency = average(sorted)
			em.P50Latency = percentile(sorted, 0.50)
			em.P95Latency = percentile(sorted, 0.95)
			em.P99Latency = percentile(sorted, 0.99)
		}

		snap.Endpoints[endpoint] = em
	}

	return snap
}

func NewMetrics() *Metrics {
	return &Metrics{
		started:     make(map[string]int64),
		succeeded:   make(map[string]int64),
		failures:    make(map[string]map[FailureKind]int64),
		latencies:   make(map[string][]time.Duration),
		statusCodes: make(map[string]map[int]int64),
		lastSuccess: make(map[string]time.Time),
		lastRows:    make(map[string]int),
		served:      make(map[int]int64),
		startTime:   time.Now(),
	}
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
