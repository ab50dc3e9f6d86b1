package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angeloszaimis/proxy-dashboard/internal/status"
)

const (
	StatusTimeout    = "error_timeout"
	StatusConnect    = "error_connect"
	StatusBadStatus  = "error_status"
	StatusInvalidURL = "error_invalid_url"
)

// TransportFunc builds the round tripper used to reach the test URL
// through proxy.
type TransportFunc func(proxy *url.URL) http.RoundTripper

// Options configure a Checker.
type Options struct {
	TestURL       string
	Timeout       time.Duration
	SlowThreshold time.Duration
	Concurrency   int
	Samples       int
	Transport     TransportFunc
}

// Checker probes proxies against a test URL.
type Checker struct {
	logger  *slog.Logger
	options Options
	now     func() time.Time
}

// Run checks every proxy and returns the resulting snapshot.
func (c *Checker) Run(ctx context.Context, proxies []string) (status.Snapshot, error) {
	results, err := c.CheckAll(ctx, proxies)
	if err != nil {
		return status.Snapshot{}, err
	}

	snap := status.Snapshot{
		BestProxy:  SelectBest(results),
		AllResults: results,
	}
	snap.Stamp(c.now())

	return snap, nil
}

// CheckAll probes proxies with bounded concurrency. Results keep the order
// of proxies.
func (c *Checker) CheckAll(ctx context.Context, proxies []string) ([]status.ProxyResult, error) {
	results := make([]status.ProxyResult, len(proxies))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(max(c.options.Concurrency, 1))

	for i, proxy := range proxies {
		group.Go(func() error {
			results[i] = c.Check(groupCtx, proxy)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("check interrupted: %w", err)
	}

	return results, nil
}

// Check probes a single proxy. Every sample must succeed; the first
// failing sample decides the result.
func (c *Checker) Check(ctx context.Context, proxy string) status.ProxyResult {
	result := status.ProxyResult{URL: proxy}

	proxyURL, err := url.Parse(proxy)
	if err != nil || proxyURL.Scheme == "" || proxyURL.Host == "" {
		result.Status = StatusInvalidURL
		result.Error = "invalid proxy URL"
		result.Timestamp = c.timestamp()
		return result
	}

	client := &http.Client{
		Timeout:   c.options.Timeout,
		Transport: c.options.Transport(proxyURL),
	}

	var avg latency
	for i := 0; i < max(c.options.Samples, 1); i++ {
		elapsed, err := c.probe(ctx, client)
		if err != nil {
			result.Status = classify(err)
			result.Error = err.Error()
			result.Timestamp = c.timestamp()

			c.logger.Debug("Proxy check failed",
				slog.String("proxy", proxy),
				slog.String("status", result.Status),
				slog.Any("err", err))
			return result
		}
		avg.record(elapsed)
	}

	result.Status = status.StatusOK
	if avg.value > c.options.SlowThreshold {
		result.Status = status.StatusSlow
	}
	result.Delay = status.Millis(avg.value.Milliseconds())
	result.Timestamp = c.timestamp()

	c.logger.Debug("Proxy checked",
		slog.String("proxy", proxy),
		slog.String("status", result.Status),
		slog.Duration("delay", avg.value))

	return result
}

var errUnexpectedResponse = errors.New("unexpected response")

func (c *Checker) probe(ctx context.Context, client *http.Client) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.options.TestURL, nil)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	res, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	n, err := io.Copy(io.Discard, io.LimitReader(res.Body, 1024))
	if err != nil {
		return 0, err
	}
	elapsed := time.Since(start)

	if res.StatusCode != http.StatusNoContent || n > 0 {
		return 0, fmt.Errorf("%w: status %d, %d body bytes", errUnexpectedResponse, res.StatusCode, n)
	}

	return elapsed, nil
}

func classify(err error) string {
	if errors.Is(err, errUnexpectedResponse) {
		return StatusBadStatus
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return StatusTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return StatusTimeout
	}

	return StatusConnect
}

func (c *Checker) timestamp() float64 {
	return float64(c.now().UnixMilli()) / 1000
}

func defaultTransport(proxy *url.URL) http.RoundTripper {
	return &http.Transport{
		Proxy:             http.ProxyURL(proxy),
		DisableKeepAlives: true,
	}
}

// New creates a Checker. Zero Concurrency and Samples mean one, and a nil
// Transport dials through the proxy with a fresh http.Transport.
func New(logger *slog.Logger, options Options) *Checker {
	if options.Transport == nil {
		options.Transport = defaultTransport
	}

	return &Checker{
		logger:  logger,
		options: options,
		now:     time.Now,
	}
}
