package checker

import (
	"context"
	"log/slog"
	"time"

	"github.com/angeloszaimis/proxy-dashboard/internal/status"
)

// LoadFunc returns the proxies to check in the next pass.
type LoadFunc func() ([]string, error)

// PublishFunc stores the snapshot produced by a pass.
type PublishFunc func(status.Snapshot) error

// Pass loads the proxy list, checks it and publishes the snapshot.
func (c *Checker) Pass(ctx context.Context, load LoadFunc, publish PublishFunc) (status.Snapshot, error) {
	proxies, err := load()
	if err != nil {
		return status.Snapshot{}, err
	}

	if len(proxies) == 0 {
		c.logger.Warn("No proxies configured")
	}

	snap, err := c.Run(ctx, proxies)
	if err != nil {
		return status.Snapshot{}, err
	}

	if err := publish(snap); err != nil {
		return status.Snapshot{}, err
	}

	c.logger.Info("Proxy check completed",
		slog.Int("proxies", len(snap.AllResults)),
		slog.String("best", snap.BestURL()))

	return snap, nil
}

// Loop runs a pass immediately and then once per interval until ctx is
// done. A failed pass is logged and retried on the next tick. The proxy
// list is reloaded for every pass.
func (c *Checker) Loop(ctx context.Context, interval time.Duration, load LoadFunc, publish PublishFunc) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := c.Pass(ctx, load, publish); err != nil && ctx.Err() == nil {
			c.logger.Error("Proxy check failed", slog.Any("err", err))
		}

		select {
		case <-ctx.Done():
			c.logger.Info("Proxy checks stopped")
			return

		case <-ticker.C:
		}
	}
}
