package checker

import "github.com/angeloszaimis/proxy-dashboard/internal/status"

// SelectBest returns the "ok" result with the lowest delay. Ties keep the
// earlier result. It returns nil when no result qualifies.
func SelectBest(results []status.ProxyResult) *status.ProxyResult {
	var chosen *status.ProxyResult
	var best float64

	for i := range results {
		r := results[i]
		if r.Status != status.StatusOK {
			continue
		}

		delay, ok := r.Delay.Millis()
		if !ok {
			continue
		}

		if chosen == nil || delay < best {
			chosen = &r
			best = delay
		}
	}

	return chosen
}
