package checker

import "time"

const ewmaAlpha = 0.2

// latency smooths repeated samples of one proxy with an exponentially
// weighted moving average.
type latency struct {
	value time.Duration
	set   bool
}

func (l *latency) record(d time.Duration) {
	if !l.set {
		l.value = d
		l.set = true
		return
	}
	//ewma = (1 - α) * ewma + α * latest
	l.value = time.Duration((1-ewmaAlpha)*float64(l.value) + ewmaAlpha*float64(d))
}
