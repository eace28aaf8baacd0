package exchange

import (
	"strconv"
	"sync"
	"time"
)

// Usage is a snapshot of request-weight consumption.
type Usage struct {
	Used  int
	Limit int
}

// Pct returns the consumed share of the weight budget in percent.
func (u Usage) Pct() float64 {
	if u.Limit <= 0 {
		return 0
	}
	return float64(u.Used) / float64(u.Limit) * 100
}

// Warning reports whether usage is close enough to the limit to care.
func (u Usage) Warning() bool { return u.Pct() >= 80 }

// Critical reports whether usage is approaching the venue's ban threshold.
func (u Usage) Critical() bool { return u.Pct() >= 95 }

// WeightTracker tracks the venue's reported request-weight usage.
type WeightTracker struct {
	used          int
	limit         int
	lastReset     time.Time
	resetInterval time.Duration
	mu            sync.RWMutex
}

// NewWeightTracker creates a tracker for a weight budget.
// limit: maximum weight allowed (2400/min for USDT futures)
// resetInterval: the venue's accounting window
func NewWeightTracker(limit int, resetInterval time.Duration) *WeightTracker {
	return &WeightTracker{
		limit:         limit,
		resetInterval: resetInterval,
		lastReset:     time.Now(),
	}
}

// Update records the used weight reported in a response header and returns
// the resulting usage. Blank or unparsable values leave the tracker as is.
func (wt *WeightTracker) Update(headerValue string) Usage {
	if headerValue == "" {
		return wt.Usage()
	}

	weight, err := strconv.Atoi(headerValue)
	if err != nil {
		return wt.Usage()
	}

	wt.mu.Lock()
	defer wt.mu.Unlock()

	if time.Since(wt.lastReset) >= wt.resetInterval {
		wt.used = 0
		wt.lastReset = time.Now()
	}

	wt.used = weight
	return Usage{Used: wt.used, Limit: wt.limit}
}

// Usage returns the current usage snapshot.
func (wt *WeightTracker) Usage() Usage {
	wt.mu.RLock()
	defer wt.mu.RUnlock()

	if time.Since(wt.lastReset) >= wt.resetInterval {
		return Usage{Used: 0, Limit: wt.limit}
	}
	return Usage{Used: wt.used, Limit: wt.limit}
}
