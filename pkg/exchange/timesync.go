package exchange

import (
	"context"
	"sync"
	"time"
)

// TimeSync tracks the offset between the venue's clock and the local clock
// so request timestamps land inside the venue's recvWindow.
type TimeSync struct {
	fetch    func(ctx context.Context) (int64, error)
	offset   int64 // milliseconds (server - local)
	lastSync time.Time
	mu       sync.RWMutex
}

// NewTimeSync creates a time sync backed by fetch, which returns the venue's
// current time in unix milliseconds.
func NewTimeSync(fetch func(ctx context.Context) (int64, error)) *TimeSync {
	return &TimeSync{fetch: fetch}
}

// Sync measures the clock offset and returns it in milliseconds.
func (ts *TimeSync) Sync(ctx context.Context) (int64, error) {
	localBefore := time.Now().UnixMilli()
	serverTime, err := ts.fetch(ctx)
	if err != nil {
		return 0, err
	}
	localAfter := time.Now().UnixMilli()

	// Assume network latency is symmetric
	latency := (localAfter - localBefore) / 2
	localTime := localBefore + latency

	ts.mu.Lock()
	ts.offset = serverTime - localTime
	ts.lastSync = time.Now()
	offset := ts.offset
	ts.mu.Unlock()

	return offset, nil
}

// Synced reports whether at least one sync has completed.
func (ts *TimeSync) Synced() bool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return !ts.lastSync.IsZero()
}

// Now returns the current time in unix milliseconds adjusted for the
// measured server offset.
func (ts *TimeSync) Now() int64 {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return time.Now().UnixMilli() + ts.offset
}

// Offset returns the measured offset in milliseconds.
func (ts *TimeSync) Offset() int64 {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.offset
}
