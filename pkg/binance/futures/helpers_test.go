package futures

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"futures-trader/pkg/exchange"
)

// scriptedResponse is one canned transport outcome.
type scriptedResponse struct {
	status int
	body   string
	err    error
}

// capturedRequest records what actually went over the wire.
type capturedRequest struct {
	method string
	url    string
	body   string
	header http.Header
}

// scriptedDoer plays back a fixed sequence of responses and captures every
// request. after, when set, runs once the nth call completes.
type scriptedDoer struct {
	t      *testing.T
	mu     sync.Mutex
	script []scriptedResponse
	reqs   []capturedRequest
	after  func(call int)
}

func (d *scriptedDoer) Do(req *http.Request) (*http.Response, error) {
	d.mu.Lock()

	var body string
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			d.mu.Unlock()
			d.t.Fatalf("read request body: %v", err)
		}
		body = string(b)
	}
	d.reqs = append(d.reqs, capturedRequest{
		method: req.Method,
		url:    req.URL.String(),
		body:   body,
		header: req.Header.Clone(),
	})

	call := len(d.reqs)
	if call > len(d.script) {
		d.mu.Unlock()
		d.t.Fatalf("unexpected request %d: script has %d entries", call, len(d.script))
	}
	s := d.script[call-1]
	after := d.after
	d.mu.Unlock()

	if after != nil {
		defer after(call)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &http.Response{
		StatusCode: s.status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(s.body)),
	}, nil
}

func (d *scriptedDoer) requests() []capturedRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]capturedRequest(nil), d.reqs...)
}

// fakeClock hands out instantly-firing timers and advances its own time by
// each requested wait, so consecutive attempts see different timestamps.
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	waits []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	f.waits = append(f.waits, d)
	f.now = f.now.Add(d)
	now := f.now
	f.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

func (f *fakeClock) recordedWaits() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.waits...)
}

// stuckClock never fires its timers; cancellation tests hang without a
// working ctx path otherwise.
type stuckClock struct{ fakeClock }

func (s *stuckClock) After(d time.Duration) <-chan time.Time {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return make(chan time.Time)
}

// recordingSink captures emitted events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	event  exchange.Event
	fields exchange.Fields
}

func (r *recordingSink) Emit(e exchange.Event, f exchange.Fields) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{event: e, fields: f})
}

func (r *recordingSink) byEvent(e exchange.Event) []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recordedEvent
	for _, ev := range r.events {
		if ev.event == e {
			out = append(out, ev)
		}
	}
	return out
}
