package futures

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"futures-trader/pkg/exchange"
)

const defaultBaseURL = "https://testnet.binancefuture.com"

// Config holds Binance USDT-M futures connection settings.
type Config struct {
	APIKey     string
	APISecret  string
	BaseURL    string        // defaults to the futures testnet
	Timeout    time.Duration // per-attempt HTTP timeout
	MaxRetries int           // retries after the first attempt
	Backoff    time.Duration // base wait, doubled per retry
	RecvWindow int64         // ms
}

// Client submits orders to Binance USDT-M futures. It implements
// exchange.Gateway.
type Client struct {
	cfg      Config
	http     Doer
	limiter  *rate.Limiter
	weights  *exchange.WeightTracker
	timeSync *exchange.TimeSync
	sink     exchange.Sink
	clock    exchange.Clock
}

// Option customizes a Client.
type Option func(*Client)

// WithSink routes lifecycle events to s.
func WithSink(s exchange.Sink) Option {
	return func(c *Client) { c.sink = s }
}

// WithClock substitutes the time source, so tests control timestamps and
// backoff waits.
func WithClock(clk exchange.Clock) Option {
	return func(c *Client) { c.clock = clk }
}

// WithHTTPClient substitutes the HTTP transport.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.http = d }
}

// NewClient creates a USDT-M futures client.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RecvWindow <= 0 {
		cfg.RecvWindow = 5000
	}
	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		weights: exchange.NewWeightTracker(2400, time.Minute), // 2400 weight/min for futures
		limiter: rate.NewLimiter(rate.Limit(5), 5),            // floor against hot-looping retries
		sink:    exchange.NopSink{},
		clock:   exchange.SystemClock{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.timeSync = exchange.NewTimeSync(func(ctx context.Context) (int64, error) {
		return c.GetServerTime(ctx)
	})
	return c
}

// SubmitOrder places an order. The client order id inside ord is carried
// unchanged through every retry; timestamp and signature are rebuilt per
// attempt.
func (c *Client) SubmitOrder(ctx context.Context, ord exchange.Order) (exchange.OrderResult, error) {
	if c.cfg.APIKey == "" || c.cfg.APISecret == "" {
		return exchange.OrderResult{}, exchange.Unexpectedf("binance usdt futures: API key/secret required")
	}
	out := c.send(ctx, http.MethodPost, orderEndpoint, func() paramList {
		p := buildOrderParams(ord, c.now(), c.cfg.RecvWindow)
		p.add("signature", sign(p.Encode(), c.cfg.APISecret))
		return p
	})
	return classify(out)
}

// GetServerTime fetches the venue's clock in unix milliseconds.
func (c *Client) GetServerTime(ctx context.Context) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+serverTimeEndpoint, nil)
	if err != nil {
		return 0, err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return 0, fmt.Errorf("server time status %d: %s", res.StatusCode, string(b))
	}
	var out struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, err
	}
	return out.ServerTime, nil
}

// SyncTime measures the venue clock offset so request timestamps stay inside
// recvWindow on hosts with drifting clocks.
func (c *Client) SyncTime(ctx context.Context) error {
	offset, err := c.timeSync.Sync(ctx)
	if err != nil {
		return err
	}
	c.sink.Emit(exchange.EventTimeSync, exchange.Fields{"offset_ms": offset})
	return nil
}

// now returns the request timestamp in ms, server-adjusted once a time sync
// has run.
func (c *Client) now() int64 {
	if c.timeSync != nil && c.timeSync.Synced() {
		return c.timeSync.Now()
	}
	return c.clock.Now().UnixMilli()
}
