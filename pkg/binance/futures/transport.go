package futures

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"futures-trader/pkg/exchange"
)

const (
	orderEndpoint      = "/fapi/v1/order"
	serverTimeEndpoint = "/fapi/v1/time"
	usedWeightHeader   = "X-MBX-USED-WEIGHT-1M"

	// maxBackoff caps the exponential schedule for pathologically large
	// retry budgets or base delays.
	maxBackoff = 30 * time.Second
)

// Doer issues a single HTTP request. *http.Client satisfies it; tests
// substitute scripted implementations.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// outcomeKind classifies a single attempt.
type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	outcomeRetryable
	outcomeFatal
)

// apiError is the venue's error payload.
type apiError struct {
	Code int64  `json:"code"`
	Msg  string `json:"msg"`
}

// attemptOutcome carries the terminal state of the retry loop.
type attemptOutcome struct {
	kind      outcomeKind
	status    int       // HTTP status, 0 for transport-level failures
	payload   []byte    // raw response body
	err       error     // transport-level error, nil for HTTP outcomes
	apiErr    *apiError // parsed error payload when one was present
	attempts  int
	exhausted bool // the retry budget was spent
}

// reason summarizes why an attempt did not succeed.
func (o attemptOutcome) reason() string {
	switch {
	case o.err != nil:
		return o.err.Error()
	case o.apiErr != nil:
		return fmt.Sprintf("status %d code %d: %s", o.status, o.apiErr.Code, o.apiErr.Msg)
	default:
		return fmt.Sprintf("status %d", o.status)
	}
}

// sendState tracks the retry loop.
type sendState int

const (
	stateAttempting sendState = iota
	stateWaiting
	stateSucceeded
	stateExhausted
	stateFatal
)

// send drives the retry state machine for one signed request. build runs
// once per attempt so each attempt carries a fresh timestamp and signature
// around the same client order id. MaxRetries counts retries after the first
// attempt: MaxRetries=3 means at most 4 attempts.
func (c *Client) send(ctx context.Context, method, path string, build func() paramList) attemptOutcome {
	var out attemptOutcome
	attempt := 1
	state := stateAttempting
	for {
		switch state {
		case stateAttempting:
			out = c.attempt(ctx, method, path, attempt, build())
			switch {
			case out.kind == outcomeSuccess:
				state = stateSucceeded
			case out.kind == outcomeFatal:
				state = stateFatal
			case out.err != nil && ctx.Err() != nil:
				// Canceled mid-attempt. No further attempt may run.
				out.attempts = attempt
				return out
			case attempt <= c.cfg.MaxRetries:
				state = stateWaiting
			default:
				state = stateExhausted
			}
		case stateWaiting:
			wait := backoffFor(c.cfg.Backoff, attempt)
			c.sink.Emit(exchange.EventRetryWait, exchange.Fields{
				"attempt": attempt,
				"wait":    wait.String(),
				"reason":  out.reason(),
			})
			if err := c.sleepFor(ctx, wait); err != nil {
				out.err = err
				out.attempts = attempt
				return out
			}
			attempt++
			state = stateAttempting
		case stateSucceeded, stateFatal:
			out.attempts = attempt
			return out
		case stateExhausted:
			out.attempts = attempt
			out.exhausted = true
			return out
		}
	}
}

// attempt performs one HTTP exchange and classifies it as success,
// retryable, or fatal.
func (c *Client) attempt(ctx context.Context, method, path string, n int, params paramList) attemptOutcome {
	if err := c.limiter.Wait(ctx); err != nil {
		return attemptOutcome{kind: outcomeRetryable, err: err}
	}

	c.sink.Emit(exchange.EventAPIRequest, exchange.Fields{
		"method":   method,
		"endpoint": path,
		"attempt":  n,
		"params":   params.redacted(),
	})

	encoded := params.Encode()
	var (
		req *http.Request
		err error
	)
	switch method {
	case http.MethodGet, http.MethodDelete:
		req, err = http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path+"?"+encoded, nil)
	default:
		req, err = http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, strings.NewReader(encoded))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return attemptOutcome{kind: outcomeFatal, err: err}
	}
	req.Header.Set("X-MBX-APIKEY", c.cfg.APIKey)

	res, err := c.http.Do(req)
	if err != nil {
		c.sink.Emit(exchange.EventNetworkFailure, exchange.Fields{
			"attempt": n,
			"error":   err.Error(),
		})
		return attemptOutcome{kind: outcomeRetryable, err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		// The response was cut off mid-body. Retrying is safe: the venue
		// dedupes on the client order id.
		c.sink.Emit(exchange.EventNetworkFailure, exchange.Fields{
			"attempt": n,
			"error":   err.Error(),
		})
		return attemptOutcome{kind: outcomeRetryable, err: err}
	}

	usage := c.weights.Update(res.Header.Get(usedWeightHeader))
	if usage.Warning() {
		c.sink.Emit(exchange.EventRateLimit, exchange.Fields{
			"used":  usage.Used,
			"limit": usage.Limit,
		})
	}

	c.sink.Emit(exchange.EventAPIResponse, exchange.Fields{
		"attempt": n,
		"status":  res.StatusCode,
		"payload": string(body),
	})

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		return attemptOutcome{kind: outcomeSuccess, status: res.StatusCode, payload: body}
	case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500:
		return attemptOutcome{kind: outcomeRetryable, status: res.StatusCode, payload: body, apiErr: parseAPIError(body)}
	default:
		return attemptOutcome{kind: outcomeFatal, status: res.StatusCode, payload: body, apiErr: parseAPIError(body)}
	}
}

// sleepFor waits d or until ctx is canceled.
func (c *Client) sleepFor(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.After(d):
		return nil
	}
}

// backoffFor returns the wait after failed attempt n: base, 2*base, 4*base,
// capped at maxBackoff.
func backoffFor(base time.Duration, n int) time.Duration {
	if base <= 0 {
		return 0
	}
	if n > 30 {
		return maxBackoff
	}
	d := base * time.Duration(1<<(n-1))
	if d > maxBackoff || d <= 0 {
		return maxBackoff
	}
	return d
}
