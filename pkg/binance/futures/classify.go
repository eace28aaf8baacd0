package futures

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"futures-trader/pkg/exchange"
)

// fallbackAPIMessage is used when the venue's error payload carries no msg.
const fallbackAPIMessage = "Binance API request failed."

// orderResponse is the venue's ack for POST /fapi/v1/order with
// newOrderRespType=RESULT.
type orderResponse struct {
	OrderID       int64  `json:"orderId"`
	ClientOrderID string `json:"clientOrderId"`
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	Status        string `json:"status"`
	ExecutedQty   string `json:"executedQty"`
	AvgPrice      string `json:"avgPrice"`
}

// parseAPIError decodes the venue's {code, msg} error payload, returning nil
// when the body carries neither.
func parseAPIError(body []byte) *apiError {
	var e apiError
	if err := json.Unmarshal(body, &e); err != nil {
		return nil
	}
	if e.Code == 0 && e.Msg == "" {
		return nil
	}
	return &e
}

// classify turns the terminal transport outcome into a typed order result or
// a *exchange.Failure.
func classify(out attemptOutcome) (exchange.OrderResult, error) {
	switch out.kind {
	case outcomeSuccess:
		return parseOrderResult(out)
	case outcomeFatal:
		return exchange.OrderResult{}, fatalFailure(out)
	default:
		return exchange.OrderResult{}, retryableFailure(out)
	}
}

func parseOrderResult(out attemptOutcome) (exchange.OrderResult, error) {
	var resp orderResponse
	if err := json.Unmarshal(out.payload, &resp); err != nil {
		return exchange.OrderResult{}, &exchange.Failure{
			Kind:       exchange.FailureUnexpected,
			Message:    fmt.Sprintf("malformed order response: %v", err),
			StatusCode: out.status,
			Attempts:   out.attempts,
		}
	}
	if resp.OrderID == 0 || resp.Status == "" {
		return exchange.OrderResult{}, &exchange.Failure{
			Kind:       exchange.FailureUnexpected,
			Message:    "order response missing orderId or status",
			StatusCode: out.status,
			Attempts:   out.attempts,
		}
	}

	executed := decimal.Zero
	if resp.ExecutedQty != "" {
		d, err := decimal.NewFromString(resp.ExecutedQty)
		if err != nil {
			return exchange.OrderResult{}, &exchange.Failure{
				Kind:       exchange.FailureUnexpected,
				Message:    fmt.Sprintf("malformed executedQty %q", resp.ExecutedQty),
				StatusCode: out.status,
				Attempts:   out.attempts,
			}
		}
		executed = d
	}

	avg, err := parseAvgPrice(resp.AvgPrice)
	if err != nil {
		return exchange.OrderResult{}, &exchange.Failure{
			Kind:       exchange.FailureUnexpected,
			Message:    err.Error(),
			StatusCode: out.status,
			Attempts:   out.attempts,
		}
	}

	return exchange.OrderResult{
		OrderID:       resp.OrderID,
		ClientOrderID: resp.ClientOrderID,
		Symbol:        resp.Symbol,
		Side:          exchange.Side(resp.Side),
		Type:          exchange.OrderType(resp.Type),
		Status:        exchange.OrderStatus(resp.Status),
		ExecutedQty:   executed,
		AvgPrice:      avg,
	}, nil
}

// parseAvgPrice maps the venue's avgPrice field to an optional decimal. A
// missing, empty, or zero value means no fill price exists yet and is
// reported as absent rather than 0.
func parseAvgPrice(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("malformed avgPrice %q", s)
	}
	if d.IsZero() {
		return decimal.NullDecimal{}, nil
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

func fatalFailure(out attemptOutcome) *exchange.Failure {
	if out.err != nil {
		// Request construction failed before anything hit the wire.
		f := exchange.Unexpectedf("build request: %v", out.err)
		f.Attempts = out.attempts
		return f
	}
	msg := fallbackAPIMessage
	var code int64
	if out.apiErr != nil {
		code = out.apiErr.Code
		if out.apiErr.Msg != "" {
			msg = out.apiErr.Msg
		}
	}
	return &exchange.Failure{
		Kind:       exchange.FailureAPI,
		Message:    msg,
		StatusCode: out.status,
		Code:       code,
		Attempts:   out.attempts,
	}
}

func retryableFailure(out attemptOutcome) *exchange.Failure {
	if !out.exhausted {
		// Canceled before the retry budget was spent.
		return &exchange.Failure{
			Kind:     exchange.FailureNetwork,
			Message:  fmt.Sprintf("order submission aborted: %v", out.err),
			Attempts: out.attempts,
		}
	}
	if out.err != nil {
		return &exchange.Failure{
			Kind:      exchange.FailureNetwork,
			Message:   fmt.Sprintf("request failed after %d attempts: %v", out.attempts, out.err),
			Attempts:  out.attempts,
			Exhausted: true,
		}
	}
	msg := fallbackAPIMessage
	var code int64
	if out.apiErr != nil {
		code = out.apiErr.Code
		if out.apiErr.Msg != "" {
			msg = out.apiErr.Msg
		}
	}
	return &exchange.Failure{
		Kind:       exchange.FailureAPI,
		Message:    fmt.Sprintf("venue still failing after %d attempts: %s", out.attempts, msg),
		StatusCode: out.status,
		Code:       code,
		Attempts:   out.attempts,
		Exhausted:  true,
	}
}
