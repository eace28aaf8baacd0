// Package report renders operator-facing terminal output: boxed summaries
// of the request, the venue's answer, and failures. Log files carry the
// structured detail; these boxes carry what a human needs at a glance.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"futures-trader/internal/journal"
	"futures-trader/pkg/exchange"
)

const boxWidth = 60

// unexpectedMessage keeps internal error detail out of the terminal.
const unexpectedMessage = "An unexpected error occurred. Check logs for details."

type row struct {
	label string
	value string
}

func box(title string, rows []row) string {
	width := 0
	for _, r := range rows {
		if len(r.label) > width {
			width = len(r.label)
		}
	}

	var b strings.Builder
	rule := strings.Repeat("=", boxWidth)
	b.WriteString(rule)
	b.WriteByte('\n')
	b.WriteString(title)
	b.WriteByte('\n')
	b.WriteString(strings.Repeat("-", boxWidth))
	b.WriteByte('\n')
	for _, r := range rows {
		fmt.Fprintf(&b, "%-*s : %s\n", width, r.label, r.value)
	}
	b.WriteString(rule)
	return b.String()
}

func decimalOrNA(d decimal.NullDecimal) string {
	if !d.Valid {
		return "N/A"
	}
	return d.Decimal.String()
}

// RequestSummary renders the prepared order before submission so the
// operator sees the client order id that will ride every attempt.
func RequestSummary(ord exchange.Order) string {
	return box("ORDER REQUEST SUMMARY", []row{
		{"Symbol", ord.Symbol},
		{"Side", string(ord.Side)},
		{"Order Type", string(ord.Type)},
		{"Quantity", ord.Quantity.String()},
		{"Price", decimalOrNA(ord.Price)},
		{"Client Order ID", ord.ClientOrderID},
	})
}

// Result renders a successful submission.
func Result(res exchange.OrderResult) string {
	return box("ORDER EXECUTION RESULT", []row{
		{"Result", "SUCCESS"},
		{"Order ID", strconv.FormatInt(res.OrderID, 10)},
		{"Client Order ID", res.ClientOrderID},
		{"Status", string(res.Status)},
		{"Executed Qty", res.ExecutedQty.String()},
		{"Average Price", decimalOrNA(res.AvgPrice)},
	})
}

// Failure renders a failed submission. Unexpected failures get a generic
// message; the specifics stay in the log file.
func Failure(f *exchange.Failure) string {
	msg := f.Error()
	if f.Kind == exchange.FailureUnexpected {
		msg = unexpectedMessage
	}

	rows := []row{
		{"Result", "FAILURE"},
		{"Error Type", string(f.Kind) + " ERROR"},
		{"Message", msg},
	}
	if f.Attempts > 1 {
		rows = append(rows, row{"Attempts", strconv.Itoa(f.Attempts)})
	}
	return box("ORDER EXECUTION FAILED", rows)
}

// ConfigError renders a configuration problem detected before the
// pipeline could start.
func ConfigError(err error) string {
	return box("ORDER EXECUTION FAILED", []row{
		{"Result", "FAILURE"},
		{"Error Type", "CONFIGURATION ERROR"},
		{"Message", err.Error()},
	})
}

// Recent renders journal entries, newest first.
func Recent(entries []journal.Entry) string {
	if len(entries) == 0 {
		return "No orders recorded yet."
	}

	var b strings.Builder
	rule := strings.Repeat("=", boxWidth)
	b.WriteString(rule)
	b.WriteByte('\n')
	fmt.Fprintf(&b, "RECENT ORDERS (%d)\n", len(entries))
	b.WriteString(strings.Repeat("-", boxWidth))
	b.WriteByte('\n')

	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}

		desc := fmt.Sprintf("%s %s %s %s", e.Symbol, e.Side, e.Type, e.Quantity)
		if e.Price != "" {
			desc += " @ " + e.Price
		}
		fmt.Fprintf(&b, "%s  %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), desc)

		if e.Succeeded() {
			fmt.Fprintf(&b, "  %s  orderId=%d executedQty=%s", e.Status, e.OrderID, e.ExecutedQty)
			if e.AvgPrice != "" {
				fmt.Fprintf(&b, " avgPrice=%s", e.AvgPrice)
			}
			b.WriteByte('\n')
		} else {
			fmt.Fprintf(&b, "  FAILED (%s)  %s\n", e.FailureKind, e.FailureMessage)
		}
	}
	b.WriteString(rule)
	return b.String()
}
