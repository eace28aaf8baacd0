package order

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"futures-trader/pkg/exchange"
)

// Input carries raw order fields as entered on the command line.
type Input struct {
	Symbol   string
	Side     string
	Type     string
	Quantity string
	Price    string
}

var symbolPattern = regexp.MustCompile(`^[A-Z0-9]{5,20}$`)

// Validate normalizes and checks in, returning a submission-ready order.
// Errors are *exchange.Failure with kind VALIDATION. Nothing may reach the
// network when validation fails.
func Validate(in Input) (exchange.Order, error) {
	var ord exchange.Order

	symbol := strings.ToUpper(strings.TrimSpace(in.Symbol))
	if symbol == "" {
		return ord, exchange.Validationf("symbol is required")
	}
	if !symbolPattern.MatchString(symbol) {
		return ord, exchange.Validationf("invalid symbol %q: use uppercase symbols like BTCUSDT", in.Symbol)
	}

	side := exchange.Side(strings.ToUpper(strings.TrimSpace(in.Side)))
	if side != exchange.SideBuy && side != exchange.SideSell {
		return ord, exchange.Validationf("invalid side %q: allowed values are BUY or SELL", in.Side)
	}

	typ := exchange.OrderType(strings.ToUpper(strings.TrimSpace(in.Type)))
	if typ != exchange.OrderTypeMarket && typ != exchange.OrderTypeLimit {
		return ord, exchange.Validationf("invalid order type %q: allowed values are MARKET or LIMIT", in.Type)
	}

	qty, err := parsePositive("quantity", in.Quantity)
	if err != nil {
		return ord, err
	}

	var price decimal.NullDecimal
	hasPrice := strings.TrimSpace(in.Price) != ""
	switch {
	case typ == exchange.OrderTypeLimit && !hasPrice:
		return ord, exchange.Validationf("price is required for LIMIT orders")
	case typ != exchange.OrderTypeLimit && hasPrice:
		return ord, exchange.Validationf("price is only allowed for LIMIT orders")
	case hasPrice:
		p, err := parsePositive("price", in.Price)
		if err != nil {
			return ord, err
		}
		price = decimal.NullDecimal{Decimal: p, Valid: true}
	}

	ord = exchange.Order{
		Symbol:   symbol,
		Side:     side,
		Type:     typ,
		Quantity: qty,
		Price:    price,
	}
	if typ == exchange.OrderTypeLimit {
		ord.TimeInForce = exchange.TIFGTC
	}
	return ord, nil
}

func parsePositive(field, raw string) (decimal.Decimal, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return decimal.Decimal{}, exchange.Validationf("%s is required", field)
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, exchange.Validationf("invalid %s %q: must be a numeric value", field, raw)
	}
	if d.Sign() <= 0 {
		return decimal.Decimal{}, exchange.Validationf("%s must be greater than 0", field)
	}
	return d, nil
}
