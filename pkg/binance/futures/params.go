package futures

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"futures-trader/pkg/exchange"
)

// param is one key/value pair of a request.
type param struct {
	key   string
	value string
}

// paramList keeps parameters in insertion order. The venue signs the exact
// byte string that is transmitted, so encoding must be deterministic and the
// transmitted body must match the signed payload byte for byte.
type paramList []param

func (p *paramList) add(key, value string) {
	*p = append(*p, param{key: key, value: value})
}

// get returns the value for key, or "" when absent.
func (p paramList) get(key string) string {
	for _, kv := range p {
		if kv.key == key {
			return kv.value
		}
	}
	return ""
}

// Encode renders the list url-encoded, preserving insertion order.
func (p paramList) Encode() string {
	var b strings.Builder
	for i, kv := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.value))
	}
	return b.String()
}

// redacted renders the list like Encode but masks the signature value, for
// logging. Credentials and signatures never reach the logs.
func (p paramList) redacted() string {
	var b strings.Builder
	for i, kv := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.key))
		b.WriteByte('=')
		if kv.key == "signature" {
			b.WriteString("***")
		} else {
			b.WriteString(url.QueryEscape(kv.value))
		}
	}
	return b.String()
}

// buildOrderParams assembles the canonical parameter list for
// POST /fapi/v1/order. Field order is fixed; the signature is appended last
// by the caller.
func buildOrderParams(ord exchange.Order, timestamp, recvWindow int64) paramList {
	var p paramList
	p.add("symbol", ord.Symbol)
	p.add("side", string(ord.Side))
	p.add("type", string(ord.Type))
	p.add("quantity", formatDecimal(ord.Quantity))
	if ord.Type == exchange.OrderTypeLimit {
		p.add("price", formatDecimal(ord.Price.Decimal))
		tif := ord.TimeInForce
		if tif == "" {
			tif = exchange.TIFGTC
		}
		p.add("timeInForce", string(tif))
	}
	p.add("newClientOrderId", ord.ClientOrderID)
	p.add("newOrderRespType", "RESULT")
	p.add("timestamp", strconv.FormatInt(timestamp, 10))
	p.add("recvWindow", strconv.FormatInt(recvWindow, 10))
	return p
}

// formatDecimal renders a decimal in plain notation without trailing zeros.
// The venue rejects scientific notation.
func formatDecimal(d decimal.Decimal) string {
	s := d.String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return s
}
