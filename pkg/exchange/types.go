package exchange

import "github.com/shopspring/decimal"

// Side denotes order side.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderType denotes supported order types.
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// TimeInForce captures TIF semantics.
type TimeInForce string

const (
	TIFGTC TimeInForce = "GTC" // Good Till Cancelled
	TIFIOC TimeInForce = "IOC" // Immediate Or Cancel
	TIFFOK TimeInForce = "FOK" // Fill Or Kill
	TIFGTX TimeInForce = "GTX" // Post Only / Maker Only
)

// OrderStatus carries the venue-reported status literal. Constants cover the
// statuses Binance futures documents; anything else passes through verbatim.
type OrderStatus string

const (
	StatusNew             OrderStatus = "NEW"
	StatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	StatusFilled          OrderStatus = "FILLED"
	StatusCanceled        OrderStatus = "CANCELED"
	StatusRejected        OrderStatus = "REJECTED"
	StatusExpired         OrderStatus = "EXPIRED"
)

// Order is a validated order intent ready for submission.
type Order struct {
	Symbol        string
	Side          Side
	Type          OrderType
	Quantity      decimal.Decimal
	Price         decimal.NullDecimal // set only for LIMIT
	TimeInForce   TimeInForce         // LIMIT orders only
	ClientOrderID string              // assigned once, stable across retries
}

// OrderResult returns the exchange ack for a placed order.
type OrderResult struct {
	OrderID       int64
	ClientOrderID string
	Symbol        string
	Side          Side
	Type          OrderType
	Status        OrderStatus
	ExecutedQty   decimal.Decimal
	AvgPrice      decimal.NullDecimal // invalid when the venue reported none
}
