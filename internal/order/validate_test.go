package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"futures-trader/pkg/exchange"
)

func TestValidateMarketOrder(t *testing.T) {
	ord, err := Validate(Input{
		Symbol:   " btcusdt ",
		Side:     "buy",
		Type:     "market",
		Quantity: "0.001",
	})
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", ord.Symbol)
	assert.Equal(t, exchange.SideBuy, ord.Side)
	assert.Equal(t, exchange.OrderTypeMarket, ord.Type)
	assert.Equal(t, "0.001", ord.Quantity.String())
	assert.False(t, ord.Price.Valid)
	assert.Empty(t, ord.TimeInForce)
	assert.Empty(t, ord.ClientOrderID)
}

func TestValidateLimitOrder(t *testing.T) {
	ord, err := Validate(Input{
		Symbol:   "ethusdt",
		Side:     "SELL",
		Type:     "limit",
		Quantity: "0.5",
		Price:    "3150.10",
	})
	require.NoError(t, err)

	assert.Equal(t, exchange.OrderTypeLimit, ord.Type)
	require.True(t, ord.Price.Valid)
	assert.True(t, ord.Price.Decimal.Equal(mustDecimal(t, "3150.10")))
	assert.Equal(t, exchange.TIFGTC, ord.TimeInForce)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		in      Input
		wantMsg string
	}{
		{
			name:    "missing symbol",
			in:      Input{Side: "BUY", Type: "MARKET", Quantity: "1"},
			wantMsg: "symbol is required",
		},
		{
			name:    "symbol too short",
			in:      Input{Symbol: "BTC", Side: "BUY", Type: "MARKET", Quantity: "1"},
			wantMsg: "invalid symbol",
		},
		{
			name:    "symbol with punctuation",
			in:      Input{Symbol: "BTC-USDT", Side: "BUY", Type: "MARKET", Quantity: "1"},
			wantMsg: "invalid symbol",
		},
		{
			name:    "bad side",
			in:      Input{Symbol: "BTCUSDT", Side: "HOLD", Type: "MARKET", Quantity: "1"},
			wantMsg: "allowed values are BUY or SELL",
		},
		{
			name:    "bad type",
			in:      Input{Symbol: "BTCUSDT", Side: "BUY", Type: "STOP", Quantity: "1"},
			wantMsg: "allowed values are MARKET or LIMIT",
		},
		{
			name:    "missing quantity",
			in:      Input{Symbol: "BTCUSDT", Side: "BUY", Type: "MARKET"},
			wantMsg: "quantity is required",
		},
		{
			name:    "quantity not numeric",
			in:      Input{Symbol: "BTCUSDT", Side: "BUY", Type: "MARKET", Quantity: "lots"},
			wantMsg: "must be a numeric value",
		},
		{
			name:    "quantity zero",
			in:      Input{Symbol: "BTCUSDT", Side: "BUY", Type: "MARKET", Quantity: "0"},
			wantMsg: "quantity must be greater than 0",
		},
		{
			name:    "quantity negative",
			in:      Input{Symbol: "BTCUSDT", Side: "BUY", Type: "MARKET", Quantity: "-0.5"},
			wantMsg: "quantity must be greater than 0",
		},
		{
			name:    "limit without price",
			in:      Input{Symbol: "BTCUSDT", Side: "BUY", Type: "LIMIT", Quantity: "1"},
			wantMsg: "price is required for LIMIT orders",
		},
		{
			name:    "market with price",
			in:      Input{Symbol: "BTCUSDT", Side: "BUY", Type: "MARKET", Quantity: "1", Price: "60000"},
			wantMsg: "price is only allowed for LIMIT orders",
		},
		{
			name:    "price not numeric",
			in:      Input{Symbol: "BTCUSDT", Side: "BUY", Type: "LIMIT", Quantity: "1", Price: "cheap"},
			wantMsg: "must be a numeric value",
		},
		{
			name:    "price zero",
			in:      Input{Symbol: "BTCUSDT", Side: "BUY", Type: "LIMIT", Quantity: "1", Price: "0"},
			wantMsg: "price must be greater than 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.in)
			require.Error(t, err)

			f, ok := exchange.AsFailure(err)
			require.True(t, ok, "error should be *exchange.Failure, got %T", err)
			assert.Equal(t, exchange.FailureValidation, f.Kind)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
