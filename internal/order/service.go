package order

import (
	"context"

	"github.com/shopspring/decimal"

	"futures-trader/pkg/exchange"
)

// Service runs the submission pipeline: validate, assign a client order id,
// submit through the gateway. It holds no state between orders; persistence
// and rendering happen at the edges.
type Service struct {
	gateway exchange.Gateway
	ids     *IDGenerator
	sink    exchange.Sink
}

// NewService wires a Service. A nil sink discards events; a nil ids uses the
// system clock generator.
func NewService(gw exchange.Gateway, ids *IDGenerator, sink exchange.Sink) *Service {
	if sink == nil {
		sink = exchange.NopSink{}
	}
	if ids == nil {
		ids = NewIDGenerator()
	}
	return &Service{gateway: gw, ids: ids, sink: sink}
}

// Prepare validates raw input and assigns the client order id. The id is
// assigned exactly once here; every later transport attempt reuses it.
// Returned errors are always *exchange.Failure.
func (s *Service) Prepare(in Input) (exchange.Order, error) {
	ord, err := Validate(in)
	if err != nil {
		return exchange.Order{}, s.fail(err)
	}

	ord.ClientOrderID = s.ids.NewID()

	s.sink.Emit(exchange.EventOrderValidated, exchange.Fields{
		"symbol":          ord.Symbol,
		"side":            string(ord.Side),
		"type":            string(ord.Type),
		"quantity":        ord.Quantity.String(),
		"price":           priceField(ord.Price),
		"client_order_id": ord.ClientOrderID,
	})
	return ord, nil
}

// Submit sends a prepared order through the gateway. Returned errors are
// always *exchange.Failure.
func (s *Service) Submit(ctx context.Context, ord exchange.Order) (exchange.OrderResult, error) {
	res, err := s.gateway.SubmitOrder(ctx, ord)
	if err != nil {
		return exchange.OrderResult{}, s.fail(err)
	}

	s.sink.Emit(exchange.EventOrderPlaced, exchange.Fields{
		"order_id":        res.OrderID,
		"client_order_id": res.ClientOrderID,
		"status":          string(res.Status),
		"executed_qty":    res.ExecutedQty.String(),
		"avg_price":       priceField(res.AvgPrice),
	})
	return res, nil
}

// Place runs the whole pipeline in one call: Prepare then Submit.
func (s *Service) Place(ctx context.Context, in Input) (exchange.OrderResult, error) {
	ord, err := s.Prepare(in)
	if err != nil {
		return exchange.OrderResult{}, err
	}
	return s.Submit(ctx, ord)
}

// fail normalizes err to a *exchange.Failure and emits the failure event.
func (s *Service) fail(err error) error {
	f, ok := exchange.AsFailure(err)
	if !ok {
		f = exchange.Unexpectedf("%v", err)
	}

	fields := exchange.Fields{
		"kind":    string(f.Kind),
		"message": f.Message,
	}
	if f.StatusCode != 0 {
		fields["status"] = f.StatusCode
	}
	if f.Code != 0 {
		fields["code"] = f.Code
	}
	if f.Attempts > 0 {
		fields["attempts"] = f.Attempts
	}
	s.sink.Emit(exchange.EventOrderFailed, fields)
	return f
}

func priceField(p decimal.NullDecimal) string {
	if !p.Valid {
		return ""
	}
	return p.Decimal.String()
}
