package exchange

import "context"

// Gateway submits validated orders to a trading venue.
type Gateway interface {
	SubmitOrder(ctx context.Context, ord Order) (OrderResult, error)
}
