package order

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"futures-trader/pkg/exchange"
)

const clientIDPrefix = "ft"

// IDGenerator mints client order ids of the form ft_<unix-millis>_<8 hex>.
// An id is assigned exactly once per logical order and rides every retry
// unchanged, which is what lets the venue deduplicate resubmissions.
type IDGenerator struct {
	clock exchange.Clock
}

// NewIDGenerator returns a generator on the system clock.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{clock: exchange.SystemClock{}}
}

// NewIDGeneratorWithClock returns a generator with an injected time source.
func NewIDGeneratorWithClock(clk exchange.Clock) *IDGenerator {
	return &IDGenerator{clock: clk}
}

// NewID returns a fresh client order id.
func (g *IDGenerator) NewID() string {
	u := uuid.New()
	return fmt.Sprintf("%s_%d_%s", clientIDPrefix, g.clock.Now().UnixMilli(), hex.EncodeToString(u[:4]))
}
