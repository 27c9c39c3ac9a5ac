// Package marketdata is the market-data collaborator: subscribe by
// instrument, receive quote/trade ticks on a channel. The emulator is
// specified as a pure consumer of pushes (on_quote_tick/on_trade_tick); it
// never owns connection lifecycle, matching spec §6's "explicitly a
// collaborator" framing.
package marketdata

import (
	"context"

	"github.com/pi5trading/order-emulator/internal/domain"
)

// Feed is the subscription surface spec'd for the emulator.
type Feed interface {
	SubscribeQuoteTicks(ctx context.Context, instrumentID string) error
	SubscribeTradeTicks(ctx context.Context, instrumentID string) error
	QuoteTicks() <-chan domain.QuoteTick
	TradeTicks() <-chan domain.TradeTick
	Run(ctx context.Context) error
	Close() error
}
