package emulator

import "errors"

// Named error kinds from the error handling design. Recoverable
// conditions (everything here except the two Invalid* exhaustiveness
// guards, which the caller should never be able to trigger) resolve to a
// logged message and a local cancel or no-op; they are never returned to
// an external caller.
var (
	ErrUnsupportedTrigger       = errors.New("emulator: unsupported emulation trigger")
	ErrUnknownInstrument        = errors.New("emulator: unknown instrument or synthetic")
	ErrUnknownOrder             = errors.New("emulator: unknown order")
	ErrDuplicateMatchingCore    = errors.New("emulator: matching core already exists for instrument")
	ErrInvalidOrderSide         = errors.New("emulator: invalid order side")
	ErrInvalidOrderType         = errors.New("emulator: invalid order type")
	ErrMissingCommandCacheEntry = errors.New("emulator: missing command cache entry")
	ErrInsufficientMarketData   = errors.New("emulator: insufficient market data for trailing stop")
	ErrMissingParentOrder       = errors.New("emulator: missing parent order")
)
