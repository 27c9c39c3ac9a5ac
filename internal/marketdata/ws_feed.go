package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/pi5trading/order-emulator/internal/domain"
)

const (
	pingInterval     = 50 * time.Second
	readTimeout      = 90 * time.Second
	maxReconnectWait = 30 * time.Second
	writeTimeout     = 10 * time.Second
	tickBufferSize   = 256
)

// wireTick is the envelope a feed message is peeked at before full decode.
type wireTick struct {
	TickType     string  `json:"tick_type"` // "quote" or "trade"
	InstrumentID string  `json:"instrument_id"`
	Bid          float64 `json:"bid"`
	Ask          float64 `json:"ask"`
	Price        float64 `json:"price"`
	Size         float64 `json:"size"`
	TsEventNs    int64   `json:"ts_event_ns"`
}

// WSFeed is a reconnecting gorilla/websocket market-data client, grounded
// on the teacher pack's exchange WSFeed: exponential backoff (1s -> 30s),
// a keepalive ping loop, and a read deadline that forces reconnection on a
// silent server. Adapted from order-book/trade events to quote/trade ticks.
type WSFeed struct {
	url  string
	conn *websocket.Conn
	connMu sync.Mutex

	subscribedMu   sync.RWMutex
	quoteSubs      map[string]bool
	tradeSubs      map[string]bool

	quoteCh chan domain.QuoteTick
	tradeCh chan domain.TradeTick

	precision uint8
	logger    zerolog.Logger
}

// NewWSFeed creates a feed dialing wsURL. precision is the fixed-point
// precision used to build Price/Quantity values from the wire's floats.
func NewWSFeed(wsURL string, precision uint8, logger zerolog.Logger) *WSFeed {
	return &WSFeed{
		url:       wsURL,
		quoteSubs: make(map[string]bool),
		tradeSubs: make(map[string]bool),
		quoteCh:   make(chan domain.QuoteTick, tickBufferSize),
		tradeCh:   make(chan domain.TradeTick, tickBufferSize),
		precision: precision,
		logger:    logger.With().Str("component", "marketdata_ws").Logger(),
	}
}

func (f *WSFeed) QuoteTicks() <-chan domain.QuoteTick { return f.quoteCh }
func (f *WSFeed) TradeTicks() <-chan domain.TradeTick { return f.tradeCh }

func (f *WSFeed) SubscribeQuoteTicks(ctx context.Context, instrumentID string) error {
	f.subscribedMu.Lock()
	f.quoteSubs[instrumentID] = true
	f.subscribedMu.Unlock()
	return f.writeJSON(map[string]any{"op": "subscribe_quotes", "instrument_id": instrumentID})
}

func (f *WSFeed) SubscribeTradeTicks(ctx context.Context, instrumentID string) error {
	f.subscribedMu.Lock()
	f.tradeSubs[instrumentID] = true
	f.subscribedMu.Unlock()
	return f.writeJSON(map[string]any{"op": "subscribe_trades", "instrument_id": instrumentID})
}

// Run connects and maintains the connection with auto-reconnect. Blocks
// until ctx is canceled.
func (f *WSFeed) Run(ctx context.Context) error {
	backoff := time.Second

	for {
		err := f.connectAndRead(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		f.logger.Warn().Err(err).Dur("backoff", backoff).Msg("marketdata feed disconnected, reconnecting")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxReconnectWait {
			backoff = maxReconnectWait
		}
	}
}

func (f *WSFeed) Close() error {
	f.connMu.Lock()
	defer f.connMu.Unlock()
	if f.conn != nil {
		return f.conn.Close()
	}
	return nil
}

func (f *WSFeed) connectAndRead(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	f.connMu.Lock()
	f.conn = conn
	f.connMu.Unlock()

	defer func() {
		f.connMu.Lock()
		conn.Close()
		f.conn = nil
		f.connMu.Unlock()
	}()

	if err := f.resubscribeAll(); err != nil {
		return fmt.Errorf("resubscribe: %w", err)
	}

	f.logger.Info().Msg("marketdata feed connected")

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go f.pingLoop(pingCtx)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		f.dispatch(msg)
	}
}

func (f *WSFeed) resubscribeAll() error {
	f.subscribedMu.RLock()
	defer f.subscribedMu.RUnlock()

	for iid := range f.quoteSubs {
		if err := f.writeJSON(map[string]any{"op": "subscribe_quotes", "instrument_id": iid}); err != nil {
			return err
		}
	}
	for iid := range f.tradeSubs {
		if err := f.writeJSON(map[string]any{"op": "subscribe_trades", "instrument_id": iid}); err != nil {
			return err
		}
	}
	return nil
}

func (f *WSFeed) dispatch(data []byte) {
	var tick wireTick
	if err := json.Unmarshal(data, &tick); err != nil {
		f.logger.Debug().Str("data", string(data)).Msg("marketdata feed: ignoring non-json message")
		return
	}

	switch tick.TickType {
	case "quote":
		qt := domain.QuoteTick{
			InstrumentID: tick.InstrumentID,
			Bid:          domain.NewPrice(tick.Bid, f.precision),
			Ask:          domain.NewPrice(tick.Ask, f.precision),
			TsEvent:      tick.TsEventNs,
		}
		select {
		case f.quoteCh <- qt:
		default:
			f.logger.Warn().Str("instrument_id", tick.InstrumentID).Msg("marketdata feed: quote channel full, dropping tick")
		}

	case "trade":
		tt := domain.TradeTick{
			InstrumentID: tick.InstrumentID,
			Price:        domain.NewPrice(tick.Price, f.precision),
			Size:         domain.NewQuantity(tick.Size, 0),
			TsEvent:      tick.TsEventNs,
		}
		select {
		case f.tradeCh <- tt:
		default:
			f.logger.Warn().Str("instrument_id", tick.InstrumentID).Msg("marketdata feed: trade channel full, dropping tick")
		}

	default:
		f.logger.Debug().Str("tick_type", tick.TickType).Msg("marketdata feed: unknown tick type")
	}
}

func (f *WSFeed) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := f.writeMessage(websocket.PingMessage, nil); err != nil {
				f.logger.Warn().Err(err).Msg("marketdata feed: ping failed")
				return
			}
		}
	}
}

func (f *WSFeed) writeJSON(v any) error {
	f.connMu.Lock()
	defer f.connMu.Unlock()
	if f.conn == nil {
		return fmt.Errorf("marketdata feed: not connected")
	}
	f.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return f.conn.WriteJSON(v)
}

func (f *WSFeed) writeMessage(msgType int, data []byte) error {
	f.connMu.Lock()
	defer f.connMu.Unlock()
	if f.conn == nil {
		return fmt.Errorf("marketdata feed: not connected")
	}
	f.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return f.conn.WriteMessage(msgType, data)
}
