package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/pi5trading/order-emulator/internal/circuitbreaker"
	"github.com/pi5trading/order-emulator/internal/domain"
)

// Postgres is the persistent Cache implementation, adapted from the
// teacher's OrdersRepository + timescale.Client: orders are the durable
// boundary this repo recovers from on restart; instruments, synthetics,
// and the latest quote/trade ticks are reference/feed state that doesn't
// need its own table and is kept in memory, populated only through the
// Seed* methods below.
type Postgres struct {
	pool    *pgxpool.Pool
	logger  zerolog.Logger
	breaker *circuitbreaker.CircuitBreaker

	mu          sync.RWMutex
	instruments map[string]Instrument
	synthetics  map[string]Synthetic
	quotes      map[string]domain.QuoteTick
	trades      map[string]domain.TradeTick
}

// NewPostgres wraps an existing pool. cbManager supplies (or creates) the
// "cache" circuit breaker guarding every database round trip, exactly as
// the teacher guards its repositories' calls.
func NewPostgres(pool *pgxpool.Pool, cbManager *circuitbreaker.Manager, logger zerolog.Logger) *Postgres {
	return &Postgres{
		pool:        pool,
		logger:      logger,
		breaker:     cbManager.GetOrCreate("cache", circuitbreaker.DefaultDatabaseConfig()),
		instruments: make(map[string]Instrument),
		synthetics:  make(map[string]Synthetic),
		quotes:      make(map[string]domain.QuoteTick),
		trades:      make(map[string]domain.TradeTick),
	}
}

// InitSchema creates the orders table if absent.
func (p *Postgres) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS emulated_orders (
			client_order_id   VARCHAR(64) PRIMARY KEY,
			position_id       VARCHAR(64),
			client_id         VARCHAR(64),
			strategy_id       VARCHAR(64) NOT NULL,
			status            VARCHAR(20) NOT NULL,
			body              JSONB NOT NULL,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_emulated_orders_status ON emulated_orders(status);
		CREATE INDEX IF NOT EXISTS idx_emulated_orders_strategy ON emulated_orders(strategy_id);
	`
	err := p.breaker.Execute(func() error {
		_, err := p.pool.Exec(ctx, schema)
		return err
	})
	if err != nil {
		return fmt.Errorf("cache: init schema: %w", err)
	}
	p.logger.Info().Msg("cache: schema initialized")
	return nil
}

func (p *Postgres) Order(cid string) (*domain.Order, bool) {
	ctx := context.Background()
	var body []byte
	err := p.breaker.Execute(func() error {
		return p.pool.QueryRow(ctx, `SELECT body FROM emulated_orders WHERE client_order_id = $1`, cid).Scan(&body)
	})
	if err != nil {
		return nil, false
	}
	var order domain.Order
	if err := json.Unmarshal(body, &order); err != nil {
		p.logger.Error().Err(err).Str("client_order_id", cid).Msg("cache: decode order body")
		return nil, false
	}
	return &order, true
}

func (p *Postgres) OrdersEmulated() []*domain.Order {
	ctx := context.Background()
	var rows [][]byte
	err := p.breaker.Execute(func() error {
		r, err := p.pool.Query(ctx, `SELECT body FROM emulated_orders WHERE status IN ('INITIALIZED', 'EMULATED')`)
		if err != nil {
			return err
		}
		defer r.Close()
		for r.Next() {
			var body []byte
			if err := r.Scan(&body); err != nil {
				return err
			}
			rows = append(rows, body)
		}
		return r.Err()
	})
	if err != nil {
		p.logger.Error().Err(err).Msg("cache: query emulated orders")
		return nil
	}
	out := make([]*domain.Order, 0, len(rows))
	for _, body := range rows {
		var order domain.Order
		if err := json.Unmarshal(body, &order); err != nil {
			continue
		}
		out = append(out, &order)
	}
	return out
}

func (p *Postgres) PositionID(cid string) (string, bool) {
	ctx := context.Background()
	var positionID *string
	err := p.breaker.Execute(func() error {
		return p.pool.QueryRow(ctx, `SELECT position_id FROM emulated_orders WHERE client_order_id = $1`, cid).Scan(&positionID)
	})
	if err != nil || positionID == nil {
		return "", false
	}
	return *positionID, true
}

func (p *Postgres) ClientID(cid string) (string, bool) {
	ctx := context.Background()
	var clientID *string
	err := p.breaker.Execute(func() error {
		return p.pool.QueryRow(ctx, `SELECT client_id FROM emulated_orders WHERE client_order_id = $1`, cid).Scan(&clientID)
	})
	if err != nil || clientID == nil {
		return "", false
	}
	return *clientID, true
}

func (p *Postgres) Instrument(iid string) (Instrument, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	inst, ok := p.instruments[iid]
	return inst, ok
}

func (p *Postgres) Synthetic(iid string) (Synthetic, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.synthetics[iid]
	return s, ok
}

func (p *Postgres) OrdersForExecSpawn(spawnID string) []*domain.Order {
	ctx := context.Background()
	var rows [][]byte
	err := p.breaker.Execute(func() error {
		r, err := p.pool.Query(ctx, `SELECT body FROM emulated_orders WHERE body->>'ExecSpawnID' = $1`, spawnID)
		if err != nil {
			return err
		}
		defer r.Close()
		for r.Next() {
			var body []byte
			if err := r.Scan(&body); err != nil {
				return err
			}
			rows = append(rows, body)
		}
		return r.Err()
	})
	if err != nil {
		p.logger.Error().Err(err).Str("exec_spawn_id", spawnID).Msg("cache: query exec spawn group")
		return nil
	}
	out := make([]*domain.Order, 0, len(rows))
	for _, body := range rows {
		var order domain.Order
		if err := json.Unmarshal(body, &order); err != nil {
			continue
		}
		out = append(out, &order)
	}
	return out
}

func (p *Postgres) QuoteTick(iid string) (domain.QuoteTick, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	q, ok := p.quotes[iid]
	return q, ok
}

func (p *Postgres) TradeTick(iid string) (domain.TradeTick, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	t, ok := p.trades[iid]
	return t, ok
}

func (p *Postgres) UpdateOrder(order *domain.Order) error {
	return p.AddOrder(order, "", "", true)
}

func (p *Postgres) AddOrder(order *domain.Order, positionID, clientID string, override bool) error {
	body, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("cache: encode order body: %w", err)
	}

	ctx := context.Background()
	query := `
		INSERT INTO emulated_orders (client_order_id, position_id, client_id, strategy_id, status, body, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (client_order_id) DO UPDATE
		SET position_id = CASE WHEN $8 THEN EXCLUDED.position_id ELSE emulated_orders.position_id END,
			client_id   = CASE WHEN $8 THEN EXCLUDED.client_id   ELSE emulated_orders.client_id   END,
			status      = EXCLUDED.status,
			body        = EXCLUDED.body,
			updated_at  = EXCLUDED.updated_at
	`
	err = p.breaker.Execute(func() error {
		_, err := p.pool.Exec(ctx, query,
			order.ClientOrderID, positionID, clientID, order.StrategyID, order.Status.String(), body, time.Now(), override)
		return err
	})
	if err != nil {
		return fmt.Errorf("cache: upsert order %s: %w", order.ClientOrderID, err)
	}
	return nil
}

// SeedInstrument, SeedSynthetic, SeedQuote, SeedTrade let the bootstrap
// populate reference/feed state ahead of reactivation.
func (p *Postgres) SeedInstrument(inst Instrument) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.instruments[inst.InstrumentID] = inst
}

func (p *Postgres) SeedSynthetic(s Synthetic) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.synthetics[s.InstrumentID] = s
}

func (p *Postgres) SeedQuote(q domain.QuoteTick) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quotes[q.InstrumentID] = q
}

func (p *Postgres) SeedTrade(t domain.TradeTick) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trades[t.InstrumentID] = t
}

// Ping checks connectivity to the backing pool, satisfying
// handlers.Pinger for the admin API's health endpoint.
func (p *Postgres) Ping() error {
	return p.pool.Ping(context.Background())
}

func (p *Postgres) Close() {
	p.pool.Close()
}
