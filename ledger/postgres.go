package ledger

import (
	"context"
	"fmt"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tradeview/tradeview/market"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS trades (
	id      TEXT PRIMARY KEY,
	ts_utc  TIMESTAMPTZ NOT NULL,
	symbol  TEXT NOT NULL,
	side    TEXT NOT NULL CHECK(side IN ('BUY','SELL')),
	qty     NUMERIC NOT NULL CHECK(qty > 0),
	price   NUMERIC NOT NULL CHECK(price >= 0),
	note    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades(ts_utc, id);
`

// Postgres is the shared-deployment trade ledger, for running the dashboard
// backend against a real database instead of a local sqlite file.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dbURL, registers the decimal codec and ensures
// the schema exists.
func OpenPostgres(ctx context.Context, dbURL string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres ledger: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres ledger: %w", err)
	}
	p := &Postgres{pool: pool}
	if err := p.init(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) init(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("init ledger schema: %w", err)
	}
	_, err := p.pool.Exec(ctx, `
		INSERT INTO meta(key,value) VALUES('initial_cash',$1)
		ON CONFLICT (key) DO NOTHING`, DefaultInitialCash.String())
	if err != nil {
		return fmt.Errorf("init initial cash: %w", err)
	}
	return nil
}

// Append writes one trade.
func (p *Postgres) Append(t Trade) error {
	if err := t.Validate(); err != nil {
		return err
	}
	_, err := p.pool.Exec(context.Background(), `
		INSERT INTO trades (id, ts_utc, symbol, side, qty, price, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.Time.UTC(), market.CleanSymbol(t.Symbol), string(t.Side), t.Qty, t.Price, t.Note)
	if err != nil {
		return fmt.Errorf("append trade: %w", err)
	}
	return nil
}

// AllTrades returns the full history in (timestamp, id) ascending order.
func (p *Postgres) AllTrades() ([]Trade, error) {
	rows, err := p.pool.Query(context.Background(), `
		SELECT id, ts_utc, symbol, side, qty, price, note
		FROM trades
		ORDER BY ts_utc ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	defer rows.Close()

	var out []Trade
	for rows.Next() {
		var t Trade
		var side string
		if err := rows.Scan(&t.ID, &t.Time, &t.Symbol, &side, &t.Qty, &t.Price, &t.Note); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.Side = Side(side)
		t.Time = t.Time.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

// InitialCash returns the configured starting cash.
func (p *Postgres) InitialCash() (decimal.Decimal, error) {
	var v string
	err := p.pool.QueryRow(context.Background(),
		`SELECT value FROM meta WHERE key='initial_cash'`).Scan(&v)
	if err == pgx.ErrNoRows {
		return DefaultInitialCash, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("read initial cash: %w", err)
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse initial cash %q: %w", v, err)
	}
	return d, nil
}

// SetInitialCash overwrites the starting cash setting.
func (p *Postgres) SetInitialCash(v decimal.Decimal) error {
	_, err := p.pool.Exec(context.Background(), `
		INSERT INTO meta(key,value) VALUES('initial_cash',$1)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, v.String())
	if err != nil {
		return fmt.Errorf("set initial cash: %w", err)
	}
	return nil
}

// Reset clears all trades and restores the default initial cash.
func (p *Postgres) Reset() error {
	ctx := context.Background()
	if _, err := p.pool.Exec(ctx, `TRUNCATE trades`); err != nil {
		return fmt.Errorf("reset ledger: %w", err)
	}
	return p.SetInitialCash(DefaultInitialCash)
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
