package ledger

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/tradeview/tradeview/market"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS trades (
	id      TEXT PRIMARY KEY,
	ts_utc  TEXT NOT NULL,
	symbol  TEXT NOT NULL,
	side    TEXT NOT NULL CHECK(side IN ('BUY','SELL')),
	qty     TEXT NOT NULL,
	price   TEXT NOT NULL,
	note    TEXT
);
CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades(ts_utc, id);
`

// SQLite is the default, file-backed trade ledger.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed initializes) a sqlite ledger at path.
// Use ":memory:" for tests.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite ledger: %w", err)
	}
	s := &SQLite{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) init() error {
	if _, err := s.db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("init ledger schema: %w", err)
	}
	var v string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key='initial_cash'`).Scan(&v)
	if err == sql.ErrNoRows {
		_, err = s.db.Exec(`INSERT INTO meta(key,value) VALUES('initial_cash',?)`,
			DefaultInitialCash.String())
	}
	if err != nil {
		return fmt.Errorf("init initial cash: %w", err)
	}
	return nil
}

// Append writes one trade. Trades are immutable; there is no update path.
func (s *SQLite) Append(t Trade) error {
	if err := t.Validate(); err != nil {
		return err
	}
	_, err := s.db.Exec(`
		INSERT INTO trades (id, ts_utc, symbol, side, qty, price, note)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.Time.UTC().Format(time.RFC3339),
		market.CleanSymbol(t.Symbol),
		string(t.Side),
		t.Qty.String(),
		t.Price.String(),
		t.Note,
	)
	if err != nil {
		return fmt.Errorf("append trade: %w", err)
	}
	return nil
}

// AllTrades returns the full history in (timestamp, id) ascending order.
func (s *SQLite) AllTrades() ([]Trade, error) {
	rows, err := s.db.Query(`
		SELECT id, ts_utc, symbol, side, qty, price, COALESCE(note,'')
		FROM trades
		ORDER BY ts_utc ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	defer rows.Close()

	var out []Trade
	for rows.Next() {
		var t Trade
		var ts, qty, price, side string
		if err := rows.Scan(&t.ID, &ts, &t.Symbol, &side, &qty, &price, &t.Note); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		if t.Time, err = time.Parse(time.RFC3339, ts); err != nil {
			return nil, fmt.Errorf("parse trade time %q: %w", ts, err)
		}
		t.Side = Side(side)
		if t.Qty, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf("parse trade qty %q: %w", qty, err)
		}
		if t.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse trade price %q: %w", price, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// InitialCash returns the configured starting cash.
func (s *SQLite) InitialCash() (decimal.Decimal, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key='initial_cash'`).Scan(&v)
	if err == sql.ErrNoRows {
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
func (s *SQLite) SetInitialCash(v decimal.Decimal) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('initial_cash',?)`,
		v.String())
	if err != nil {
		return fmt.Errorf("set initial cash: %w", err)
	}
	return nil
}

// Reset clears all trades and restores the default initial cash.
func (s *SQLite) Reset() error {
	if _, err := s.db.Exec(`DROP TABLE IF EXISTS trades`); err != nil {
		return fmt.Errorf("reset ledger: %w", err)
	}
	if _, err := s.db.Exec(`DROP TABLE IF EXISTS meta`); err != nil {
		return fmt.Errorf("reset ledger: %w", err)
	}
	return s.init()
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
