// Package sqlite provides durable local storage: a write-through cache of
// fetched candles and a journal of emitted decisions.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"neuroforecast/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// StoreConfig configures the SQLite store.
type StoreConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/market.db"
}

// Store is a single-writer SQLite store.
type Store struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// New opens the database with WAL mode and initializes the schema.
func New(cfg StoreConfig) (*Store, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single-writer discipline
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS candles (
			symbol                  TEXT    NOT NULL,
			interval                TEXT    NOT NULL,
			open_time               INTEGER NOT NULL,
			close_time              INTEGER NOT NULL,
			open                    REAL    NOT NULL,
			high                    REAL    NOT NULL,
			low                     REAL    NOT NULL,
			close                   REAL    NOT NULL,
			volume                  REAL,
			quote_volume            REAL,
			trade_count             INTEGER,
			taker_buy_base_volume   REAL,
			taker_buy_quote_volume  REAL,
			PRIMARY KEY (symbol, interval, open_time)
		);

		CREATE TABLE IF NOT EXISTS decisions (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol      TEXT    NOT NULL,
			interval    TEXT    NOT NULL,
			ts          INTEGER NOT NULL,
			position    TEXT    NOT NULL,
			take_profit REAL    NOT NULL,
			stop_loss   REAL    NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_decisions_symbol_ts ON decisions (symbol, ts);
	`)
	return err
}

// SaveCandles upserts a fetched candle batch in one transaction.
func (s *Store) SaveCandles(ctx context.Context, symbol, interval string, candles []model.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO candles
		(symbol, interval, open_time, close_time, open, high, low, close,
		 volume, quote_volume, trade_count, taker_buy_base_volume, taker_buy_quote_volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite: prepare: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.ExecContext(ctx, symbol, interval,
			c.OpenTime, c.CloseTime, c.Open, c.High, c.Low, c.Close,
			c.Volume, c.QuoteVolume, c.TradeCount, c.TakerBuyBaseVolume, c.TakerBuyQuoteVolume); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite: insert candle: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// LoadCandles reads up to limit cached candles with open time at or before
// endTime, ordered chronologically (oldest first).
func (s *Store) LoadCandles(ctx context.Context, symbol, interval string, limit int, endTime time.Time) ([]model.Candle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT open_time, close_time, open, high, low, close,
		       volume, quote_volume, trade_count, taker_buy_base_volume, taker_buy_quote_volume
		FROM candles
		WHERE symbol = ? AND interval = ? AND open_time <= ?
		ORDER BY open_time DESC
		LIMIT ?`, symbol, interval, endTime.UnixMilli(), limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query candles: %w", err)
	}
	defer rows.Close()

	var candles []model.Candle
	for rows.Next() {
		var c model.Candle
		if err := rows.Scan(&c.OpenTime, &c.CloseTime, &c.Open, &c.High, &c.Low, &c.Close,
			&c.Volume, &c.QuoteVolume, &c.TradeCount, &c.TakerBuyBaseVolume, &c.TakerBuyQuoteVolume); err != nil {
			return nil, fmt.Errorf("sqlite: scan candle: %w", err)
		}
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate candles: %w", err)
	}

	// Rows arrive newest-first; flip to chronological order.
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}
	return candles, nil
}

// RecordDecision appends one decision to the journal.
func (s *Store) RecordDecision(ctx context.Context, symbol, interval string, ts time.Time, d model.Decision) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decisions (symbol, interval, ts, position, take_profit, stop_loss)
		VALUES (?, ?, ?, ?, ?, ?)`,
		symbol, interval, ts.UnixMilli(), string(d.Position), d.TakeProfit, d.StopLoss)
	if err != nil {
		return fmt.Errorf("sqlite: record decision: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
