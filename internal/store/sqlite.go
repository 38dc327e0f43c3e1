package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"outcome-trader/internal/backtest"
	apperrors "outcome-trader/internal/errors"
	"outcome-trader/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Run headers with the flattened performance summary
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		bot_id TEXT NOT NULL,
		market_id TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		completed_at DATETIME NOT NULL,
		ticks_replayed INTEGER NOT NULL,
		halted INTEGER DEFAULT 0,
		halt_reason TEXT,
		initial_balance REAL NOT NULL,
		final_balance REAL NOT NULL,
		total_return REAL NOT NULL,
		total_return_pct REAL NOT NULL,
		total_trades INTEGER NOT NULL,
		winning_trades INTEGER NOT NULL,
		losing_trades INTEGER NOT NULL,
		win_rate REAL NOT NULL,
		profit_factor REAL NOT NULL,
		sharpe_ratio REAL,
		max_drawdown_pct REAL NOT NULL,
		avg_win REAL NOT NULL,
		avg_loss REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Closed trades per run. Prices and sizes are stored as decimal strings
	-- to keep the venue quantization exact.
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		order_id TEXT NOT NULL,
		bot_id TEXT NOT NULL,
		market_id TEXT NOT NULL,
		side TEXT NOT NULL,
		size TEXT NOT NULL,
		entry_price TEXT NOT NULL,
		exit_price TEXT NOT NULL,
		zone INTEGER NOT NULL,
		opened_at DATETIME NOT NULL,
		closed_at DATETIME NOT NULL,
		realized_pnl TEXT NOT NULL,
		exit_reason TEXT,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	-- Equity curve samples per run
	CREATE TABLE IF NOT EXISTS equity_points (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		value REAL NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_bot ON runs(bot_id);
	CREATE INDEX IF NOT EXISTS idx_runs_market ON runs(market_id);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id);
	CREATE INDEX IF NOT EXISTS idx_equity_run ON equity_points(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun persists the run header, trades, and equity curve in one
// transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, result *backtest.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sum := result.Summary
	var sharpe sql.NullFloat64
	if sum.SharpeRatio != nil {
		sharpe = sql.NullFloat64{Float64: *sum.SharpeRatio, Valid: true}
	}
	halted := 0
	if result.Halted {
		halted = 1
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, bot_id, market_id, started_at, completed_at, ticks_replayed, halted, halt_reason,
			initial_balance, final_balance, total_return, total_return_pct,
			total_trades, winning_trades, losing_trades, win_rate, profit_factor, sharpe_ratio,
			max_drawdown_pct, avg_win, avg_loss)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, result.RunID, result.BotID, result.MarketID, result.StartedAt, result.CompletedAt,
		result.TicksReplayed, halted, result.HaltReason,
		sum.InitialBalance, sum.FinalBalance, sum.TotalReturn, sum.TotalReturnPct,
		sum.TotalTrades, sum.WinningTrades, sum.LosingTrades, sum.WinRate, sum.ProfitFactor, sharpe,
		sum.MaxDrawdownPct, sum.AvgWin, sum.AvgLoss)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	tradeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades (id, run_id, order_id, bot_id, market_id, side, size, entry_price, exit_price,
			zone, opened_at, closed_at, realized_pnl, exit_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare trade statement: %w", err)
	}
	defer tradeStmt.Close()

	for _, t := range result.Trades {
		if t.ExitPrice == nil || t.ClosedAt == nil {
			continue // only closed trades are persisted
		}
		_, err := tradeStmt.ExecContext(ctx, t.ID, result.RunID, t.OrderID, t.BotID, t.MarketID,
			string(t.Side), t.Size.String(), t.EntryPrice.String(), t.ExitPrice.String(),
			int(t.Zone), t.OpenedAt, *t.ClosedAt, t.RealizedPnL.String(), t.ExitReason)
		if err != nil {
			return fmt.Errorf("failed to insert trade: %w", err)
		}
	}

	equityStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO equity_points (run_id, timestamp, value) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare equity statement: %w", err)
	}
	defer equityStmt.Close()

	for _, p := range result.Equity {
		if _, err := equityStmt.ExecContext(ctx, result.RunID, p.Timestamp, p.Value); err != nil {
			return fmt.Errorf("failed to insert equity point: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetRun loads one run and rehydrates its trades and equity curve.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*backtest.Result, error) {
	result := &backtest.Result{RunID: runID}
	sum := &result.Summary

	var sharpe sql.NullFloat64
	var halted int
	var haltReason sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT bot_id, market_id, started_at, completed_at, ticks_replayed, halted, halt_reason,
			initial_balance, final_balance, total_return, total_return_pct,
			total_trades, winning_trades, losing_trades, win_rate, profit_factor, sharpe_ratio,
			max_drawdown_pct, avg_win, avg_loss
		FROM runs WHERE id = ?
	`, runID).Scan(&result.BotID, &result.MarketID, &result.StartedAt, &result.CompletedAt,
		&result.TicksReplayed, &halted, &haltReason,
		&sum.InitialBalance, &sum.FinalBalance, &sum.TotalReturn, &sum.TotalReturnPct,
		&sum.TotalTrades, &sum.WinningTrades, &sum.LosingTrades, &sum.WinRate, &sum.ProfitFactor, &sharpe,
		&sum.MaxDrawdownPct, &sum.AvgWin, &sum.AvgLoss)
	if err == sql.ErrNoRows {
		return nil, apperrors.Wrapf(apperrors.ErrRunNotFound, "run %s", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	result.Halted = halted == 1
	result.HaltReason = haltReason.String
	if sharpe.Valid {
		v := sharpe.Float64
		sum.SharpeRatio = &v
	}

	trades, err := s.loadTrades(ctx, runID)
	if err != nil {
		return nil, err
	}
	result.Trades = trades

	equity, err := s.loadEquity(ctx, runID)
	if err != nil {
		return nil, err
	}
	result.Equity = equity

	return result, nil
}

func (s *SQLiteStore) loadTrades(ctx context.Context, runID string) ([]*models.Position, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, bot_id, market_id, side, size, entry_price, exit_price,
			zone, opened_at, closed_at, realized_pnl, exit_reason
		FROM trades WHERE run_id = ? ORDER BY closed_at ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []*models.Position
	for rows.Next() {
		var (
			pos                        models.Position
			side                       string
			sizeStr, entryStr, exitStr string
			zone                       int
			closedAt                   time.Time
			pnlStr                     string
			exitReason                 sql.NullString
		)
		if err := rows.Scan(&pos.ID, &pos.OrderID, &pos.BotID, &pos.MarketID, &side,
			&sizeStr, &entryStr, &exitStr, &zone, &pos.OpenedAt, &closedAt, &pnlStr, &exitReason); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}

		pos.Side = models.Side(side)
		pos.Zone = models.Zone(zone)
		pos.ClosedAt = &closedAt
		pos.ExitReason = exitReason.String

		if pos.Size, err = parseSize(sizeStr); err != nil {
			return nil, err
		}
		if pos.EntryPrice, err = parsePrice(entryStr); err != nil {
			return nil, err
		}
		exitPrice, err := parsePrice(exitStr)
		if err != nil {
			return nil, err
		}
		pos.ExitPrice = &exitPrice
		pos.CurrentPrice = exitPrice
		if pos.RealizedPnL, err = decimal.NewFromString(pnlStr); err != nil {
			return nil, fmt.Errorf("bad realized_pnl %q: %w", pnlStr, err)
		}

		trades = append(trades, &pos)
	}
	return trades, rows.Err()
}

func (s *SQLiteStore) loadEquity(ctx context.Context, runID string) ([]models.EquityPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, value FROM equity_points WHERE run_id = ? ORDER BY timestamp ASC, id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query equity points: %w", err)
	}
	defer rows.Close()

	var points []models.EquityPoint
	for rows.Next() {
		var p models.EquityPoint
		if err := rows.Scan(&p.Timestamp, &p.Value); err != nil {
			return nil, fmt.Errorf("failed to scan equity point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// ListRuns returns run headers matching the filter, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]RunHeader, error) {
	query := `SELECT id, bot_id, market_id, started_at, completed_at, total_trades, final_balance, total_return_pct, halted
		FROM runs WHERE 1=1`
	args := []interface{}{}

	if filter.BotID != "" {
		query += " AND bot_id = ?"
		args = append(args, filter.BotID)
	}
	if filter.MarketID != "" {
		query += " AND market_id = ?"
		args = append(args, filter.MarketID)
	}
	if !filter.StartDate.IsZero() {
		query += " AND started_at >= ?"
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		query += " AND started_at <= ?"
		args = append(args, filter.EndDate)
	}

	query += " ORDER BY started_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var headers []RunHeader
	for rows.Next() {
		var h RunHeader
		var halted int
		if err := rows.Scan(&h.RunID, &h.BotID, &h.MarketID, &h.StartedAt, &h.CompletedAt,
			&h.TotalTrades, &h.FinalBalance, &h.TotalReturnPct, &halted); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		h.Halted = halted == 1
		headers = append(headers, h)
	}
	return headers, rows.Err()
}

// DeleteRun removes a run and its dependent rows in one transaction.
func (s *SQLiteStore) DeleteRun(ctx context.Context, runID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM equity_points WHERE run_id = ?", runID); err != nil {
		return fmt.Errorf("failed to delete equity points: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM trades WHERE run_id = ?", runID); err != nil {
		return fmt.Errorf("failed to delete trades: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.Wrapf(apperrors.ErrRunNotFound, "run %s", runID)
	}
	return tx.Commit()
}

func parsePrice(s string) (models.Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return models.Price{}, fmt.Errorf("bad price %q: %w", s, err)
	}
	return models.NewPrice(d)
}

func parseSize(s string) (models.Size, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return models.Size{}, fmt.Errorf("bad size %q: %w", s, err)
	}
	return models.NewSize(d)
}
