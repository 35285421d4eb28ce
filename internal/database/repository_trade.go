package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// =====================================================
// TRADE OPERATIONS
// =====================================================

const tradeColumns = `id, bot_instance_id, ticket_number, symbol, trade_type, lot_size,
		open_price, close_price, stop_loss, take_profit, commission, swap, profit,
		profit_percentage, status, COALESCE(strategy_used, ''), opened_at, closed_at,
		duration_seconds, created_at, updated_at`

func scanTrade(row pgx.Row) (*Trade, error) {
	trade := &Trade{}
	err := row.Scan(
		&trade.ID, &trade.BotInstanceID, &trade.TicketNumber, &trade.Symbol,
		&trade.TradeType, &trade.LotSize, &trade.OpenPrice, &trade.ClosePrice,
		&trade.StopLoss, &trade.TakeProfit, &trade.Commission, &trade.Swap,
		&trade.Profit, &trade.ProfitPercentage, &trade.Status, &trade.StrategyUsed,
		&trade.OpenedAt, &trade.ClosedAt, &trade.DurationSeconds,
		&trade.CreatedAt, &trade.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return trade, nil
}

// CreateTrade inserts a newly opened trade
func (r *Repository) CreateTrade(ctx context.Context, trade *Trade) error {
	query := `
		INSERT INTO trades (
			bot_instance_id, ticket_number, symbol, trade_type, lot_size,
			open_price, stop_loss, take_profit, commission, swap, profit,
			status, strategy_used, opened_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		trade.BotInstanceID, trade.TicketNumber, trade.Symbol, trade.TradeType,
		trade.LotSize, trade.OpenPrice, trade.StopLoss, trade.TakeProfit,
		trade.Commission, trade.Swap, trade.Profit, trade.Status,
		trade.StrategyUsed, trade.OpenedAt,
	).Scan(&trade.ID, &trade.CreatedAt, &trade.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}

	return nil
}

// GetTradeByID retrieves a trade by ID
func (r *Repository) GetTradeByID(ctx context.Context, id string) (*Trade, error) {
	query := fmt.Sprintf(`SELECT %s FROM trades WHERE id = $1`, tradeColumns)

	trade, err := scanTrade(r.db.Pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}

	return trade, nil
}

// GetTradeByTicket retrieves a trade by its MT4 ticket within a bot instance
func (r *Repository) GetTradeByTicket(ctx context.Context, botID string, ticket int64) (*Trade, error) {
	query := fmt.Sprintf(`SELECT %s FROM trades WHERE bot_instance_id = $1 AND ticket_number = $2`, tradeColumns)

	trade, err := scanTrade(r.db.Pool.QueryRow(ctx, query, botID, ticket))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade by ticket: %w", err)
	}

	return trade, nil
}

// CloseTrade records the close of an open trade
func (r *Repository) CloseTrade(ctx context.Context, trade *Trade) error {
	query := `
		UPDATE trades SET
			close_price = $2,
			commission = $3,
			swap = $4,
			profit = $5,
			profit_percentage = $6,
			status = 'closed',
			closed_at = $7,
			duration_seconds = $8
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query,
		trade.ID, trade.ClosePrice, trade.Commission, trade.Swap,
		trade.Profit, trade.ProfitPercentage, trade.ClosedAt, trade.DurationSeconds,
	)

	if err != nil {
		return fmt.Errorf("failed to close trade: %w", err)
	}

	return nil
}

// ListTrades retrieves trades for a bot instance with optional filters
func (r *Repository) ListTrades(ctx context.Context, botID, status, symbol string, limit, offset int) ([]*Trade, int, error) {
	whereClause := "WHERE bot_instance_id = $1"
	args := []interface{}{botID}
	argNum := 2

	if status != "" {
		whereClause += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, status)
		argNum++
	}
	if symbol != "" {
		whereClause += fmt.Sprintf(" AND symbol = $%d", argNum)
		args = append(args, symbol)
		argNum++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM trades %s", whereClause)
	var total int
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count trades: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM trades %s ORDER BY opened_at DESC LIMIT $%d OFFSET $%d`,
		tradeColumns, whereClause, argNum, argNum+1)
	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	var trades []*Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, trade)
	}

	return trades, total, nil
}

// ListTradesByBot retrieves every trade of a bot instance, newest first
func (r *Repository) ListTradesByBot(ctx context.Context, botID string) ([]*Trade, error) {
	query := fmt.Sprintf(`SELECT %s FROM trades WHERE bot_instance_id = $1 ORDER BY opened_at DESC`, tradeColumns)

	rows, err := r.db.Pool.Query(ctx, query, botID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []*Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, trade)
	}

	return trades, nil
}

// ListTradesByUser retrieves trades across all of a user's bot instances
func (r *Repository) ListTradesByUser(ctx context.Context, userID string, limit, offset int) ([]*Trade, int, error) {
	countQuery := `
		SELECT COUNT(*) FROM trades t
		JOIN bot_instances b ON b.id = t.bot_instance_id
		WHERE b.user_id = $1
	`
	var total int
	if err := r.db.Pool.QueryRow(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count trades: %w", err)
	}

	query := `
		SELECT t.id, t.bot_instance_id, t.ticket_number, t.symbol, t.trade_type, t.lot_size,
			t.open_price, t.close_price, t.stop_loss, t.take_profit, t.commission, t.swap, t.profit,
			t.profit_percentage, t.status, COALESCE(t.strategy_used, ''), t.opened_at, t.closed_at,
			t.duration_seconds, t.created_at, t.updated_at
		FROM trades t
		JOIN bot_instances b ON b.id = t.bot_instance_id
		WHERE b.user_id = $1
		ORDER BY t.opened_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	var trades []*Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, trade)
	}

	return trades, total, nil
}

// DailyProfit is one day's closed-trade aggregate for chart data
type DailyProfit struct {
	Day    time.Time `json:"day"`
	Profit float64   `json:"profit"`
	Trades int       `json:"trades"`
}

// GetDailyProfits buckets a user's closed trades by day since a cutoff
func (r *Repository) GetDailyProfits(ctx context.Context, userID string, since time.Time) ([]DailyProfit, error) {
	query := `
		SELECT date_trunc('day', t.closed_at) AS day, SUM(t.profit), COUNT(*)
		FROM trades t
		JOIN bot_instances b ON b.id = t.bot_instance_id
		WHERE b.user_id = $1 AND t.status = 'closed' AND t.closed_at >= $2
		GROUP BY day
		ORDER BY day
	`

	rows, err := r.db.Pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily profits: %w", err)
	}
	defer rows.Close()

	var days []DailyProfit
	for rows.Next() {
		var d DailyProfit
		if err := rows.Scan(&d.Day, &d.Profit, &d.Trades); err != nil {
			return nil, fmt.Errorf("failed to scan daily profit: %w", err)
		}
		days = append(days, d)
	}

	return days, nil
}

// TradeCounters holds platform-wide trade aggregates
type TradeCounters struct {
	Total       int     `json:"total"`
	Open        int     `json:"open"`
	Closed      int     `json:"closed"`
	Winning     int     `json:"winning"`
	Losing      int     `json:"losing"`
	TotalProfit float64 `json:"total_profit"`
}

// CountTrades returns platform-wide trade aggregates
func (r *Repository) CountTrades(ctx context.Context) (*TradeCounters, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'open'),
		       COUNT(*) FILTER (WHERE status = 'closed'),
		       COUNT(*) FILTER (WHERE status = 'closed' AND profit > 0),
		       COUNT(*) FILTER (WHERE status = 'closed' AND profit < 0),
		       COALESCE(SUM(profit) FILTER (WHERE status = 'closed'), 0)
		FROM trades
	`

	counters := &TradeCounters{}
	err := r.db.Pool.QueryRow(ctx, query).Scan(
		&counters.Total, &counters.Open, &counters.Closed,
		&counters.Winning, &counters.Losing, &counters.TotalProfit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count trades: %w", err)
	}

	return counters, nil
}
