package bot

import (
	"context"
	"time"

	"smart-stock-trader/internal/database"
	"smart-stock-trader/internal/stats"
)

var (
	ErrTradeNotFound  = Error{Code: "TRADE_NOT_FOUND", Message: "trade not found"}
	ErrDuplicateTrade = Error{Code: "DUPLICATE_TICKET", Message: "a trade with this ticket number already exists"}
	ErrTradeClosed    = Error{Code: "TRADE_ALREADY_CLOSED", Message: "trade is already closed"}
)

// OpenTradeRequest is the EA's report of a newly opened order
type OpenTradeRequest struct {
	TicketNumber int64              `json:"ticket_number"`
	Symbol       string             `json:"symbol"`
	TradeType    database.TradeType `json:"trade_type"`
	LotSize      float64            `json:"lot_size"`
	OpenPrice    float64            `json:"open_price"`
	StopLoss     *float64           `json:"stop_loss,omitempty"`
	TakeProfit   *float64           `json:"take_profit,omitempty"`
	StrategyUsed string             `json:"strategy_used,omitempty"`
	OpenedAt     *time.Time         `json:"opened_at,omitempty"`
}

// OpenTrade records a trade the EA just opened
func (reg *Registry) OpenTrade(ctx context.Context, userID, botID string, req OpenTradeRequest) (*database.Trade, error) {
	bot, err := reg.ownedBot(ctx, userID, botID)
	if err != nil {
		return nil, err
	}

	existing, err := reg.repo.GetTradeByTicket(ctx, bot.ID, req.TicketNumber)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateTrade
	}

	openedAt := time.Now()
	if req.OpenedAt != nil {
		openedAt = *req.OpenedAt
	}

	trade := &database.Trade{
		BotInstanceID: bot.ID,
		TicketNumber:  req.TicketNumber,
		Symbol:        req.Symbol,
		TradeType:     req.TradeType,
		LotSize:       req.LotSize,
		OpenPrice:     req.OpenPrice,
		StopLoss:      req.StopLoss,
		TakeProfit:    req.TakeProfit,
		Status:        database.TradeStatusOpen,
		StrategyUsed:  req.StrategyUsed,
		OpenedAt:      openedAt,
	}

	if err := reg.repo.CreateTrade(ctx, trade); err != nil {
		return nil, err
	}

	reg.appendLog(ctx, bot.ID, database.LogLevelInfo, "TRADE",
		"Opened "+string(trade.TradeType)+" "+trade.Symbol)
	reg.bus.PublishTradeOpened(userID, bot.ID, trade.Symbol, string(trade.TradeType), trade.LotSize, trade.OpenPrice)

	return trade, nil
}

// CloseTradeRequest is the EA's report of a closed order
type CloseTradeRequest struct {
	ClosePrice float64    `json:"close_price"`
	Commission float64    `json:"commission"`
	Swap       float64    `json:"swap"`
	Profit     float64    `json:"profit"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
}

// CloseTrade records the close of an open trade and derives its duration
func (reg *Registry) CloseTrade(ctx context.Context, userID, botID string, ticket int64, req CloseTradeRequest) (*database.Trade, error) {
	bot, err := reg.ownedBot(ctx, userID, botID)
	if err != nil {
		return nil, err
	}

	trade, err := reg.repo.GetTradeByTicket(ctx, bot.ID, ticket)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, ErrTradeNotFound
	}
	if trade.Status != database.TradeStatusOpen {
		return nil, ErrTradeClosed
	}

	closedAt := time.Now()
	if req.ClosedAt != nil {
		closedAt = *req.ClosedAt
	}
	duration := int64(closedAt.Sub(trade.OpenedAt).Seconds())

	trade.ClosePrice = &req.ClosePrice
	trade.Commission = req.Commission
	trade.Swap = req.Swap
	trade.Profit = req.Profit
	trade.Status = database.TradeStatusClosed
	trade.ClosedAt = &closedAt
	trade.DurationSeconds = &duration
	if trade.OpenPrice != 0 && trade.LotSize != 0 {
		pct := (req.Profit / (trade.OpenPrice * trade.LotSize * 100)) * 100
		trade.ProfitPercentage = &pct
	}

	if err := reg.repo.CloseTrade(ctx, trade); err != nil {
		return nil, err
	}

	reg.appendLog(ctx, bot.ID, database.LogLevelInfo, "TRADE",
		"Closed "+trade.Symbol)
	reg.bus.PublishTradeClosed(userID, bot.ID, trade.Symbol, trade.Profit)

	return trade, nil
}

// ListTrades returns a page of a bot's trades with optional filters
func (reg *Registry) ListTrades(ctx context.Context, userID, botID, status, symbol string, limit, offset int) ([]*database.Trade, int, error) {
	bot, err := reg.ownedBot(ctx, userID, botID)
	if err != nil {
		return nil, 0, err
	}
	return reg.repo.ListTrades(ctx, bot.ID, status, symbol, limit, offset)
}

// GetTrade returns one trade of a bot owned by the user
func (reg *Registry) GetTrade(ctx context.Context, userID, tradeID string) (*database.Trade, error) {
	trade, err := reg.repo.GetTradeByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, ErrTradeNotFound
	}
	bot, err := reg.repo.GetBotByID(ctx, trade.BotInstanceID)
	if err != nil {
		return nil, err
	}
	if bot == nil || bot.UserID != userID {
		return nil, ErrTradeNotFound
	}
	return trade, nil
}

// Stats summarizes a bot's trade performance and liveness
func (reg *Registry) Stats(ctx context.Context, userID, botID string) (*BotStats, error) {
	bot, err := reg.ownedBot(ctx, userID, botID)
	if err != nil {
		return nil, err
	}

	trades, err := reg.repo.ListTradesByBot(ctx, bot.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &BotStats{
		Bot:     NewStatusView(bot, now),
		Summary: stats.Summarize(trades),
	}, nil
}

// BotStats is a bot's status plus aggregated trade performance
type BotStats struct {
	Bot     StatusView    `json:"bot"`
	Summary stats.Summary `json:"summary"`
}

// History buckets the user's closed-trade profit by day for charts
func (reg *Registry) History(ctx context.Context, userID string, days int) ([]database.DailyProfit, error) {
	since := time.Now().AddDate(0, 0, -days)
	return reg.repo.GetDailyProfits(ctx, userID, since)
}
