// Package stats aggregates reported trade results. All functions are
// pure so callers decide where the trades come from and when rounding
// happens.
package stats

import (
	"fmt"

	"smart-stock-trader/internal/database"
)

// Summary holds aggregate performance for a set of trades. WinRate and
// ProfitFactor are presentation strings with two decimals; a profit
// factor with zero gross loss and positive gross profit is "Infinite".
type Summary struct {
	TotalTrades   int     `json:"total_trades"`
	OpenTrades    int     `json:"open_trades"`
	ClosedTrades  int     `json:"closed_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	TotalProfit   float64 `json:"total_profit"`
	GrossProfit   float64 `json:"gross_profit"`
	GrossLoss     float64 `json:"gross_loss"`
	WinRate       string  `json:"win_rate"`
	ProfitFactor  string  `json:"profit_factor"`
}

// Summarize computes aggregate performance from trades. Only closed
// trades enter the profit figures; a closed trade with zero profit
// counts as neither a win nor a loss.
func Summarize(trades []*database.Trade) Summary {
	s := Summary{TotalTrades: len(trades)}

	for _, t := range trades {
		switch t.Status {
		case database.TradeStatusOpen:
			s.OpenTrades++
		case database.TradeStatusClosed:
			s.ClosedTrades++
			s.TotalProfit += t.Profit
			if t.Profit > 0 {
				s.WinningTrades++
				s.GrossProfit += t.Profit
			} else if t.Profit < 0 {
				s.LosingTrades++
				s.GrossLoss += -t.Profit
			}
		}
	}

	s.WinRate = FormatWinRate(s.WinningTrades, s.ClosedTrades)
	s.ProfitFactor = FormatProfitFactor(s.GrossProfit, s.GrossLoss)
	return s
}

// FormatWinRate renders wins over closed trades as a percentage with
// two decimals. No closed trades yields "0.00".
func FormatWinRate(wins, closed int) string {
	if closed == 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", float64(wins)/float64(closed)*100)
}

// FormatProfitFactor renders gross profit over gross loss with two
// decimals. With no losses the factor is "Infinite" when there is any
// profit, otherwise "0.00".
func FormatProfitFactor(grossProfit, grossLoss float64) string {
	if grossLoss == 0 {
		if grossProfit > 0 {
			return "Infinite"
		}
		return "0.00"
	}
	return fmt.Sprintf("%.2f", grossProfit/grossLoss)
}
