package stats

import (
	"testing"

	"smart-stock-trader/internal/database"
)

func closed(profit float64) *database.Trade {
	return &database.Trade{Status: database.TradeStatusClosed, Profit: profit}
}

func open() *database.Trade {
	return &database.Trade{Status: database.TradeStatusOpen}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.WinRate != "0.00" {
		t.Errorf("WinRate = %q, want 0.00", s.WinRate)
	}
	if s.ProfitFactor != "0.00" {
		t.Errorf("ProfitFactor = %q, want 0.00", s.ProfitFactor)
	}
}

func TestSummarizePartitions(t *testing.T) {
	trades := []*database.Trade{
		closed(100), closed(-40), closed(0), open(),
		{Status: database.TradeStatusCancelled},
	}

	s := Summarize(trades)
	if s.TotalTrades != 5 {
		t.Errorf("TotalTrades = %d, want 5", s.TotalTrades)
	}
	if s.OpenTrades != 1 {
		t.Errorf("OpenTrades = %d, want 1", s.OpenTrades)
	}
	if s.ClosedTrades != 3 {
		t.Errorf("ClosedTrades = %d, want 3", s.ClosedTrades)
	}
	if s.WinningTrades != 1 || s.LosingTrades != 1 {
		t.Errorf("wins/losses = %d/%d, want 1/1", s.WinningTrades, s.LosingTrades)
	}
	if s.GrossProfit != 100 {
		t.Errorf("GrossProfit = %v, want 100", s.GrossProfit)
	}
	if s.GrossLoss != 40 {
		t.Errorf("GrossLoss = %v, want 40", s.GrossLoss)
	}
	if s.TotalProfit != 60 {
		t.Errorf("TotalProfit = %v, want 60", s.TotalProfit)
	}
}

func TestFormatWinRate(t *testing.T) {
	tests := []struct {
		wins, closed int
		want         string
	}{
		{0, 0, "0.00"},
		{2, 3, "66.67"},
		{1, 2, "50.00"},
		{3, 3, "100.00"},
		{0, 4, "0.00"},
	}

	for _, tt := range tests {
		if got := FormatWinRate(tt.wins, tt.closed); got != tt.want {
			t.Errorf("FormatWinRate(%d, %d) = %q, want %q", tt.wins, tt.closed, got, tt.want)
		}
	}
}

func TestFormatProfitFactor(t *testing.T) {
	tests := []struct {
		name                   string
		grossProfit, grossLoss float64
		want                   string
	}{
		{"normal ratio", 170, 20, "8.50"},
		{"losses only", 0, 50, "0.00"},
		{"no trades", 0, 0, "0.00"},
		{"no losses with profit", 120, 0, "Infinite"},
		{"factor below one", 25, 100, "0.25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatProfitFactor(tt.grossProfit, tt.grossLoss); got != tt.want {
				t.Errorf("FormatProfitFactor(%v, %v) = %q, want %q", tt.grossProfit, tt.grossLoss, got, tt.want)
			}
		})
	}
}

func TestZeroProfitIsNeitherWinNorLoss(t *testing.T) {
	s := Summarize([]*database.Trade{closed(0), closed(0)})
	if s.WinningTrades != 0 || s.LosingTrades != 0 {
		t.Errorf("zero-profit trades counted as wins/losses: %d/%d", s.WinningTrades, s.LosingTrades)
	}
	if s.WinRate != "0.00" {
		t.Errorf("WinRate = %q, want 0.00", s.WinRate)
	}
}
