package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"smart-stock-trader/internal/auth"
	"smart-stock-trader/internal/bot"
	"smart-stock-trader/internal/database"
	"smart-stock-trader/internal/stats"
)

// handleOpenTrade records a freshly opened position reported by the EA
func (s *Server) handleOpenTrade(c *gin.Context) {
	var req bot.OpenTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	userID := auth.GetUserID(c)
	trade, err := s.registry.OpenTrade(c.Request.Context(), userID, c.Param("botId"), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	s.statsCache.InvalidateUser(c.Request.Context(), userID)
	respondOK(c, http.StatusCreated, trade)
}

// handleCloseTrade records the close of a previously reported trade
func (s *Server) handleCloseTrade(c *gin.Context) {
	ticket, err := strconv.ParseInt(c.Param("ticket"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid ticket number")
		return
	}

	var req bot.CloseTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	userID := auth.GetUserID(c)
	trade, err := s.registry.CloseTrade(c.Request.Context(), userID, c.Param("botId"), ticket, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	s.statsCache.InvalidateUser(c.Request.Context(), userID)
	respondOK(c, http.StatusOK, trade)
}

func (s *Server) handleListTrades(c *gin.Context) {
	userID := auth.GetUserID(c)
	limit, offset := parsePagination(c, 50, 200)

	trades, total, err := s.registry.ListTrades(c.Request.Context(), userID, c.Param("botId"), c.Query("status"), c.Query("symbol"), limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"trades": trades,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// handleBotStats serves a bot's liveness plus aggregated trade
// performance, cached briefly since the EA polls it.
func (s *Server) handleBotStats(c *gin.Context) {
	userID := auth.GetUserID(c)
	botID := c.Param("botId")
	ctx := c.Request.Context()

	var cached bot.BotStats
	if s.statsCache.GetBotStats(ctx, userID, botID, &cached) {
		respondOK(c, http.StatusOK, cached)
		return
	}

	result, err := s.registry.Stats(ctx, userID, botID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	s.statsCache.SetBotStats(ctx, userID, botID, result)
	respondOK(c, http.StatusOK, result)
}

func (s *Server) handleUserTrades(c *gin.Context) {
	userID := auth.GetUserID(c)
	limit, offset := parsePagination(c, 50, 200)

	trades, total, err := s.repo.ListTradesByUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"trades": trades,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (s *Server) handleGetTrade(c *gin.Context) {
	userID := auth.GetUserID(c)
	trade, err := s.registry.GetTrade(c.Request.Context(), userID, c.Param("tradeId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, trade)
}

// handleTradeHistory buckets closed-trade profit by day for charts
func (s *Server) handleTradeHistory(c *gin.Context) {
	userID := auth.GetUserID(c)
	days := queryInt(c, "days", 30)
	if days < 1 || days > 365 {
		days = 30
	}

	history, err := s.registry.History(c.Request.Context(), userID, days)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"days": days, "history": history})
}

type dashboardView struct {
	Bots        []bot.StatusView `json:"bots"`
	OnlineBots  int              `json:"online_bots"`
	RunningBots int              `json:"running_bots"`
	Summary     stats.Summary    `json:"summary"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// handleDashboard aggregates the user's fleet and overall trade
// performance into a single payload for the dashboard home screen.
func (s *Server) handleDashboard(c *gin.Context) {
	userID := auth.GetUserID(c)
	ctx := c.Request.Context()

	var cached dashboardView
	if s.statsCache.GetDashboard(ctx, userID, &cached) {
		respondOK(c, http.StatusOK, cached)
		return
	}

	bots, err := s.registry.List(ctx, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	now := time.Now()
	view := dashboardView{
		Bots:        make([]bot.StatusView, 0, len(bots)),
		GeneratedAt: now.UTC(),
	}

	allTrades := make([]*database.Trade, 0)
	for _, b := range bots {
		sv := bot.NewStatusView(b, now)
		view.Bots = append(view.Bots, sv)
		if sv.Online {
			view.OnlineBots++
		}
		if b.Status == database.BotStatusRunning {
			view.RunningBots++
		}

		trades, err := s.repo.ListTradesByBot(ctx, b.ID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		allTrades = append(allTrades, trades...)
	}
	view.Summary = stats.Summarize(allTrades)

	s.statsCache.SetDashboard(ctx, userID, view)
	respondOK(c, http.StatusOK, view)
}
