package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"smart-stock-trader/internal/auth"
	"smart-stock-trader/internal/bot"
	"smart-stock-trader/internal/database"
)

// handleRegisterBot creates or refreshes the EA instance row for the
// calling account. The EA calls this on every terminal start.
func (s *Server) handleRegisterBot(c *gin.Context) {
	var req bot.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	userID := auth.GetUserID(c)
	result, err := s.registry.Register(c.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	respondOK(c, status, result)
}

func (s *Server) handleListBots(c *gin.Context) {
	userID := auth.GetUserID(c)
	bots, err := s.registry.List(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	now := time.Now()
	views := make([]bot.StatusView, 0, len(bots))
	for _, b := range bots {
		views = append(views, bot.NewStatusView(b, now))
	}
	respondOK(c, http.StatusOK, gin.H{"bots": views})
}

func (s *Server) handleGetBot(c *gin.Context) {
	userID := auth.GetUserID(c)
	instance, err := s.registry.Get(c.Request.Context(), userID, c.Param("botId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, bot.NewStatusView(instance, time.Now()))
}

type heartbeatRequest struct {
	Status  *database.BotStatus `json:"status"`
	Balance *float64            `json:"balance"`
	Equity  *float64            `json:"equity"`
}

// handleHeartbeat records a liveness ping, optionally with updated
// account figures. The EA sends one every minute.
func (s *Server) handleHeartbeat(c *gin.Context) {
	var req heartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	userID := auth.GetUserID(c)
	instance, err := s.registry.Heartbeat(c.Request.Context(), userID, c.Param("botId"), req.Status, req.Balance, req.Equity)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, bot.NewStatusView(instance, time.Now()))
}

func (s *Server) handleStartBot(c *gin.Context) {
	userID := auth.GetUserID(c)
	instance, err := s.registry.Start(c.Request.Context(), userID, c.Param("botId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, bot.NewStatusView(instance, time.Now()))
}

func (s *Server) handleStopBot(c *gin.Context) {
	userID := auth.GetUserID(c)
	instance, err := s.registry.Stop(c.Request.Context(), userID, c.Param("botId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, bot.NewStatusView(instance, time.Now()))
}

func (s *Server) handleDeleteBot(c *gin.Context) {
	userID := auth.GetUserID(c)
	if err := s.registry.Delete(c.Request.Context(), userID, c.Param("botId")); err != nil {
		respondServiceError(c, err)
		return
	}

	s.statsCache.InvalidateUser(c.Request.Context(), userID)
	respondOK(c, http.StatusOK, gin.H{"deleted": true})
}

func (s *Server) handleGetBotLogs(c *gin.Context) {
	userID := auth.GetUserID(c)
	limit := queryInt(c, "limit", 100)
	if limit < 1 || limit > 500 {
		limit = 100
	}

	logs, err := s.registry.Logs(c.Request.Context(), userID, c.Param("botId"), c.Query("level"), c.Query("category"), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"logs": logs})
}

type appendLogRequest struct {
	Level    database.LogLevel `json:"level"`
	Category string            `json:"category"`
	Message  string            `json:"message" binding:"required"`
	Metadata json.RawMessage   `json:"metadata"`
}

func (s *Server) handleAppendBotLog(c *gin.Context) {
	var req appendLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "message is required")
		return
	}
	if req.Level == "" {
		req.Level = database.LogLevelInfo
	}

	userID := auth.GetUserID(c)
	err := s.registry.AppendLog(c.Request.Context(), userID, c.Param("botId"), req.Level, req.Category, req.Message, req.Metadata)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, gin.H{"logged": true})
}
