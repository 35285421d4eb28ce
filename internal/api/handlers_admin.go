package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"smart-stock-trader/internal/auth"
	"smart-stock-trader/internal/bot"
	"smart-stock-trader/internal/database"
	"smart-stock-trader/internal/stats"
)

func (s *Server) handleAdminListUsers(c *gin.Context) {
	limit, offset := parsePagination(c, 50, 200)

	users, total, err := s.repo.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	views := make([]auth.UserResponse, 0, len(users))
	for _, u := range users {
		views = append(views, auth.ToUserResponse(u))
	}

	respondOK(c, http.StatusOK, gin.H{
		"users":  views,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// handleAdminGetUser serves a user's profile plus their licenses and bots
func (s *Server) handleAdminGetUser(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.Param("userId")

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if user == nil {
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "user not found")
		return
	}

	licenses, err := s.repo.GetLicensesByUserID(ctx, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	bots, err := s.repo.ListBotsByUser(ctx, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	now := time.Now()
	views := make([]bot.StatusView, 0, len(bots))
	for _, b := range bots {
		views = append(views, bot.NewStatusView(b, now))
	}

	respondOK(c, http.StatusOK, gin.H{
		"user":     auth.ToUserResponse(user),
		"licenses": licenses,
		"bots":     views,
	})
}

type adminUpdateUserRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	IsActive  *bool   `json:"is_active"`
	Role      *string `json:"role"`
}

func (s *Server) handleAdminUpdateUser(c *gin.Context) {
	var req adminUpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	ctx := c.Request.Context()
	user, err := s.repo.GetUserByID(ctx, c.Param("userId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if user == nil {
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "user not found")
		return
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.Role != nil {
		role := database.UserRole(*req.Role)
		if role != database.RoleUser && role != database.RoleAdmin {
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "role must be user or admin")
			return
		}
		user.Role = role
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"user": auth.ToUserResponse(user)})
}

func (s *Server) handleAdminDeleteUser(c *gin.Context) {
	userID := c.Param("userId")
	if userID == auth.GetUserID(c) {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "cannot delete your own account")
		return
	}

	if err := s.repo.DeleteUser(c.Request.Context(), userID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"deleted": true})
}

func (s *Server) handleAdminListLicenses(c *gin.Context) {
	limit, offset := parsePagination(c, 50, 200)

	licenses, total, err := s.repo.ListLicenses(c.Request.Context(), c.Query("type"), c.Query("status"), limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"licenses": licenses,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

type adminCreateLicenseRequest struct {
	LicenseType database.LicenseType `json:"license_type" binding:"required"`
	UserID      string               `json:"user_id"`
}

// handleAdminCreateLicense issues a license outside the payment flow,
// for support cases and manual sales.
func (s *Server) handleAdminCreateLicense(c *gin.Context) {
	var req adminCreateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "license_type is required")
		return
	}

	var userID *string
	if req.UserID != "" {
		userID = &req.UserID
	}

	lic, err := s.licenses.Issue(c.Request.Context(), req.LicenseType, userID, nil)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, gin.H{"license": lic})
}

func (s *Server) handleAdminRevokeLicense(c *gin.Context) {
	if err := s.licenses.Revoke(c.Request.Context(), c.Param("licenseId")); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"revoked": true})
}

func (s *Server) handleAdminDeleteLicense(c *gin.Context) {
	ctx := c.Request.Context()
	licenseID := c.Param("licenseId")

	// Instances still bound to the key would be orphaned by a delete
	bound, err := s.repo.CountBoundInstances(ctx, licenseID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if bound > 0 {
		respondError(c, http.StatusConflict, "LICENSE_IN_USE", "license has bound bot instances, revoke it instead")
		return
	}

	if err := s.repo.DeleteLicense(ctx, licenseID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"deleted": true})
}

func (s *Server) handleAdminListBots(c *gin.Context) {
	limit, offset := parsePagination(c, 50, 200)

	bots, total, err := s.repo.ListAllBots(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	now := time.Now()
	views := make([]bot.StatusView, 0, len(bots))
	for _, b := range bots {
		views = append(views, bot.NewStatusView(b, now))
	}

	respondOK(c, http.StatusOK, gin.H{
		"bots":   views,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (s *Server) handleAdminStartBot(c *gin.Context) {
	instance, err := s.registry.ForceStart(c.Request.Context(), c.Param("botId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, bot.NewStatusView(instance, time.Now()))
}

func (s *Server) handleAdminStopBot(c *gin.Context) {
	instance, err := s.registry.ForceStop(c.Request.Context(), c.Param("botId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, bot.NewStatusView(instance, time.Now()))
}

func (s *Server) handleAdminDeleteBot(c *gin.Context) {
	if err := s.registry.ForceDelete(c.Request.Context(), c.Param("botId")); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"deleted": true})
}

func (s *Server) handleAdminListLogs(c *gin.Context) {
	limit, offset := parsePagination(c, 100, 500)

	logs, total, err := s.repo.ListAllLogs(c.Request.Context(), c.Query("level"), limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"logs":   logs,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// handleAdminStats serves platform-wide counters for the admin overview
func (s *Server) handleAdminStats(c *gin.Context) {
	ctx := c.Request.Context()

	totalUsers, activeUsers, err := s.repo.CountUsers(ctx)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	totalLicenses, activeLicenses, err := s.repo.CountLicenses(ctx)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	totalBots, runningBots, onlineBots, err := s.repo.CountBots(ctx)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	tradeCounters, err := s.repo.CountTrades(ctx)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"users": gin.H{
			"total":  totalUsers,
			"active": activeUsers,
		},
		"licenses": gin.H{
			"total":  totalLicenses,
			"active": activeLicenses,
		},
		"bots": gin.H{
			"total":   totalBots,
			"running": runningBots,
			"online":  onlineBots,
		},
		"trades": tradeCounters,
		"performance": gin.H{
			"win_rate":     stats.FormatWinRate(tradeCounters.Winning, tradeCounters.Closed),
			"total_profit": tradeCounters.TotalProfit,
		},
	})
}
