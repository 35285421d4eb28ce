package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smart-stock-trader/internal/auth"
)

type validateLicenseRequest struct {
	LicenseKey string `json:"license_key"`
}

// handleValidateLicense checks a license key for the calling user and
// claims it on first successful use.
func (s *Server) handleValidateLicense(c *gin.Context) {
	var req validateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	userID := auth.GetUserID(c)
	result, err := s.licenses.Validate(c.Request.Context(), req.LicenseKey, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, result)
}

// handleMyLicenses lists the licenses bound to the calling user
func (s *Server) handleMyLicenses(c *gin.Context) {
	userID := auth.GetUserID(c)
	licenses, err := s.repo.GetLicensesByUserID(c.Request.Context(), userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list licenses")
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"licenses": licenses})
}
