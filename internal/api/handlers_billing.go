package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"smart-stock-trader/internal/auth"
	"smart-stock-trader/internal/database"
	"smart-stock-trader/internal/license"
)

// handleListPlans serves the purchasable plan catalog
func (s *Server) handleListPlans(c *gin.Context) {
	plans := make([]license.Plan, 0, len(license.Plans))
	for _, t := range []database.LicenseType{
		database.LicenseTypeTrial,
		database.LicenseTypeBasic,
		database.LicenseTypePro,
		database.LicenseTypeEnterprise,
	} {
		if plan, ok := license.PlanFor(t); ok {
			plans = append(plans, plan)
		}
	}
	respondOK(c, http.StatusOK, gin.H{"plans": plans})
}

type checkoutRequest struct {
	LicenseType database.LicenseType `json:"license_type" binding:"required"`
	Email       string               `json:"email" binding:"required,email"`
}

// handleCreateCheckout starts a Stripe checkout session for a plan.
// Logged-in callers get the resulting license bound to their account;
// anonymous buyers claim it on first validation.
func (s *Server) handleCreateCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "license_type and email are required")
		return
	}

	userID := ""
	if claims := auth.GetUserClaims(c); claims != nil {
		userID = claims.UserID
	}

	result, err := s.billing.CreateCheckout(c.Request.Context(), req.LicenseType, req.Email, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, result)
}

// handlePaymentSuccess is the redirect target after checkout. It
// fulfills the session if the webhook has not done so already.
func (s *Server) handlePaymentSuccess(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "session_id is required")
		return
	}

	lic, err := s.billing.FulfillPayment(c.Request.Context(), sessionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"license": lic})
}

// handleStripeWebhook receives Stripe event callbacks. Stripe retries
// on non-2xx, so signature failures return 400 and everything else 200.
func (s *Server) handleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "failed to read payload")
		return
	}

	err = s.billing.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		s.logger.Warn().Err(err).Msg("webhook processing failed")
		s.bus.PublishError("billing", "stripe webhook processing failed", err)
		respondError(c, http.StatusBadRequest, "WEBHOOK_FAILED", "webhook processing failed")
		return
	}

	respondOK(c, http.StatusOK, gin.H{"received": true})
}

type trialRequest struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// handleStartTrial provisions a trial license, creating an account
// with emailed credentials when the address is new.
func (s *Server) handleStartTrial(c *gin.Context) {
	var req trialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "a valid email is required")
		return
	}

	result, err := s.billing.StartTrial(c.Request.Context(), req.Email, req.FirstName, req.LastName)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, gin.H{
		"license":      result.License,
		"user_created": result.UserCreated,
	})
}
