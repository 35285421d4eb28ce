package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"smart-stock-trader/internal/auth"
	"smart-stock-trader/internal/billing"
	"smart-stock-trader/internal/bot"
	"smart-stock-trader/internal/license"
)

// respondOK writes the success envelope
func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// respondError writes the error envelope
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"error":   code,
		"message": message,
	})
}

// respondServiceError maps a service-layer error to its envelope. Typed
// errors keep their machine code; anything else is a 500 with the
// detail hidden from the client.
func respondServiceError(c *gin.Context, err error) {
	var licErr license.Error
	if errors.As(err, &licErr) {
		respondError(c, statusForCode(licErr.Code), licErr.Code, licErr.Message)
		return
	}

	var botErr bot.Error
	if errors.As(err, &botErr) {
		respondError(c, statusForCode(botErr.Code), botErr.Code, botErr.Message)
		return
	}

	var billErr *billing.Error
	if errors.As(err, &billErr) {
		respondError(c, statusForCode(billErr.Code), billErr.Code, billErr.Message)
		return
	}

	var authErr auth.AuthError
	if errors.As(err, &authErr) {
		respondError(c, statusForCode(authErr.Code), authErr.Code, authErr.Message)
		return
	}

	respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// statusForCode maps machine-readable error codes to HTTP statuses
func statusForCode(code string) int {
	switch code {
	case "LICENSE_KEY_REQUIRED", "INVALID_LICENSE_FORMAT", "MISSING_FIELDS", "UNKNOWN_PLAN":
		return http.StatusBadRequest
	case "INVALID_CREDENTIALS", "INVALID_TOKEN", "TOKEN_EXPIRED", "UNAUTHORIZED":
		return http.StatusUnauthorized
	case "LICENSE_EXPIRED", "LICENSE_INACTIVE", "LICENSE_IN_USE", "SEAT_LIMIT_REACHED",
		"FORBIDDEN", "ACCOUNT_SUSPENDED", "PAYMENT_INCOMPLETE":
		return http.StatusForbidden
	case "LICENSE_NOT_FOUND", "BOT_NOT_FOUND", "TRADE_NOT_FOUND", "USER_NOT_FOUND":
		return http.StatusNotFound
	case "BOT_ALREADY_RUNNING", "BOT_ALREADY_STOPPED", "BOT_RUNNING",
		"DUPLICATE_TICKET", "TRADE_ALREADY_CLOSED", "EMAIL_EXISTS":
		return http.StatusConflict
	case "RATE_LIMITED":
		return http.StatusTooManyRequests
	case "BILLING_NOT_CONFIGURED":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// parsePagination reads limit/offset query params with sane bounds
func parsePagination(c *gin.Context, defaultLimit, maxLimit int) (limit, offset int) {
	limit = queryInt(c, "limit", defaultLimit)
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset = queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			return fallback
		}
		n = n*10 + int(r-'0')
	}
	return n
}
