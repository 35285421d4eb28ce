package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"smart-stock-trader/internal/bot"
	"smart-stock-trader/internal/license"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("fourth request within window should be rejected")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatal("different key should have its own budget")
	}
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)

	if !rl.Allow("k") {
		t.Fatal("first request should pass")
	}
	if rl.Allow("k") {
		t.Fatal("second immediate request should fail")
	}

	time.Sleep(20 * time.Millisecond)
	if !rl.Allow("k") {
		t.Fatal("request after window expiry should pass")
	}
}

func TestStatusForCode(t *testing.T) {
	cases := []struct {
		code string
		want int
	}{
		{"LICENSE_KEY_REQUIRED", http.StatusBadRequest},
		{"INVALID_LICENSE_FORMAT", http.StatusBadRequest},
		{"LICENSE_NOT_FOUND", http.StatusNotFound},
		{"LICENSE_EXPIRED", http.StatusForbidden},
		{"LICENSE_IN_USE", http.StatusForbidden},
		{"SEAT_LIMIT_REACHED", http.StatusForbidden},
		{"BOT_NOT_FOUND", http.StatusNotFound},
		{"BOT_ALREADY_RUNNING", http.StatusConflict},
		{"DUPLICATE_TICKET", http.StatusConflict},
		{"RATE_LIMITED", http.StatusTooManyRequests},
		{"BILLING_NOT_CONFIGURED", http.StatusServiceUnavailable},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := statusForCode(tc.code); got != tc.want {
			t.Errorf("statusForCode(%s) = %d, want %d", tc.code, got, tc.want)
		}
	}
}

func testContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, rec
}

func TestRespondServiceErrorKeepsTypedCodes(t *testing.T) {
	c, rec := testContext("/test")
	respondServiceError(c, license.ErrExpired)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["error"] != "LICENSE_EXPIRED" {
		t.Errorf("error = %v, want LICENSE_EXPIRED", body["error"])
	}
	if body["message"] == "" {
		t.Error("message should not be empty")
	}
}

func TestRespondServiceErrorHidesUnknownErrors(t *testing.T) {
	c, rec := testContext("/test")
	respondServiceError(c, &json.SyntaxError{})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["error"] != "INTERNAL_ERROR" {
		t.Errorf("error = %v, want INTERNAL_ERROR", body["error"])
	}
}

func TestRespondServiceErrorBotCodes(t *testing.T) {
	c, rec := testContext("/test")
	respondServiceError(c, bot.ErrStillRunning)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestRespondOKEnvelope(t *testing.T) {
	c, rec := testContext("/test")
	respondOK(c, http.StatusCreated, gin.H{"id": "abc"})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	var body struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if !body.Success {
		t.Error("success should be true")
	}
	if body.Data["id"] != "abc" {
		t.Errorf("data.id = %v, want abc", body.Data["id"])
	}
}

func TestQueryInt(t *testing.T) {
	c, _ := testContext("/test?limit=25&bad=12x&neg=-3")

	if got := queryInt(c, "limit", 50); got != 25 {
		t.Errorf("limit = %d, want 25", got)
	}
	if got := queryInt(c, "missing", 50); got != 50 {
		t.Errorf("missing param = %d, want fallback 50", got)
	}
	if got := queryInt(c, "bad", 50); got != 50 {
		t.Errorf("malformed param = %d, want fallback 50", got)
	}
	if got := queryInt(c, "neg", 50); got != 50 {
		t.Errorf("negative param = %d, want fallback 50", got)
	}
}

func TestParsePaginationBounds(t *testing.T) {
	c, _ := testContext("/test?limit=9999&offset=10")
	limit, offset := parsePagination(c, 50, 200)
	if limit != 200 {
		t.Errorf("limit = %d, want clamped 200", limit)
	}
	if offset != 10 {
		t.Errorf("offset = %d, want 10", offset)
	}

	c, _ = testContext("/test")
	limit, offset = parsePagination(c, 50, 200)
	if limit != 50 || offset != 0 {
		t.Errorf("defaults = (%d, %d), want (50, 0)", limit, offset)
	}
}
