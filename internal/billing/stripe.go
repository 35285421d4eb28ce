package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"smart-stock-trader/internal/logging"
)

// StripeConfig holds Stripe configuration
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
}

// StripeClient is a thin client for the Stripe REST API
type StripeClient struct {
	secretKey     string
	webhookSecret string
	httpClient    *http.Client
	baseURL       string
	logger        zerolog.Logger
}

// NewStripeClient creates a new Stripe client
func NewStripeClient(config StripeConfig) *StripeClient {
	return &StripeClient{
		secretKey:     config.SecretKey,
		webhookSecret: config.WebhookSecret,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		baseURL:       "https://api.stripe.com/v1",
		logger:        logging.Component("stripe"),
	}
}

// IsConfigured returns true if Stripe is properly configured
func (c *StripeClient) IsConfigured() bool {
	return c.secretKey != ""
}

// CheckoutSession represents a Stripe Checkout session
type CheckoutSession struct {
	ID              string            `json:"id"`
	URL             string            `json:"url"`
	PaymentStatus   string            `json:"payment_status"`
	CustomerEmail   string            `json:"customer_email"`
	AmountTotal     int64             `json:"amount_total"`
	Metadata        map[string]string `json:"metadata"`
	CustomerDetails customerDetails   `json:"customer_details"`
}

type customerDetails struct {
	Email string `json:"email"`
}

// IsPaid reports whether the session has been paid
func (s *CheckoutSession) IsPaid() bool {
	return s.PaymentStatus == "paid"
}

// Email returns the best available customer email for the session
func (s *CheckoutSession) Email() string {
	if s.CustomerDetails.Email != "" {
		return s.CustomerDetails.Email
	}
	return s.CustomerEmail
}

// CheckoutParams describes a one-time purchase checkout
type CheckoutParams struct {
	ProductName string
	AmountCents int64
	Email       string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// CreateCheckoutSession creates a Stripe Checkout session for a one-time purchase
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	data := url.Values{}
	data.Set("mode", "payment")
	data.Set("success_url", params.SuccessURL)
	data.Set("cancel_url", params.CancelURL)
	data.Set("line_items[0][price_data][currency]", "usd")
	data.Set("line_items[0][price_data][product_data][name]", params.ProductName)
	data.Set("line_items[0][price_data][unit_amount]", fmt.Sprintf("%d", params.AmountCents))
	data.Set("line_items[0][quantity]", "1")
	if params.Email != "" {
		data.Set("customer_email", params.Email)
	}
	for k, v := range params.Metadata {
		data.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	resp, err := c.makeRequest(ctx, http.MethodPost, "/checkout/sessions", data)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	var session CheckoutSession
	if err := json.Unmarshal(resp, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}

	return &session, nil
}

// GetCheckoutSession retrieves a Checkout session by ID
func (c *StripeClient) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	resp, err := c.makeRequest(ctx, http.MethodGet, "/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout session: %w", err)
	}

	var session CheckoutSession
	if err := json.Unmarshal(resp, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}

	return &session, nil
}

// WebhookEvent represents a Stripe webhook event
type WebhookEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ParseWebhook verifies the signature and decodes a webhook payload
func (c *StripeClient) ParseWebhook(payload []byte, signatureHeader string) (*WebhookEvent, error) {
	if !c.VerifyWebhookSignature(payload, signatureHeader) {
		return nil, fmt.Errorf("invalid webhook signature")
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to parse webhook event: %w", err)
	}

	return &event, nil
}

// VerifyWebhookSignature verifies the Stripe-Signature header against the payload
func (c *StripeClient) VerifyWebhookSignature(payload []byte, signatureHeader string) bool {
	if c.webhookSecret == "" {
		// Dev mode, no secret to check against
		return true
	}

	parts := strings.Split(signatureHeader, ",")
	var timestamp string
	var signatures []string

	for _, part := range parts {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if timestamp == "" || len(signatures) == 0 {
		return false
	}

	signedPayload := timestamp + "." + string(payload)
	h := hmac.New(sha256.New, []byte(c.webhookSecret))
	h.Write([]byte(signedPayload))
	expectedSig := hex.EncodeToString(h.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expectedSig)) {
			return true
		}
	}

	return false
}

// makeRequest makes an authenticated form-encoded request to the Stripe API
func (c *StripeClient) makeRequest(ctx context.Context, method, path string, data url.Values) ([]byte, error) {
	endpoint := c.baseURL + path

	var req *http.Request
	var err error
	if method == http.MethodGet {
		if len(data) > 0 {
			endpoint += "?" + data.Encode()
		}
		req, err = http.NewRequestWithContext(ctx, method, endpoint, nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(data.Encode()))
	}
	if err != nil {
		return nil, err
	}

	req.SetBasicAuth(c.secretKey, "")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("Stripe API error: %s - %s", resp.Status, string(respBody))
	}

	return respBody, nil
}
