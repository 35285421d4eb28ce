package billing

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"smart-stock-trader/internal/database"
	"smart-stock-trader/internal/email"
	"smart-stock-trader/internal/license"
	"smart-stock-trader/internal/logging"
)

// Error is a client-facing billing failure
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrNotConfigured = &Error{Code: "BILLING_NOT_CONFIGURED", Message: "payments are not configured"}
	ErrUnknownPlan   = &Error{Code: "UNKNOWN_PLAN", Message: "unknown plan"}
	ErrSessionUnpaid = &Error{Code: "PAYMENT_INCOMPLETE", Message: "payment has not been completed"}
)

// Service coordinates checkout, payment fulfillment and trial signup
type Service struct {
	stripe   *StripeClient
	repo     *database.Repository
	licenses *license.Service
	mailer   *email.Service
	config   StripeConfig
	logger   zerolog.Logger
}

// NewService creates a new billing service
func NewService(stripe *StripeClient, repo *database.Repository, licenses *license.Service, mailer *email.Service, config StripeConfig) *Service {
	return &Service{
		stripe:   stripe,
		repo:     repo,
		licenses: licenses,
		mailer:   mailer,
		config:   config,
		logger:   logging.Component("billing"),
	}
}

// CheckoutResult carries the Stripe redirect for a started checkout
type CheckoutResult struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// CreateCheckout starts a Stripe Checkout session for a paid plan.
// The license is only issued once payment completes.
func (s *Service) CreateCheckout(ctx context.Context, licenseType database.LicenseType, userEmail, userID string) (*CheckoutResult, error) {
	if !s.stripe.IsConfigured() {
		return nil, ErrNotConfigured
	}

	plan, ok := license.PlanFor(licenseType)
	if !ok || plan.PriceCents == 0 {
		return nil, ErrUnknownPlan
	}

	metadata := map[string]string{
		"license_type": string(licenseType),
	}
	if userID != "" {
		metadata["user_id"] = userID
	}

	session, err := s.stripe.CreateCheckoutSession(ctx, CheckoutParams{
		ProductName: fmt.Sprintf("Smart Stock Trader %s Plan", plan.Name),
		AmountCents: plan.PriceCents,
		Email:       userEmail,
		SuccessURL:  s.config.SuccessURL,
		CancelURL:   s.config.CancelURL,
		Metadata:    metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout: %w", err)
	}

	s.logger.Info().
		Str("session_id", session.ID).
		Str("plan", string(licenseType)).
		Msg("Checkout session created")

	return &CheckoutResult{
		SessionID:   session.ID,
		CheckoutURL: session.URL,
	}, nil
}

// FulfillPayment issues the license for a completed checkout session.
// It is idempotent, a session that was already fulfilled returns the
// existing license without issuing a second key.
func (s *Service) FulfillPayment(ctx context.Context, sessionID string) (*database.License, error) {
	existing, err := s.repo.GetLicenseByStripeSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to check session: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	session, err := s.stripe.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsPaid() {
		return nil, ErrSessionUnpaid
	}

	licenseType := database.LicenseType(session.Metadata["license_type"])
	plan, ok := license.PlanFor(licenseType)
	if !ok {
		return nil, ErrUnknownPlan
	}

	var userID *string
	if id := session.Metadata["user_id"]; id != "" {
		userID = &id
	}

	lic, err := s.licenses.Issue(ctx, licenseType, userID, &sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue license: %w", err)
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Str("license_id", lic.ID).
		Str("plan", string(licenseType)).
		Msg("Payment fulfilled")

	if to := session.Email(); to != "" {
		s.mailer.SendLicenseKeyEmail(to, lic.LicenseKey, plan.Name)
	}

	return lic, nil
}

// HandleWebhook processes a verified Stripe webhook payload
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.stripe.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}

	s.logger.Debug().Str("type", event.Type).Str("event_id", event.ID).Msg("Stripe webhook received")

	switch event.Type {
	case "checkout.session.completed":
		var session struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(event.Data.Object, &session); err != nil {
			return fmt.Errorf("failed to parse checkout session: %w", err)
		}
		if _, err := s.FulfillPayment(ctx, session.ID); err != nil {
			return err
		}
	default:
		s.logger.Debug().Str("type", event.Type).Msg("Ignoring webhook event")
	}

	return nil
}

// TrialResult carries the outcome of a trial signup
type TrialResult struct {
	User        *database.User    `json:"user"`
	License     *database.License `json:"license"`
	UserCreated bool              `json:"user_created"`
}

// StartTrial provisions a trial account and license in one step. A new
// user gets random credentials emailed together with the key. Credential
// email failure never rolls the trial back.
func (s *Service) StartTrial(ctx context.Context, emailAddr, firstName, lastName string) (*TrialResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	created := false
	var plainPassword string
	if user == nil {
		plainPassword, err = randomPassword()
		if err != nil {
			return nil, err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}

		user = &database.User{
			Email:         emailAddr,
			PasswordHash:  string(hash),
			FirstName:     firstName,
			LastName:      lastName,
			Role:          database.RoleUser,
			IsActive:      true,
			EmailVerified: true,
		}
		if err := s.repo.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create trial user: %w", err)
		}
		created = true
	}

	lic, err := s.licenses.Issue(ctx, database.LicenseTypeTrial, &user.ID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to issue trial license: %w", err)
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("license_id", lic.ID).
		Bool("user_created", created).
		Msg("Trial started")

	if created {
		s.mailer.SendTrialCredentialsEmail(user.Email, plainPassword, lic.LicenseKey)
	} else {
		s.mailer.SendLicenseKeyEmail(user.Email, lic.LicenseKey, "Trial")
	}

	return &TrialResult{User: user, License: lic, UserCreated: created}, nil
}

func randomPassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
