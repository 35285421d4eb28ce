package license

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"smart-stock-trader/internal/database"
	"smart-stock-trader/internal/logging"
)

// Service validates, claims and issues license keys
type Service struct {
	repo   *database.Repository
	logger zerolog.Logger
}

// NewService creates a license service
func NewService(repo *database.Repository) *Service {
	return &Service{
		repo:   repo,
		logger: logging.Component("license"),
	}
}

// ValidationResult is returned on a successful validation
type ValidationResult struct {
	License        *database.License `json:"license"`
	UsedAccounts   int               `json:"used_accounts"`
	AvailableSlots int               `json:"available_slots"`
}

// Evaluate runs the ordered business checks against a loaded license.
// It short-circuits on the first failure so every caller reports the
// same failure kind for the same state.
func Evaluate(lic *database.License, userID string, usedAccounts int, now time.Time) error {
	if lic == nil {
		return ErrNotFound
	}
	if lic.IsExpired(now) {
		return ErrExpired
	}
	if lic.Status != database.LicenseStatusActive {
		return InactiveError(lic.Status)
	}
	if lic.UserID != nil && userID != "" && *lic.UserID != userID {
		return ErrOwnedByOther
	}
	if usedAccounts >= lic.MaxAccounts {
		return SeatLimitError(lic.MaxAccounts, usedAccounts)
	}
	return nil
}

// Validate checks a raw key for the given user and, on success, claims
// the key for that user and records the validation.
func (s *Service) Validate(ctx context.Context, rawKey, userID string) (*ValidationResult, error) {
	key := NormalizeKey(rawKey)
	if key == "" {
		return nil, ErrKeyRequired
	}
	if !ValidFormat(key) {
		return nil, ErrInvalidFormat
	}

	lic, err := s.repo.GetLicenseByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load license: %w", err)
	}
	if lic == nil {
		return nil, ErrNotFound
	}

	now := time.Now()
	if lic.IsExpired(now) && lic.Status == database.LicenseStatusActive {
		// Persist the state the check already decided on.
		if err := s.repo.UpdateLicenseStatus(ctx, lic.ID, database.LicenseStatusExpired); err != nil {
			s.logger.Warn().Err(err).Str("license_id", lic.ID).Msg("Failed to mark license expired")
		}
	}

	used, err := s.repo.CountBoundInstances(ctx, lic.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count bound instances: %w", err)
	}

	if err := Evaluate(lic, userID, used, now); err != nil {
		return nil, err
	}

	claimed, err := s.repo.ClaimLicense(ctx, lic.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim license: %w", err)
	}
	if !claimed {
		// Another user won the claim between the read and the update.
		return nil, ErrOwnedByOther
	}

	lic, err = s.repo.GetLicenseByID(ctx, lic.ID)
	if err != nil || lic == nil {
		return nil, fmt.Errorf("failed to reload license: %w", err)
	}

	s.logger.Info().
		Str("license_id", lic.ID).
		Str("user_id", userID).
		Int("used_accounts", used).
		Msg("License validated")

	return &ValidationResult{
		License:        lic,
		UsedAccounts:   used,
		AvailableSlots: lic.MaxAccounts - used,
	}, nil
}

// Issue creates a new license for a plan. userID may be nil for keys
// sold before an account exists; the first validation claims them.
func (s *Service) Issue(ctx context.Context, licenseType database.LicenseType, userID, stripeSessionID *string) (*database.License, error) {
	plan, ok := PlanFor(licenseType)
	if !ok {
		return nil, fmt.Errorf("unknown license type: %s", licenseType)
	}

	key, err := GenerateKey(licenseType)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expires := now.AddDate(0, 0, plan.DurationDays)

	lic := &database.License{
		UserID:          userID,
		LicenseKey:      key,
		LicenseType:     licenseType,
		MaxAccounts:     plan.MaxAccounts,
		Status:          database.LicenseStatusActive,
		ExpiresAt:       &expires,
		StripeSessionID: stripeSessionID,
	}
	if userID != nil {
		lic.IssuedAt = &now
	}

	if err := s.repo.CreateLicense(ctx, lic); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("license_id", lic.ID).
		Str("license_type", string(licenseType)).
		Msg("License issued")

	return lic, nil
}

// Revoke marks a license revoked so further validations fail
func (s *Service) Revoke(ctx context.Context, licenseID string) error {
	return s.repo.UpdateLicenseStatus(ctx, licenseID, database.LicenseStatusRevoked)
}
