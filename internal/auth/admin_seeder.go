package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"smart-stock-trader/internal/database"
	"smart-stock-trader/internal/logging"
)

// AdminBcryptCost is the bcrypt cost for the seeded admin password
const AdminBcryptCost = 12

// SeedAdminUser ensures an admin user exists with the configured credentials.
// It creates the admin if missing, or resets the password when it no longer
// matches the configured one. Seeding is skipped when email or password is empty.
func SeedAdminUser(ctx context.Context, repo *database.Repository, email, password string) error {
	logger := logging.Component("admin-seeder")

	if email == "" || password == "" {
		logger.Debug().Msg("Admin credentials not configured, skipping seed")
		return nil
	}

	user, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check for admin user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), AdminBcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	if user == nil {
		logger.Info().Str("email", email).Msg("Admin user not found, creating")

		adminUser := &database.User{
			Email:         email,
			PasswordHash:  string(hashedPassword),
			FirstName:     "Admin",
			Role:          database.RoleAdmin,
			IsActive:      true,
			EmailVerified: true,
		}

		if err := repo.CreateUser(ctx, adminUser); err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		logger.Info().Str("user_id", adminUser.ID).Msg("Admin user created")
		return nil
	}

	// Reset the password when it no longer matches the configured one
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.Info().Str("email", email).Msg("Updating admin password")

		if err := repo.UpdateUserPassword(ctx, user.ID, string(hashedPassword)); err != nil {
			return fmt.Errorf("failed to update admin password: %w", err)
		}
	}

	// Ensure admin flags survive manual edits
	if !user.IsAdmin() || !user.IsActive || !user.EmailVerified {
		user.Role = database.RoleAdmin
		user.IsActive = true
		user.EmailVerified = true

		if err := repo.UpdateUser(ctx, user); err != nil {
			return fmt.Errorf("failed to update admin user flags: %w", err)
		}

		logger.Info().Str("user_id", user.ID).Msg("Admin user flags updated")
	}

	return nil
}
