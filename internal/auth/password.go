package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the bcrypt work factor used when none is configured.
const DefaultBcryptCost = 12

const (
	minPasswordLength = 8

	// bcrypt only reads the first 72 bytes of input, so anything longer
	// is rejected up front instead of being silently truncated.
	maxPasswordLength = 72

	// A password must cover at least this many of the four character
	// classes (upper, lower, digit, symbol).
	requiredCharClasses = 3
)

// PasswordManager hashes trader account passwords and enforces the
// signup strength policy.
type PasswordManager struct {
	cost      int
	minLength int
}

func NewPasswordManager(cost, minLength int) *PasswordManager {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	if minLength < minPasswordLength {
		minLength = minPasswordLength
	}
	return &PasswordManager{cost: cost, minLength: minLength}
}

// HashPassword returns the bcrypt hash stored in users.password_hash.
func (p *PasswordManager) HashPassword(password string) (string, error) {
	if len(password) > maxPasswordLength {
		return "", fmt.Errorf("password exceeds %d bytes", maxPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
func (p *PasswordManager) VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePasswordStrength applies the signup policy: the configured
// minimum length and at least three of the four character classes.
func (p *PasswordManager) ValidatePasswordStrength(password string) error {
	if len(password) < p.minLength {
		return fmt.Errorf("password must be at least %d characters", p.minLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("password must be at most %d characters", maxPasswordLength)
	}
	if classCount(password) < requiredCharClasses {
		return fmt.Errorf("password must mix at least %d of: upper case, lower case, digits, symbols", requiredCharClasses)
	}
	return nil
}

// classCount reports how many character classes appear in s.
func classCount(s string) int {
	var upper, lower, digit, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	n := 0
	for _, seen := range []bool{upper, lower, digit, symbol} {
		if seen {
			n++
		}
	}
	return n
}

// HashRefreshToken derives the storage key for a refresh token. Only the
// SHA-256 hex digest is persisted in user_sessions, never the token itself.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
