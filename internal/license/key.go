package license

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"smart-stock-trader/internal/database"
)

// KeyPattern matches PREFIX-XXXX-XXXX-XXXX-XXXX keys. LIC is the
// generic prefix used for admin-issued keys.
var KeyPattern = regexp.MustCompile(`^(TRL|BSC|PRO|ENT|LIC)-[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

// NormalizeKey trims and uppercases a raw key before matching
func NormalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// ValidFormat reports whether a normalized key matches the key pattern
func ValidFormat(key string) bool {
	return KeyPattern.MatchString(key)
}

// keyPrefix maps a plan to its key prefix
func keyPrefix(licenseType database.LicenseType) string {
	switch licenseType {
	case database.LicenseTypeTrial:
		return "TRL"
	case database.LicenseTypeBasic:
		return "BSC"
	case database.LicenseTypePro:
		return "PRO"
	case database.LicenseTypeEnterprise:
		return "ENT"
	default:
		return "LIC"
	}
}

// GenerateKey creates a new license key for a plan. The body is 8
// random bytes hex-encoded, grouped 4 by 4.
func GenerateKey(licenseType database.LicenseType) (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate key material: %w", err)
	}

	body := strings.ToUpper(hex.EncodeToString(buf))
	return fmt.Sprintf("%s-%s-%s-%s-%s",
		keyPrefix(licenseType), body[0:4], body[4:8], body[8:12], body[12:16]), nil
}
