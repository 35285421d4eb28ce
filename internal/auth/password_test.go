package auth

import (
	"strings"
	"testing"
	"time"
)

func TestValidatePasswordStrength(t *testing.T) {
	pm := NewPasswordManager(DefaultBcryptCost, 8)

	cases := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"strong mixed", "Str0ngPass!", false},
		{"three classes no special", "Passw0rdabc", false},
		{"too short", "Ab1!", true},
		{"only lowercase", "alllowercaseletters", true},
		{"lower and digits only", "abcdef123456", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := pm.ValidatePasswordStrength(tc.password)
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidatePasswordStrength(%q) err = %v, wantErr %v", tc.password, err, tc.wantErr)
			}
		})
	}
}

func TestPasswordLengthBounds(t *testing.T) {
	pm := NewPasswordManager(4, 12)

	if err := pm.ValidatePasswordStrength("Sh0rt!Pass"); err == nil {
		t.Error("expected password below the configured minimum to be rejected")
	}

	// 76 bytes, past what bcrypt reads
	long := strings.Repeat("Ab1!", 19)
	if err := pm.ValidatePasswordStrength(long); err == nil {
		t.Error("expected over-long password to be rejected")
	}
	if _, err := pm.HashPassword(long); err == nil {
		t.Error("expected over-long password to fail hashing")
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	// MinCost keeps the test fast
	pm := NewPasswordManager(4, 8)

	hash, err := pm.HashPassword("Str0ngPass!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	if !pm.VerifyPassword("Str0ngPass!", hash) {
		t.Error("expected correct password to verify")
	}
	if pm.VerifyPassword("WrongPass1!", hash) {
		t.Error("expected wrong password to fail verification")
	}
}

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", 15*time.Minute, 24*time.Hour)

	claims := UserClaims{
		UserID:  "user-1",
		Email:   "trader@example.com",
		Role:    "admin",
		IsAdmin: true,
	}

	token, err := m.GenerateAccessToken(claims)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	parsed, err := m.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}

	if parsed.UserID != claims.UserID || parsed.Email != claims.Email {
		t.Errorf("claims mismatch: got %+v", parsed)
	}
	if !parsed.IsAdmin {
		t.Error("expected admin claim to survive the round trip")
	}
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	m := NewJWTManager("test-secret", -1*time.Minute, 24*time.Hour)

	token, err := m.GenerateAccessToken(UserClaims{UserID: "user-1"})
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if _, err := m.ValidateAccessToken(token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	m := NewJWTManager("secret-a", 15*time.Minute, 24*time.Hour)
	other := NewJWTManager("secret-b", 15*time.Minute, 24*time.Hour)

	token, err := m.GenerateAccessToken(UserClaims{UserID: "user-1"})
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if _, err := other.ValidateAccessToken(token); err == nil {
		t.Error("expected token signed with a different secret to be rejected")
	}
}

func TestHashRefreshTokenIsStable(t *testing.T) {
	a := HashRefreshToken("token-value")
	b := HashRefreshToken("token-value")
	if a != b {
		t.Error("expected identical tokens to hash identically")
	}
	if a == HashRefreshToken("other-token") {
		t.Error("expected different tokens to hash differently")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}
