package license

import (
	"strings"
	"testing"

	"smart-stock-trader/internal/database"
)

func TestValidFormat(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		valid bool
	}{
		{"trial prefix", "TRL-A1B2-C3D4-E5F6-A7B8", true},
		{"basic prefix", "BSC-0000-1111-2222-3333", true},
		{"pro prefix", "PRO-AAAA-BBBB-CCCC-DDDD", true},
		{"enterprise prefix", "ENT-1A2B-3C4D-5E6F-7A8B", true},
		{"generic prefix", "LIC-1234-5678-9ABC-DEF0", true},
		{"unknown prefix", "XXX-1234-5678-9ABC-DEF0", false},
		{"lowercase", "trl-a1b2-c3d4-e5f6-a7b8", false},
		{"missing group", "PRO-AAAA-BBBB-CCCC", false},
		{"extra group", "PRO-AAAA-BBBB-CCCC-DDDD-EEEE", false},
		{"short group", "PRO-AAA-BBBB-CCCC-DDDD", false},
		{"empty", "", false},
		{"no dashes", "PROAAAABBBBCCCCDDDD", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidFormat(tt.key); got != tt.valid {
				t.Errorf("ValidFormat(%q) = %v, want %v", tt.key, got, tt.valid)
			}
		})
	}
}

func TestNormalizeKey(t *testing.T) {
	key := NormalizeKey("  trl-a1b2-c3d4-e5f6-a7b8 ")
	if key != "TRL-A1B2-C3D4-E5F6-A7B8" {
		t.Errorf("NormalizeKey = %q", key)
	}
	if !ValidFormat(key) {
		t.Error("normalized key should be valid")
	}
}

func TestGenerateKey(t *testing.T) {
	prefixes := map[database.LicenseType]string{
		database.LicenseTypeTrial:      "TRL",
		database.LicenseTypeBasic:      "BSC",
		database.LicenseTypePro:        "PRO",
		database.LicenseTypeEnterprise: "ENT",
	}

	for licenseType, prefix := range prefixes {
		key, err := GenerateKey(licenseType)
		if err != nil {
			t.Fatalf("GenerateKey(%s): %v", licenseType, err)
		}
		if !strings.HasPrefix(key, prefix+"-") {
			t.Errorf("GenerateKey(%s) = %q, want prefix %s", licenseType, key, prefix)
		}
		if !ValidFormat(key) {
			t.Errorf("generated key %q does not match key pattern", key)
		}
	}
}

func TestGenerateKeyUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key, err := GenerateKey(database.LicenseTypePro)
		if err != nil {
			t.Fatal(err)
		}
		if seen[key] {
			t.Fatalf("duplicate key generated: %s", key)
		}
		seen[key] = true
	}
}
