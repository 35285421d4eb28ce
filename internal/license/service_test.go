package license

import (
	"errors"
	"testing"
	"time"

	"smart-stock-trader/internal/database"
)

func activeLicense(maxAccounts int) *database.License {
	expires := time.Now().Add(24 * time.Hour)
	return &database.License{
		ID:          "lic-1",
		LicenseKey:  "PRO-AAAA-BBBB-CCCC-DDDD",
		LicenseType: database.LicenseTypePro,
		MaxAccounts: maxAccounts,
		Status:      database.LicenseStatusActive,
		ExpiresAt:   &expires,
	}
}

func TestEvaluateOrder(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	owner := "user-1"
	other := "user-2"

	tests := []struct {
		name     string
		license  *database.License
		userID   string
		used     int
		wantCode string
	}{
		{
			name:     "not found",
			license:  nil,
			userID:   owner,
			wantCode: "LICENSE_NOT_FOUND",
		},
		{
			name: "expired wins over inactive status",
			license: func() *database.License {
				l := activeLicense(1)
				l.ExpiresAt = &past
				l.Status = database.LicenseStatusSuspended
				return l
			}(),
			userID:   owner,
			wantCode: "LICENSE_EXPIRED",
		},
		{
			name: "suspended",
			license: func() *database.License {
				l := activeLicense(1)
				l.Status = database.LicenseStatusSuspended
				return l
			}(),
			userID:   owner,
			wantCode: "LICENSE_INACTIVE",
		},
		{
			name: "revoked",
			license: func() *database.License {
				l := activeLicense(1)
				l.Status = database.LicenseStatusRevoked
				return l
			}(),
			userID:   owner,
			wantCode: "LICENSE_INACTIVE",
		},
		{
			name: "owned by another user",
			license: func() *database.License {
				l := activeLicense(1)
				l.UserID = &owner
				return l
			}(),
			userID:   other,
			wantCode: "LICENSE_IN_USE",
		},
		{
			name:     "seat limit at capacity",
			license:  activeLicense(3),
			userID:   owner,
			used:     3,
			wantCode: "SEAT_LIMIT_REACHED",
		},
		{
			name:     "seat limit over capacity",
			license:  activeLicense(1),
			userID:   owner,
			used:     2,
			wantCode: "SEAT_LIMIT_REACHED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Evaluate(tt.license, tt.userID, tt.used, now)
			var licErr Error
			if !errors.As(err, &licErr) {
				t.Fatalf("Evaluate() error = %v, want license.Error", err)
			}
			if licErr.Code != tt.wantCode {
				t.Errorf("Evaluate() code = %s, want %s", licErr.Code, tt.wantCode)
			}
		})
	}
}

func TestEvaluateAllows(t *testing.T) {
	now := time.Now()
	owner := "user-1"

	tests := []struct {
		name    string
		license *database.License
		userID  string
		used    int
	}{
		{"unclaimed license", activeLicense(1), owner, 0},
		{
			name: "claimed by same user",
			license: func() *database.License {
				l := activeLicense(3)
				l.UserID = &owner
				return l
			}(),
			userID: owner,
			used:   2,
		},
		{
			name: "never expires",
			license: func() *database.License {
				l := activeLicense(1)
				l.ExpiresAt = nil
				return l
			}(),
			userID: owner,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Evaluate(tt.license, tt.userID, tt.used, now); err != nil {
				t.Errorf("Evaluate() = %v, want nil", err)
			}
		})
	}
}

func TestEvaluateSeatBoundary(t *testing.T) {
	now := time.Now()
	lic := activeLicense(3)

	// One seat short of the allowance is allowed, at the allowance is not.
	if err := Evaluate(lic, "user-1", 2, now); err != nil {
		t.Errorf("used=2 max=3 should be allowed, got %v", err)
	}
	if err := Evaluate(lic, "user-1", 3, now); err == nil {
		t.Error("used=3 max=3 should be rejected")
	}
}

func TestPlanCatalog(t *testing.T) {
	tests := []struct {
		licenseType database.LicenseType
		priceCents  int64
		maxAccounts int
		days        int
	}{
		{database.LicenseTypeTrial, 0, 1, 7},
		{database.LicenseTypeBasic, 4900, 1, 365},
		{database.LicenseTypePro, 14900, 3, 365},
		{database.LicenseTypeEnterprise, 49900, 10, 365},
	}

	for _, tt := range tests {
		plan, ok := PlanFor(tt.licenseType)
		if !ok {
			t.Fatalf("PlanFor(%s) missing", tt.licenseType)
		}
		if plan.PriceCents != tt.priceCents {
			t.Errorf("%s price = %d, want %d", tt.licenseType, plan.PriceCents, tt.priceCents)
		}
		if plan.MaxAccounts != tt.maxAccounts {
			t.Errorf("%s max accounts = %d, want %d", tt.licenseType, plan.MaxAccounts, tt.maxAccounts)
		}
		if plan.DurationDays != tt.days {
			t.Errorf("%s duration = %d, want %d", tt.licenseType, plan.DurationDays, tt.days)
		}
	}

	if _, ok := PlanFor(database.LicenseType("GOLD")); ok {
		t.Error("unknown plan should not resolve")
	}
}
