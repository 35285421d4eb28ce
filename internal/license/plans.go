package license

import (
	"smart-stock-trader/internal/database"
)

// Plan describes one purchasable license tier
type Plan struct {
	Type         database.LicenseType `json:"type"`
	Name         string               `json:"name"`
	PriceCents   int64                `json:"price_cents"`
	MaxAccounts  int                  `json:"max_accounts"`
	DurationDays int                  `json:"duration_days"`
}

// Plans is the fixed plan catalog
var Plans = map[database.LicenseType]Plan{
	database.LicenseTypeTrial: {
		Type:         database.LicenseTypeTrial,
		Name:         "Trial",
		PriceCents:   0,
		MaxAccounts:  1,
		DurationDays: 7,
	},
	database.LicenseTypeBasic: {
		Type:         database.LicenseTypeBasic,
		Name:         "Basic",
		PriceCents:   4900,
		MaxAccounts:  1,
		DurationDays: 365,
	},
	database.LicenseTypePro: {
		Type:         database.LicenseTypePro,
		Name:         "Pro",
		PriceCents:   14900,
		MaxAccounts:  3,
		DurationDays: 365,
	},
	database.LicenseTypeEnterprise: {
		Type:         database.LicenseTypeEnterprise,
		Name:         "Enterprise",
		PriceCents:   49900,
		MaxAccounts:  10,
		DurationDays: 365,
	},
}

// PlanFor looks up the plan for a license type
func PlanFor(licenseType database.LicenseType) (Plan, bool) {
	plan, ok := Plans[licenseType]
	return plan, ok
}
