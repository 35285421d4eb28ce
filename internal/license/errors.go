package license

import (
	"fmt"

	"smart-stock-trader/internal/database"
)

// Error is a validation failure with a stable machine-readable code
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e Error) Error() string {
	return e.Message
}

// Validation failure kinds, checked in order
var (
	ErrKeyRequired   = Error{Code: "LICENSE_KEY_REQUIRED", Message: "license key is required"}
	ErrInvalidFormat = Error{Code: "INVALID_LICENSE_FORMAT", Message: "invalid license key format"}
	ErrNotFound      = Error{Code: "LICENSE_NOT_FOUND", Message: "license key not found"}
	ErrExpired       = Error{Code: "LICENSE_EXPIRED", Message: "license has expired"}
	ErrOwnedByOther  = Error{Code: "LICENSE_IN_USE", Message: "license key is already in use by another account"}
)

// InactiveError reports the concrete non-active status of a license
func InactiveError(status database.LicenseStatus) Error {
	return Error{
		Code:    "LICENSE_INACTIVE",
		Message: fmt.Sprintf("license is %s", status),
	}
}

// SeatLimitError reports an exhausted account allowance
func SeatLimitError(maxAccounts, used int) Error {
	return Error{
		Code:    "SEAT_LIMIT_REACHED",
		Message: fmt.Sprintf("license account limit reached (%d/%d accounts in use)", used, maxAccounts),
	}
}
