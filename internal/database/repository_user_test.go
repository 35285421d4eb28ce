package database

import (
	"context"
	"testing"
)

// The session cleanup loop logs how many rows it removed, so the
// repository has to report the count alongside the error.
func TestDeleteExpiredSessionsReportsCount(t *testing.T) {
	var fn func(context.Context) (int64, error) = (&Repository{}).DeleteExpiredSessions
	if fn == nil {
		t.Fatal("DeleteExpiredSessions method missing")
	}
}
