package cache

import (
	"context"
	"testing"
)

func TestStatsCacheNilServiceIsPermanentMiss(t *testing.T) {
	sc := NewStatsCache(nil)
	ctx := context.Background()

	var dest map[string]interface{}
	if sc.GetBotStats(ctx, "u1", "b1", &dest) {
		t.Error("GetBotStats should miss with no backing cache")
	}
	if sc.GetDashboard(ctx, "u1", &dest) {
		t.Error("GetDashboard should miss with no backing cache")
	}

	// Writes and invalidation must be safe no-ops
	sc.SetBotStats(ctx, "u1", "b1", map[string]int{"total": 1})
	sc.SetDashboard(ctx, "u1", map[string]int{"bots": 2})
	sc.InvalidateUser(ctx, "u1")
}
