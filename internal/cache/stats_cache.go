package cache

import (
	"context"
	"fmt"
)

// StatsCache caches computed per-bot statistics and dashboard summaries.
// All methods are best effort, a nil receiver or unhealthy Redis simply
// behaves as a permanent miss.
type StatsCache struct {
	cache *CacheService
}

// NewStatsCache creates a StatsCache. A nil CacheService disables caching.
func NewStatsCache(cache *CacheService) *StatsCache {
	return &StatsCache{cache: cache}
}

func (sc *StatsCache) enabled() bool {
	return sc != nil && sc.cache != nil
}

// GetBotStats loads cached stats for a bot into dest. Returns false on miss.
func (sc *StatsCache) GetBotStats(ctx context.Context, userID, botID string, dest interface{}) bool {
	if !sc.enabled() {
		return false
	}
	key := fmt.Sprintf(KeyBotStats, userID, botID)
	return sc.cache.GetJSON(ctx, key, dest) == nil
}

// SetBotStats stores computed stats for a bot.
func (sc *StatsCache) SetBotStats(ctx context.Context, userID, botID string, value interface{}) {
	if !sc.enabled() {
		return
	}
	key := fmt.Sprintf(KeyBotStats, userID, botID)
	if err := sc.cache.SetJSON(ctx, key, value, StatsTTL); err != nil {
		sc.cache.logger.Debug().Err(err).Str("key", key).Msg("Stats cache write skipped")
	}
}

// GetDashboard loads a cached dashboard summary. Returns false on miss.
func (sc *StatsCache) GetDashboard(ctx context.Context, userID string, dest interface{}) bool {
	if !sc.enabled() {
		return false
	}
	key := fmt.Sprintf(KeyUserDashboard, userID)
	return sc.cache.GetJSON(ctx, key, dest) == nil
}

// SetDashboard stores a dashboard summary.
func (sc *StatsCache) SetDashboard(ctx context.Context, userID string, value interface{}) {
	if !sc.enabled() {
		return
	}
	key := fmt.Sprintf(KeyUserDashboard, userID)
	if err := sc.cache.SetJSON(ctx, key, value, DashboardTTL); err != nil {
		sc.cache.logger.Debug().Err(err).Str("key", key).Msg("Dashboard cache write skipped")
	}
}

// InvalidateUser drops every cached entry for a user. Called when trades
// close or bots change so stale stats never outlive the TTL by much.
func (sc *StatsCache) InvalidateUser(ctx context.Context, userID string) {
	if !sc.enabled() {
		return
	}
	if err := sc.cache.DeletePattern(ctx, fmt.Sprintf("user:%s:*", userID)); err != nil {
		sc.cache.logger.Debug().Err(err).Str("user_id", userID).Msg("Cache invalidation skipped")
	}
}
