package database

import (
	"testing"
	"time"
)

func TestBotInstanceIsOnline(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		heartbeat *time.Time
		online    bool
	}{
		{"no heartbeat", nil, false},
		{"just heartbeated", timePtr(now), true},
		{"one second inside window", timePtr(now.Add(-OnlineWindow + time.Second)), true},
		{"exactly at window", timePtr(now.Add(-OnlineWindow)), false},
		{"stale heartbeat", timePtr(now.Add(-time.Hour)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bot := &BotInstance{LastHeartbeat: tt.heartbeat}
			if got := bot.IsOnline(now); got != tt.online {
				t.Errorf("IsOnline() = %v, want %v", got, tt.online)
			}
		})
	}
}

func TestBotInstanceUptimeSeconds(t *testing.T) {
	now := time.Now()
	started := now.Add(-90*time.Second - 700*time.Millisecond)

	tests := []struct {
		name    string
		status  BotStatus
		started *time.Time
		want    int64
	}{
		{"running truncates to whole seconds", BotStatusRunning, &started, 90},
		{"stopped", BotStatusStopped, &started, 0},
		{"paused", BotStatusPaused, &started, 0},
		{"error", BotStatusError, &started, 0},
		{"running without start time", BotStatusRunning, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bot := &BotInstance{Status: tt.status, StartedAt: tt.started}
			if got := bot.UptimeSeconds(now); got != tt.want {
				t.Errorf("UptimeSeconds() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLicenseIsExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name    string
		expires *time.Time
		expired bool
	}{
		{"no expiry", nil, false},
		{"in the future", &future, false},
		{"in the past", &past, true},
		{"exactly now", &now, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lic := &License{ExpiresAt: tt.expires}
			if got := lic.IsExpired(now); got != tt.expired {
				t.Errorf("IsExpired() = %v, want %v", got, tt.expired)
			}
		})
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
