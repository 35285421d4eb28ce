package bot

import (
	"testing"
	"time"

	"smart-stock-trader/internal/database"
)

func TestRegistrationRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     RegistrationRequest
		wantErr bool
	}{
		{"complete", RegistrationRequest{AccountNumber: "12345", BrokerName: "IC Markets"}, false},
		{"missing account", RegistrationRequest{BrokerName: "IC Markets"}, true},
		{"missing broker", RegistrationRequest{AccountNumber: "12345"}, true},
		{"missing both", RegistrationRequest{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && err != ErrMissingFields {
				t.Errorf("Validate() = %v, want ErrMissingFields", err)
			}
		})
	}
}

func TestDefaultInstanceName(t *testing.T) {
	if got := DefaultInstanceName("12345"); got != "Bot_12345" {
		t.Errorf("DefaultInstanceName = %q, want Bot_12345", got)
	}
}

func TestLifecycleGuards(t *testing.T) {
	if err := CanStart(database.BotStatusRunning); err != ErrAlreadyRunning {
		t.Errorf("CanStart(running) = %v, want ErrAlreadyRunning", err)
	}
	for _, s := range []database.BotStatus{database.BotStatusStopped, database.BotStatusPaused, database.BotStatusError} {
		if err := CanStart(s); err != nil {
			t.Errorf("CanStart(%s) = %v, want nil", s, err)
		}
	}

	if err := CanStop(database.BotStatusStopped); err != ErrAlreadyStopped {
		t.Errorf("CanStop(stopped) = %v, want ErrAlreadyStopped", err)
	}
	if err := CanStop(database.BotStatusRunning); err != nil {
		t.Errorf("CanStop(running) = %v, want nil", err)
	}

	if err := CanDelete(database.BotStatusRunning); err != ErrStillRunning {
		t.Errorf("CanDelete(running) = %v, want ErrStillRunning", err)
	}
	if err := CanDelete(database.BotStatusStopped); err != nil {
		t.Errorf("CanDelete(stopped) = %v, want nil", err)
	}
}

func TestNewStatusView(t *testing.T) {
	now := time.Now()
	heartbeat := now.Add(-time.Minute)
	started := now.Add(-10 * time.Minute)

	view := NewStatusView(&database.BotInstance{
		Status:        database.BotStatusRunning,
		LastHeartbeat: &heartbeat,
		StartedAt:     &started,
	}, now)

	if !view.Online {
		t.Error("bot with recent heartbeat should be online")
	}
	if view.UptimeSeconds != 600 {
		t.Errorf("UptimeSeconds = %d, want 600", view.UptimeSeconds)
	}

	stopped := NewStatusView(&database.BotInstance{
		Status:    database.BotStatusStopped,
		StartedAt: &started,
	}, now)
	if stopped.Online {
		t.Error("bot without heartbeat should be offline")
	}
	if stopped.UptimeSeconds != 0 {
		t.Errorf("stopped bot uptime = %d, want 0", stopped.UptimeSeconds)
	}
}
