package database

import (
	"time"
)

// UserRole represents a user's access level
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// LicenseType identifies the purchased plan of a license
type LicenseType string

const (
	LicenseTypeTrial      LicenseType = "TRIAL"
	LicenseTypeBasic      LicenseType = "BASIC"
	LicenseTypePro        LicenseType = "PRO"
	LicenseTypeEnterprise LicenseType = "ENTERPRISE"
)

// LicenseStatus is the lifecycle state of a license
type LicenseStatus string

const (
	LicenseStatusActive    LicenseStatus = "active"
	LicenseStatusSuspended LicenseStatus = "suspended"
	LicenseStatusExpired   LicenseStatus = "expired"
	LicenseStatusRevoked   LicenseStatus = "revoked"
)

// BotStatus is the reported run state of an EA instance
type BotStatus string

const (
	BotStatusRunning BotStatus = "running"
	BotStatusStopped BotStatus = "stopped"
	BotStatusPaused  BotStatus = "paused"
	BotStatusError   BotStatus = "error"
)

// TradeType is the direction of an MT4 order
type TradeType string

const (
	TradeTypeBuy  TradeType = "BUY"
	TradeTypeSell TradeType = "SELL"
)

// TradeStatus is the lifecycle state of a trade
type TradeStatus string

const (
	TradeStatusOpen      TradeStatus = "open"
	TradeStatusClosed    TradeStatus = "closed"
	TradeStatusCancelled TradeStatus = "cancelled"
)

// LogLevel is the severity of a bot log entry
type LogLevel string

const (
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARNING"
	LogLevelError   LogLevel = "ERROR"
	LogLevelDebug   LogLevel = "DEBUG"
)

// User represents a platform user
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"` // Never serialize
	FirstName     string     `json:"first_name,omitempty"`
	LastName      string     `json:"last_name,omitempty"`
	Role          UserRole   `json:"role"`
	IsActive      bool       `json:"is_active"`
	EmailVerified bool       `json:"email_verified"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserSession represents an active user session with refresh token
type UserSession struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	RefreshTokenHash string     `json:"-"` // Never serialize
	DeviceInfo       string     `json:"device_info,omitempty"`
	IPAddress        string     `json:"ip_address,omitempty"`
	UserAgent        string     `json:"user_agent,omitempty"`
	ExpiresAt        time.Time  `json:"expires_at"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	LastUsedAt       time.Time  `json:"last_used_at"`
}

// License represents a product license key.
// UserID is nil until the first successful validation claims the key.
type License struct {
	ID              string        `json:"id"`
	UserID          *string       `json:"user_id,omitempty"`
	LicenseKey      string        `json:"license_key"`
	LicenseType     LicenseType   `json:"license_type"`
	MaxAccounts     int           `json:"max_accounts"`
	Status          LicenseStatus `json:"status"`
	IssuedAt        *time.Time    `json:"issued_at,omitempty"`
	ExpiresAt       *time.Time    `json:"expires_at,omitempty"`
	LastValidated   *time.Time    `json:"last_validated,omitempty"`
	StripeSessionID *string       `json:"-"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// IsExpired reports whether the license has passed its expiry instant.
// A license is still valid at the exact instant, and a nil expiry never
// expires.
func (l *License) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}

// OnlineWindow is how recent a heartbeat must be for an instance to
// count as online.
const OnlineWindow = 5 * time.Minute

// BotInstance represents one registered EA terminal.
// An instance is identified by (user, MT4 account, broker).
type BotInstance struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	LicenseID      *string    `json:"license_id,omitempty"`
	InstanceName   string     `json:"instance_name"`
	MT4Account     string     `json:"mt4_account"`
	BrokerName     string     `json:"broker_name"`
	BrokerServer   string     `json:"broker_server,omitempty"`
	AccountName    string     `json:"account_name,omitempty"`
	Version        string     `json:"version,omitempty"`
	Status         BotStatus  `json:"status"`
	IsLive         bool       `json:"is_live"`
	CurrentBalance *float64   `json:"current_balance,omitempty"`
	CurrentEquity  *float64   `json:"current_equity,omitempty"`
	LastHeartbeat  *time.Time `json:"last_heartbeat,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	StoppedAt      *time.Time `json:"stopped_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsOnline reports whether the instance heartbeated within the online
// window. An instance with no heartbeat yet is offline.
func (b *BotInstance) IsOnline(now time.Time) bool {
	if b.LastHeartbeat == nil {
		return false
	}
	return now.Sub(*b.LastHeartbeat) < OnlineWindow
}

// UptimeSeconds returns whole seconds since the instance started, or 0
// when it is not running.
func (b *BotInstance) UptimeSeconds(now time.Time) int64 {
	if b.Status != BotStatusRunning || b.StartedAt == nil {
		return 0
	}
	secs := int64(now.Sub(*b.StartedAt).Seconds())
	if secs < 0 {
		return 0
	}
	return secs
}

// Trade represents one MT4 order reported by an EA instance
type Trade struct {
	ID               string      `json:"id"`
	BotInstanceID    string      `json:"bot_instance_id"`
	TicketNumber     int64       `json:"ticket_number"`
	Symbol           string      `json:"symbol"`
	TradeType        TradeType   `json:"trade_type"`
	LotSize          float64     `json:"lot_size"`
	OpenPrice        float64     `json:"open_price"`
	ClosePrice       *float64    `json:"close_price,omitempty"`
	StopLoss         *float64    `json:"stop_loss,omitempty"`
	TakeProfit       *float64    `json:"take_profit,omitempty"`
	Commission       float64     `json:"commission"`
	Swap             float64     `json:"swap"`
	Profit           float64     `json:"profit"`
	ProfitPercentage *float64    `json:"profit_percentage,omitempty"`
	Status           TradeStatus `json:"status"`
	StrategyUsed     string      `json:"strategy_used,omitempty"`
	OpenedAt         time.Time   `json:"opened_at"`
	ClosedAt         *time.Time  `json:"closed_at,omitempty"`
	DurationSeconds  *int64      `json:"duration_seconds,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// BotLog is an append-only diagnostic entry emitted by or about an instance
type BotLog struct {
	ID            string    `json:"id"`
	BotInstanceID string    `json:"bot_instance_id"`
	LogLevel      LogLevel  `json:"log_level"`
	Category      string    `json:"category,omitempty"`
	Message       string    `json:"message"`
	Metadata      []byte    `json:"metadata,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
