package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"smart-stock-trader/internal/database"
	"smart-stock-trader/internal/events"
	"smart-stock-trader/internal/license"
	"smart-stock-trader/internal/logging"
)

// Error is a registry failure with a stable machine-readable code
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e Error) Error() string {
	return e.Message
}

var (
	ErrMissingFields  = Error{Code: "MISSING_FIELDS", Message: "account_number and broker_name are required"}
	ErrNotFound       = Error{Code: "BOT_NOT_FOUND", Message: "bot instance not found"}
	ErrAlreadyRunning = Error{Code: "BOT_ALREADY_RUNNING", Message: "bot is already running"}
	ErrAlreadyStopped = Error{Code: "BOT_ALREADY_STOPPED", Message: "bot is already stopped"}
	ErrStillRunning   = Error{Code: "BOT_RUNNING", Message: "cannot delete a running bot, stop it first"}
)

// Registry manages EA instance registrations and lifecycle
type Registry struct {
	repo     *database.Repository
	licenses *license.Service
	bus      *events.EventBus
	logger   zerolog.Logger
}

// NewRegistry creates a bot registry
func NewRegistry(repo *database.Repository, licenses *license.Service, bus *events.EventBus) *Registry {
	return &Registry{
		repo:     repo,
		licenses: licenses,
		bus:      bus,
		logger:   logging.Component("bot"),
	}
}

// RegistrationRequest is what an EA sends when it connects
type RegistrationRequest struct {
	AccountNumber string `json:"account_number"`
	BrokerName    string `json:"broker_name"`
	BrokerServer  string `json:"broker_server"`
	AccountName   string `json:"account_name"`
	InstanceName  string `json:"instance_name"`
	Version       string `json:"version"`
	LicenseKey    string `json:"license_key"`
	IsLive        bool   `json:"is_live"`
}

// Validate checks the required registration fields
func (r RegistrationRequest) Validate() error {
	if r.AccountNumber == "" || r.BrokerName == "" {
		return ErrMissingFields
	}
	return nil
}

// DefaultInstanceName is the name used when the EA does not send one
func DefaultInstanceName(accountNumber string) string {
	return fmt.Sprintf("Bot_%s", accountNumber)
}

// RegistrationResult reports the outcome of a registration
type RegistrationResult struct {
	Bot     *database.BotInstance     `json:"bot"`
	Created bool                      `json:"created"`
	License *license.ValidationResult `json:"license,omitempty"`
}

// Register creates or refreshes the instance row for the calling EA.
// Re-registration of a known (account, broker) identity refreshes the
// row instead of creating a duplicate. A provided license key is
// validated and claimed first; any license failure aborts the
// registration before a row is touched.
func (reg *Registry) Register(ctx context.Context, userID string, req RegistrationRequest) (*RegistrationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var licResult *license.ValidationResult
	var licenseID *string
	if req.LicenseKey != "" {
		result, err := reg.licenses.Validate(ctx, req.LicenseKey, userID)
		if err != nil {
			return nil, err
		}
		licResult = result
		licenseID = &result.License.ID
	}

	name := req.InstanceName
	if name == "" {
		name = DefaultInstanceName(req.AccountNumber)
	}

	bot := &database.BotInstance{
		UserID:       userID,
		LicenseID:    licenseID,
		InstanceName: name,
		MT4Account:   req.AccountNumber,
		BrokerName:   req.BrokerName,
		BrokerServer: req.BrokerServer,
		AccountName:  req.AccountName,
		Version:      req.Version,
		IsLive:       req.IsLive,
	}

	created, err := reg.repo.RegisterBot(ctx, bot)
	if err != nil {
		var seatErr *database.SeatLimitError
		if errors.As(err, &seatErr) {
			return nil, license.SeatLimitError(seatErr.MaxAccounts, seatErr.UsedSeats)
		}
		return nil, err
	}

	if created {
		reg.appendLog(ctx, bot.ID, database.LogLevelInfo, "SYSTEM", "Bot registered")
		reg.bus.PublishBotEvent(events.EventBotRegistered, userID, bot.ID, bot.InstanceName, string(bot.Status))
		reg.logger.Info().
			Str("bot_id", bot.ID).
			Str("mt4_account", bot.MT4Account).
			Str("broker", bot.BrokerName).
			Msg("Bot registered")
	} else {
		reg.appendLog(ctx, bot.ID, database.LogLevelInfo, "SYSTEM", "Bot reconnected")
		reg.bus.PublishBotEvent(events.EventBotReconnected, userID, bot.ID, bot.InstanceName, string(bot.Status))
		reg.logger.Info().
			Str("bot_id", bot.ID).
			Str("mt4_account", bot.MT4Account).
			Msg("Bot reconnected")
	}

	return &RegistrationResult{Bot: bot, Created: created, License: licResult}, nil
}

// Heartbeat records a liveness report from an EA. Status, balance and
// equity are optional and only stored when reported.
func (reg *Registry) Heartbeat(ctx context.Context, userID, botID string, status *database.BotStatus, balance, equity *float64) (*database.BotInstance, error) {
	bot, err := reg.ownedBot(ctx, userID, botID)
	if err != nil {
		return nil, err
	}

	if err := reg.repo.UpdateHeartbeat(ctx, bot.ID, status, balance, equity); err != nil {
		return nil, err
	}

	reg.bus.PublishHeartbeat(userID, bot.ID, balance, equity)

	return reg.repo.GetBotByID(ctx, bot.ID)
}

// CanStart reports whether a bot in the given state may be started
func CanStart(status database.BotStatus) error {
	if status == database.BotStatusRunning {
		return ErrAlreadyRunning
	}
	return nil
}

// CanStop reports whether a bot in the given state may be stopped
func CanStop(status database.BotStatus) error {
	if status == database.BotStatusStopped {
		return ErrAlreadyStopped
	}
	return nil
}

// CanDelete reports whether a bot in the given state may be deleted
func CanDelete(status database.BotStatus) error {
	if status == database.BotStatusRunning {
		return ErrStillRunning
	}
	return nil
}

// Start marks a bot running
func (reg *Registry) Start(ctx context.Context, userID, botID string) (*database.BotInstance, error) {
	bot, err := reg.ownedBot(ctx, userID, botID)
	if err != nil {
		return nil, err
	}
	if err := CanStart(bot.Status); err != nil {
		return nil, err
	}

	if err := reg.repo.StartBot(ctx, bot.ID); err != nil {
		return nil, err
	}

	reg.appendLog(ctx, bot.ID, database.LogLevelInfo, "SYSTEM", "Bot started")
	reg.bus.PublishBotEvent(events.EventBotStarted, userID, bot.ID, bot.InstanceName, string(database.BotStatusRunning))

	return reg.repo.GetBotByID(ctx, bot.ID)
}

// Stop marks a bot stopped
func (reg *Registry) Stop(ctx context.Context, userID, botID string) (*database.BotInstance, error) {
	bot, err := reg.ownedBot(ctx, userID, botID)
	if err != nil {
		return nil, err
	}
	if err := CanStop(bot.Status); err != nil {
		return nil, err
	}

	if err := reg.repo.StopBot(ctx, bot.ID); err != nil {
		return nil, err
	}

	reg.appendLog(ctx, bot.ID, database.LogLevelInfo, "SYSTEM", "Bot stopped")
	reg.bus.PublishBotEvent(events.EventBotStopped, userID, bot.ID, bot.InstanceName, string(database.BotStatusStopped))

	return reg.repo.GetBotByID(ctx, bot.ID)
}

// Delete removes a bot. Running bots must be stopped first.
func (reg *Registry) Delete(ctx context.Context, userID, botID string) error {
	bot, err := reg.ownedBot(ctx, userID, botID)
	if err != nil {
		return err
	}
	if err := CanDelete(bot.Status); err != nil {
		return err
	}

	if err := reg.repo.DeleteBot(ctx, bot.ID); err != nil {
		return err
	}

	reg.bus.PublishBotEvent(events.EventBotDeleted, userID, bot.ID, bot.InstanceName, string(bot.Status))
	reg.logger.Info().Str("bot_id", bot.ID).Msg("Bot deleted")
	return nil
}

// Get returns a bot owned by the user
func (reg *Registry) Get(ctx context.Context, userID, botID string) (*database.BotInstance, error) {
	return reg.ownedBot(ctx, userID, botID)
}

// List returns all bots owned by the user
func (reg *Registry) List(ctx context.Context, userID string) ([]*database.BotInstance, error) {
	return reg.repo.ListBotsByUser(ctx, userID)
}

// Logs returns recent log entries for a bot owned by the user
func (reg *Registry) Logs(ctx context.Context, userID, botID, level, category string, limit int) ([]*database.BotLog, error) {
	bot, err := reg.ownedBot(ctx, userID, botID)
	if err != nil {
		return nil, err
	}
	return reg.repo.ListBotLogs(ctx, bot.ID, level, category, limit)
}

// AppendLog records an EA-emitted log entry for a bot owned by the user
func (reg *Registry) AppendLog(ctx context.Context, userID, botID string, level database.LogLevel, category, message string, metadata []byte) error {
	bot, err := reg.ownedBot(ctx, userID, botID)
	if err != nil {
		return err
	}
	entry := &database.BotLog{
		BotInstanceID: bot.ID,
		LogLevel:      level,
		Category:      category,
		Message:       message,
		Metadata:      metadata,
	}
	return reg.repo.CreateBotLog(ctx, entry)
}

// ownedBot loads a bot and hides other users' bots behind not-found
func (reg *Registry) ownedBot(ctx context.Context, userID, botID string) (*database.BotInstance, error) {
	bot, err := reg.repo.GetBotByID(ctx, botID)
	if err != nil {
		return nil, err
	}
	if bot == nil || bot.UserID != userID {
		return nil, ErrNotFound
	}
	return bot, nil
}

func (reg *Registry) appendLog(ctx context.Context, botID string, level database.LogLevel, category, message string) {
	entry := &database.BotLog{
		BotInstanceID: botID,
		LogLevel:      level,
		Category:      category,
		Message:       message,
	}
	if err := reg.repo.CreateBotLog(ctx, entry); err != nil {
		reg.logger.Warn().Err(err).Str("bot_id", botID).Msg("Failed to append bot log")
	}
}

// StatusView decorates an instance with its derived liveness fields
type StatusView struct {
	*database.BotInstance
	Online        bool  `json:"online"`
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// NewStatusView computes the derived fields at a given instant
func NewStatusView(bot *database.BotInstance, now time.Time) StatusView {
	return StatusView{
		BotInstance:   bot,
		Online:        bot.IsOnline(now),
		UptimeSeconds: bot.UptimeSeconds(now),
	}
}
