package bot

import (
	"context"

	"smart-stock-trader/internal/database"
	"smart-stock-trader/internal/events"
)

// Admin operations skip the ownership check but keep the same state
// machine as the user-facing lifecycle. Every action leaves an ADMIN
// log entry on the instance.

func (reg *Registry) anyBot(ctx context.Context, botID string) (*database.BotInstance, error) {
	bot, err := reg.repo.GetBotByID(ctx, botID)
	if err != nil {
		return nil, err
	}
	if bot == nil {
		return nil, ErrNotFound
	}
	return bot, nil
}

// ForceStart marks any bot running on behalf of an administrator
func (reg *Registry) ForceStart(ctx context.Context, botID string) (*database.BotInstance, error) {
	bot, err := reg.anyBot(ctx, botID)
	if err != nil {
		return nil, err
	}
	if err := CanStart(bot.Status); err != nil {
		return nil, err
	}

	if err := reg.repo.StartBot(ctx, bot.ID); err != nil {
		return nil, err
	}

	reg.appendLog(ctx, bot.ID, database.LogLevelWarning, "ADMIN", "Bot started by administrator")
	reg.bus.PublishBotEvent(events.EventBotStarted, bot.UserID, bot.ID, bot.InstanceName, string(database.BotStatusRunning))

	return reg.repo.GetBotByID(ctx, bot.ID)
}

// ForceStop marks any bot stopped on behalf of an administrator
func (reg *Registry) ForceStop(ctx context.Context, botID string) (*database.BotInstance, error) {
	bot, err := reg.anyBot(ctx, botID)
	if err != nil {
		return nil, err
	}
	if err := CanStop(bot.Status); err != nil {
		return nil, err
	}

	if err := reg.repo.StopBot(ctx, bot.ID); err != nil {
		return nil, err
	}

	reg.appendLog(ctx, bot.ID, database.LogLevelWarning, "ADMIN", "Bot stopped by administrator")
	reg.bus.PublishBotEvent(events.EventBotStopped, bot.UserID, bot.ID, bot.InstanceName, string(database.BotStatusStopped))

	return reg.repo.GetBotByID(ctx, bot.ID)
}

// ForceDelete removes any bot regardless of owner. Running bots must
// still be stopped first.
func (reg *Registry) ForceDelete(ctx context.Context, botID string) error {
	bot, err := reg.anyBot(ctx, botID)
	if err != nil {
		return err
	}
	if err := CanDelete(bot.Status); err != nil {
		return err
	}

	if err := reg.repo.DeleteBot(ctx, bot.ID); err != nil {
		return err
	}

	reg.bus.PublishBotEvent(events.EventBotDeleted, bot.UserID, bot.ID, bot.InstanceName, string(bot.Status))
	reg.logger.Info().Str("bot_id", bot.ID).Msg("Bot deleted by administrator")
	return nil
}
