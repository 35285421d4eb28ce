package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SeatLimitError is returned when binding an instance would exceed the
// license's account allowance.
type SeatLimitError struct {
	MaxAccounts int
	UsedSeats   int
}

func (e *SeatLimitError) Error() string {
	return fmt.Sprintf("license seat limit reached (%d/%d accounts in use)", e.UsedSeats, e.MaxAccounts)
}

// =====================================================
// BOT INSTANCE OPERATIONS
// =====================================================

const botColumns = `id, user_id, license_id, instance_name, mt4_account, broker_name,
		COALESCE(broker_server, ''), COALESCE(account_name, ''), COALESCE(version, ''),
		status, is_live, current_balance, current_equity,
		last_heartbeat, started_at, stopped_at, created_at, updated_at`

func scanBot(row pgx.Row) (*BotInstance, error) {
	bot := &BotInstance{}
	err := row.Scan(
		&bot.ID, &bot.UserID, &bot.LicenseID, &bot.InstanceName, &bot.MT4Account,
		&bot.BrokerName, &bot.BrokerServer, &bot.AccountName, &bot.Version,
		&bot.Status, &bot.IsLive, &bot.CurrentBalance, &bot.CurrentEquity,
		&bot.LastHeartbeat, &bot.StartedAt, &bot.StoppedAt, &bot.CreatedAt, &bot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return bot, nil
}

// GetBotByID retrieves a bot instance by ID
func (r *Repository) GetBotByID(ctx context.Context, id string) (*BotInstance, error) {
	query := fmt.Sprintf(`SELECT %s FROM bot_instances WHERE id = $1`, botColumns)

	bot, err := scanBot(r.db.Pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bot: %w", err)
	}

	return bot, nil
}

// GetBotByIdentity retrieves a bot instance by its registration identity
func (r *Repository) GetBotByIdentity(ctx context.Context, userID, mt4Account, brokerName string) (*BotInstance, error) {
	query := fmt.Sprintf(`SELECT %s FROM bot_instances WHERE user_id = $1 AND mt4_account = $2 AND broker_name = $3`, botColumns)

	bot, err := scanBot(r.db.Pool.QueryRow(ctx, query, userID, mt4Account, brokerName))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bot by identity: %w", err)
	}

	return bot, nil
}

// ListBotsByUser retrieves all bot instances owned by a user
func (r *Repository) ListBotsByUser(ctx context.Context, userID string) ([]*BotInstance, error) {
	query := fmt.Sprintf(`SELECT %s FROM bot_instances WHERE user_id = $1 ORDER BY created_at DESC`, botColumns)

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bots: %w", err)
	}
	defer rows.Close()

	var bots []*BotInstance
	for rows.Next() {
		bot, err := scanBot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bot: %w", err)
		}
		bots = append(bots, bot)
	}

	return bots, nil
}

// ListAllBots retrieves bot instances across all users with an optional
// status filter
func (r *Repository) ListAllBots(ctx context.Context, status string, limit, offset int) ([]*BotInstance, int, error) {
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argNum := 1

	if status != "" {
		whereClause += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, status)
		argNum++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM bot_instances %s", whereClause)
	var total int
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bots: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM bot_instances %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		botColumns, whereClause, argNum, argNum+1)
	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bots: %w", err)
	}
	defer rows.Close()

	var bots []*BotInstance
	for rows.Next() {
		bot, err := scanBot(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan bot: %w", err)
		}
		bots = append(bots, bot)
	}

	return bots, total, nil
}

// RegisterBot creates or refreshes the instance row for a registration
// identity in one transaction. When a license is being bound, the
// license row is locked and the seat count re-checked under the lock,
// so two concurrent registrations cannot both take the last seat.
// Returns true when a new row was created.
func (r *Repository) RegisterBot(ctx context.Context, bot *BotInstance) (bool, error) {
	created := false

	err := r.withTx(ctx, func(tx pgx.Tx) error {
		existingQuery := fmt.Sprintf(
			`SELECT %s FROM bot_instances WHERE user_id = $1 AND mt4_account = $2 AND broker_name = $3 FOR UPDATE`,
			botColumns)

		existing, err := scanBot(tx.QueryRow(ctx, existingQuery, bot.UserID, bot.MT4Account, bot.BrokerName))
		if err != nil && err != pgx.ErrNoRows {
			return fmt.Errorf("failed to lock bot row: %w", err)
		}
		found := err == nil

		// Seat check only when this registration binds a license the
		// identity row does not already occupy a seat on.
		needsSeat := bot.LicenseID != nil &&
			(!found || existing.LicenseID == nil || *existing.LicenseID != *bot.LicenseID)

		if needsSeat {
			var maxAccounts int
			err := tx.QueryRow(ctx,
				`SELECT max_accounts FROM licenses WHERE id = $1 FOR UPDATE`,
				*bot.LicenseID,
			).Scan(&maxAccounts)
			if err != nil {
				return fmt.Errorf("failed to lock license row: %w", err)
			}

			var used int
			err = tx.QueryRow(ctx,
				`SELECT COUNT(*) FROM bot_instances WHERE license_id = $1`,
				*bot.LicenseID,
			).Scan(&used)
			if err != nil {
				return fmt.Errorf("failed to count seats: %w", err)
			}

			if used >= maxAccounts {
				return &SeatLimitError{MaxAccounts: maxAccounts, UsedSeats: used}
			}
		}

		if found {
			updateQuery := `
				UPDATE bot_instances SET
					license_id = COALESCE($2, license_id),
					instance_name = $3,
					broker_server = $4,
					account_name = $5,
					version = $6,
					is_live = $7,
					status = 'running',
					started_at = CURRENT_TIMESTAMP,
					stopped_at = NULL,
					last_heartbeat = CURRENT_TIMESTAMP
				WHERE id = $1
				RETURNING started_at, last_heartbeat, updated_at
			`
			err := tx.QueryRow(ctx, updateQuery,
				existing.ID, bot.LicenseID, bot.InstanceName, bot.BrokerServer,
				bot.AccountName, bot.Version, bot.IsLive,
			).Scan(&existing.StartedAt, &existing.LastHeartbeat, &existing.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to refresh bot registration: %w", err)
			}

			bot.ID = existing.ID
			bot.Status = BotStatusRunning
			bot.StartedAt = existing.StartedAt
			bot.LastHeartbeat = existing.LastHeartbeat
			bot.CreatedAt = existing.CreatedAt
			bot.UpdatedAt = existing.UpdatedAt
			if bot.LicenseID == nil {
				bot.LicenseID = existing.LicenseID
			}
			return nil
		}

		insertQuery := `
			INSERT INTO bot_instances (
				user_id, license_id, instance_name, mt4_account, broker_name,
				broker_server, account_name, version, status, is_live,
				started_at, last_heartbeat
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'running', $9, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
			RETURNING id, started_at, last_heartbeat, created_at, updated_at
		`
		err = tx.QueryRow(ctx, insertQuery,
			bot.UserID, bot.LicenseID, bot.InstanceName, bot.MT4Account, bot.BrokerName,
			bot.BrokerServer, bot.AccountName, bot.Version, bot.IsLive,
		).Scan(&bot.ID, &bot.StartedAt, &bot.LastHeartbeat, &bot.CreatedAt, &bot.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create bot instance: %w", err)
		}

		bot.Status = BotStatusRunning
		created = true
		return nil
	})

	return created, err
}

// UpdateHeartbeat records a heartbeat. Status, balance and equity are
// only overwritten when the EA reported them.
func (r *Repository) UpdateHeartbeat(ctx context.Context, botID string, status *BotStatus, balance, equity *float64) error {
	query := `
		UPDATE bot_instances SET
			last_heartbeat = CURRENT_TIMESTAMP,
			status = COALESCE($2, status),
			current_balance = COALESCE($3, current_balance),
			current_equity = COALESCE($4, current_equity)
		WHERE id = $1
	`
	_, err := r.db.Pool.Exec(ctx, query, botID, status, balance, equity)
	if err != nil {
		return fmt.Errorf("failed to update heartbeat: %w", err)
	}
	return nil
}

// StartBot marks an instance as running and resets its start time
func (r *Repository) StartBot(ctx context.Context, botID string) error {
	query := `
		UPDATE bot_instances SET
			status = 'running',
			started_at = CURRENT_TIMESTAMP,
			stopped_at = NULL
		WHERE id = $1
	`
	_, err := r.db.Pool.Exec(ctx, query, botID)
	if err != nil {
		return fmt.Errorf("failed to start bot: %w", err)
	}
	return nil
}

// StopBot marks an instance as stopped
func (r *Repository) StopBot(ctx context.Context, botID string) error {
	query := `
		UPDATE bot_instances SET
			status = 'stopped',
			stopped_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	_, err := r.db.Pool.Exec(ctx, query, botID)
	if err != nil {
		return fmt.Errorf("failed to stop bot: %w", err)
	}
	return nil
}

// DeleteBot removes a bot instance. Trades and logs cascade.
func (r *Repository) DeleteBot(ctx context.Context, botID string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM bot_instances WHERE id = $1`, botID)
	if err != nil {
		return fmt.Errorf("failed to delete bot: %w", err)
	}
	return nil
}

// CountBots returns total, running and online instance counts.
// Online means a heartbeat inside the online window.
func (r *Repository) CountBots(ctx context.Context) (total, running, online int, err error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'running'),
		       COUNT(*) FILTER (WHERE last_heartbeat > NOW() - INTERVAL '5 minutes')
		FROM bot_instances
	`
	if err := r.db.Pool.QueryRow(ctx, query).Scan(&total, &running, &online); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count bots: %w", err)
	}
	return total, running, online, nil
}
