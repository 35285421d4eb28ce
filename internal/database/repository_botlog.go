package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// =====================================================
// BOT LOG OPERATIONS
// =====================================================

func scanBotLog(row pgx.Row) (*BotLog, error) {
	entry := &BotLog{}
	err := row.Scan(
		&entry.ID, &entry.BotInstanceID, &entry.LogLevel, &entry.Category,
		&entry.Message, &entry.Metadata, &entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// CreateBotLog appends a log entry for a bot instance
func (r *Repository) CreateBotLog(ctx context.Context, entry *BotLog) error {
	query := `
		INSERT INTO bot_logs (bot_instance_id, log_level, category, message, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	var metadata interface{}
	if len(entry.Metadata) > 0 {
		metadata = entry.Metadata
	}

	err := r.db.Pool.QueryRow(ctx, query,
		entry.BotInstanceID, entry.LogLevel, entry.Category, entry.Message, metadata,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create bot log: %w", err)
	}

	return nil
}

// ListBotLogs retrieves log entries for a bot instance, newest first
func (r *Repository) ListBotLogs(ctx context.Context, botID, level, category string, limit int) ([]*BotLog, error) {
	whereClause := "WHERE bot_instance_id = $1"
	args := []interface{}{botID}
	argNum := 2

	if level != "" {
		whereClause += fmt.Sprintf(" AND log_level = $%d", argNum)
		args = append(args, level)
		argNum++
	}
	if category != "" {
		whereClause += fmt.Sprintf(" AND category = $%d", argNum)
		args = append(args, category)
		argNum++
	}

	query := fmt.Sprintf(`
		SELECT id, bot_instance_id, log_level, COALESCE(category, ''), message, metadata, created_at
		FROM bot_logs
		%s
		ORDER BY created_at DESC
		LIMIT $%d
	`, whereClause, argNum)
	args = append(args, limit)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bot logs: %w", err)
	}
	defer rows.Close()

	var entries []*BotLog
	for rows.Next() {
		entry, err := scanBotLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bot log: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// ListAllLogs retrieves recent log entries across all bot instances
func (r *Repository) ListAllLogs(ctx context.Context, level string, limit, offset int) ([]*BotLog, int, error) {
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argNum := 1

	if level != "" {
		whereClause += fmt.Sprintf(" AND log_level = $%d", argNum)
		args = append(args, level)
		argNum++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM bot_logs %s", whereClause)
	var total int
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bot logs: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, bot_instance_id, log_level, COALESCE(category, ''), message, metadata, created_at
		FROM bot_logs
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argNum, argNum+1)
	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bot logs: %w", err)
	}
	defer rows.Close()

	var entries []*BotLog
	for rows.Next() {
		entry, err := scanBotLog(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan bot log: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, total, nil
}
