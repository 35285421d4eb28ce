package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// DB wraps the PostgreSQL connection pool
type DB struct {
	Pool *pgxpool.Pool
}

// Config holds database configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// NewDB creates a new database connection
func NewDB(cfg Config) (*DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)
	return newDB(dsn, cfg.Database)
}

// NewDBFromURL creates a new database connection from a connection string
func NewDBFromURL(databaseURL string) (*DB, error) {
	return newDB(databaseURL, "")
}

func newDB(dsn, name string) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	log.Info().Str("database", name).Msg("Connected to PostgreSQL")

	return &DB{Pool: pool}, nil
}

// Close closes the database connection
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		log.Info().Msg("Database connection closed")
	}
}

// RunMigrations executes database migrations
func (db *DB) RunMigrations(ctx context.Context) error {
	log.Info().Msg("Running database migrations...")

	migrations := []string{
		// Users own licenses and bot instances.
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			first_name VARCHAR(100) NOT NULL DEFAULT '',
			last_name VARCHAR(100) NOT NULL DEFAULT '',
			role VARCHAR(20) NOT NULL DEFAULT 'user',
			is_active BOOLEAN NOT NULL DEFAULT true,
			email_verified BOOLEAN NOT NULL DEFAULT false,
			last_login TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,

		`CREATE TABLE IF NOT EXISTS user_sessions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			refresh_token_hash VARCHAR(64) UNIQUE NOT NULL,
			device_info TEXT,
			ip_address VARCHAR(45),
			user_agent TEXT,
			expires_at TIMESTAMPTZ NOT NULL,
			revoked_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_used_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_user_sessions_user ON user_sessions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_user_sessions_token ON user_sessions(refresh_token_hash)`,

		// user_id is NULL until the key is claimed by its first validator.
		`CREATE TABLE IF NOT EXISTS licenses (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID REFERENCES users(id) ON DELETE CASCADE,
			license_key VARCHAR(24) UNIQUE NOT NULL,
			license_type VARCHAR(20) NOT NULL DEFAULT 'TRIAL',
			max_accounts INTEGER NOT NULL DEFAULT 1 CHECK (max_accounts >= 1),
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			issued_at TIMESTAMPTZ,
			expires_at TIMESTAMPTZ,
			last_validated TIMESTAMPTZ,
			stripe_session_id VARCHAR(255),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_licenses_key ON licenses(license_key)`,
		`CREATE INDEX IF NOT EXISTS idx_licenses_user ON licenses(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_licenses_status ON licenses(status)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_licenses_stripe_session ON licenses(stripe_session_id) WHERE stripe_session_id IS NOT NULL`,

		// RESTRICT: a license with bound instances cannot be deleted.
		`CREATE TABLE IF NOT EXISTS bot_instances (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			license_id UUID REFERENCES licenses(id) ON DELETE RESTRICT,
			instance_name VARCHAR(100) NOT NULL,
			mt4_account VARCHAR(50) NOT NULL,
			broker_name VARCHAR(100) NOT NULL,
			broker_server VARCHAR(100) NOT NULL DEFAULT '',
			account_name VARCHAR(100) NOT NULL DEFAULT '',
			version VARCHAR(20) NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL DEFAULT 'stopped',
			is_live BOOLEAN NOT NULL DEFAULT false,
			current_balance DECIMAL(20, 2),
			current_equity DECIMAL(20, 2),
			last_heartbeat TIMESTAMPTZ,
			started_at TIMESTAMPTZ,
			stopped_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, mt4_account, broker_name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bot_instances_user ON bot_instances(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bot_instances_license ON bot_instances(license_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bot_instances_status ON bot_instances(status)`,
		`CREATE INDEX IF NOT EXISTS idx_bot_instances_heartbeat ON bot_instances(last_heartbeat)`,

		`CREATE TABLE IF NOT EXISTS trades (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			bot_instance_id UUID NOT NULL REFERENCES bot_instances(id) ON DELETE CASCADE,
			ticket_number BIGINT NOT NULL,
			symbol VARCHAR(20) NOT NULL,
			trade_type VARCHAR(4) NOT NULL,
			lot_size DECIMAL(10, 2) NOT NULL,
			open_price DECIMAL(20, 5) NOT NULL,
			close_price DECIMAL(20, 5),
			stop_loss DECIMAL(20, 5),
			take_profit DECIMAL(20, 5),
			commission DECIMAL(20, 2) NOT NULL DEFAULT 0,
			swap DECIMAL(20, 2) NOT NULL DEFAULT 0,
			profit DECIMAL(20, 2) NOT NULL DEFAULT 0,
			profit_percentage DECIMAL(10, 4),
			status VARCHAR(20) NOT NULL DEFAULT 'open',
			strategy_used VARCHAR(100) NOT NULL DEFAULT '',
			opened_at TIMESTAMPTZ NOT NULL,
			closed_at TIMESTAMPTZ,
			duration_seconds BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (bot_instance_id, ticket_number)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_bot ON trades(bot_instance_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_opened_at ON trades(opened_at)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_closed_at ON trades(closed_at)`,

		`CREATE TABLE IF NOT EXISTS bot_logs (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			bot_instance_id UUID NOT NULL REFERENCES bot_instances(id) ON DELETE CASCADE,
			log_level VARCHAR(10) NOT NULL DEFAULT 'INFO',
			category VARCHAR(50) NOT NULL DEFAULT 'SYSTEM',
			message TEXT NOT NULL,
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bot_logs_bot ON bot_logs(bot_instance_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bot_logs_level ON bot_logs(log_level)`,
		`CREATE INDEX IF NOT EXISTS idx_bot_logs_created ON bot_logs(created_at)`,

		`CREATE OR REPLACE FUNCTION update_updated_at_column()
		RETURNS TRIGGER AS $$
		BEGIN
			NEW.updated_at = NOW();
			RETURN NEW;
		END;
		$$ language 'plpgsql'`,

		`DROP TRIGGER IF EXISTS update_users_updated_at ON users`,
		`CREATE TRIGGER update_users_updated_at BEFORE UPDATE ON users
		FOR EACH ROW EXECUTE FUNCTION update_updated_at_column()`,

		`DROP TRIGGER IF EXISTS update_licenses_updated_at ON licenses`,
		`CREATE TRIGGER update_licenses_updated_at BEFORE UPDATE ON licenses
		FOR EACH ROW EXECUTE FUNCTION update_updated_at_column()`,

		`DROP TRIGGER IF EXISTS update_bot_instances_updated_at ON bot_instances`,
		`CREATE TRIGGER update_bot_instances_updated_at BEFORE UPDATE ON bot_instances
		FOR EACH ROW EXECUTE FUNCTION update_updated_at_column()`,

		`DROP TRIGGER IF EXISTS update_trades_updated_at ON trades`,
		`CREATE TRIGGER update_trades_updated_at BEFORE UPDATE ON trades
		FOR EACH ROW EXECUTE FUNCTION update_updated_at_column()`,
	}

	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	log.Info().Msg("Database migrations completed")
	return nil
}

// HealthCheck performs a database health check
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}
