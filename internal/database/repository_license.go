package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// =====================================================
// LICENSE CRUD OPERATIONS
// =====================================================

const licenseColumns = `id, user_id, license_key, license_type, max_accounts, status,
		issued_at, expires_at, last_validated, stripe_session_id, created_at, updated_at`

func scanLicense(row pgx.Row) (*License, error) {
	license := &License{}
	err := row.Scan(
		&license.ID, &license.UserID, &license.LicenseKey, &license.LicenseType,
		&license.MaxAccounts, &license.Status, &license.IssuedAt, &license.ExpiresAt,
		&license.LastValidated, &license.StripeSessionID, &license.CreatedAt, &license.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return license, nil
}

// CreateLicense creates a new license
func (r *Repository) CreateLicense(ctx context.Context, license *License) error {
	query := `
		INSERT INTO licenses (user_id, license_key, license_type, max_accounts, status, issued_at, expires_at, stripe_session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		license.UserID,
		license.LicenseKey,
		license.LicenseType,
		license.MaxAccounts,
		license.Status,
		license.IssuedAt,
		license.ExpiresAt,
		license.StripeSessionID,
	).Scan(&license.ID, &license.CreatedAt, &license.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create license: %w", err)
	}

	return nil
}

// GetLicenseByKey retrieves a license by its key
func (r *Repository) GetLicenseByKey(ctx context.Context, key string) (*License, error) {
	query := fmt.Sprintf(`SELECT %s FROM licenses WHERE license_key = $1`, licenseColumns)

	license, err := scanLicense(r.db.Pool.QueryRow(ctx, query, key))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get license by key: %w", err)
	}

	return license, nil
}

// GetLicenseByID retrieves a license by ID
func (r *Repository) GetLicenseByID(ctx context.Context, id string) (*License, error) {
	query := fmt.Sprintf(`SELECT %s FROM licenses WHERE id = $1`, licenseColumns)

	license, err := scanLicense(r.db.Pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get license by id: %w", err)
	}

	return license, nil
}

// GetLicenseByStripeSession retrieves a license fulfilled from a checkout session
func (r *Repository) GetLicenseByStripeSession(ctx context.Context, sessionID string) (*License, error) {
	query := fmt.Sprintf(`SELECT %s FROM licenses WHERE stripe_session_id = $1`, licenseColumns)

	license, err := scanLicense(r.db.Pool.QueryRow(ctx, query, sessionID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get license by session: %w", err)
	}

	return license, nil
}

// GetLicensesByUserID retrieves all licenses claimed by a user
func (r *Repository) GetLicensesByUserID(ctx context.Context, userID string) ([]*License, error) {
	query := fmt.Sprintf(`SELECT %s FROM licenses WHERE user_id = $1 ORDER BY created_at DESC`, licenseColumns)

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query licenses: %w", err)
	}
	defer rows.Close()

	var licenses []*License
	for rows.Next() {
		license, err := scanLicense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan license: %w", err)
		}
		licenses = append(licenses, license)
	}

	return licenses, nil
}

// ListLicenses retrieves licenses with optional type and status filters
func (r *Repository) ListLicenses(ctx context.Context, licenseType, status string, limit, offset int) ([]*License, int, error) {
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argNum := 1

	if licenseType != "" {
		whereClause += fmt.Sprintf(" AND license_type = $%d", argNum)
		args = append(args, licenseType)
		argNum++
	}
	if status != "" {
		whereClause += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, status)
		argNum++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM licenses %s", whereClause)
	var total int
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count licenses: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM licenses %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		licenseColumns, whereClause, argNum, argNum+1)
	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list licenses: %w", err)
	}
	defer rows.Close()

	var licenses []*License
	for rows.Next() {
		license, err := scanLicense(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan license: %w", err)
		}
		licenses = append(licenses, license)
	}

	return licenses, total, nil
}

// UpdateLicenseStatus sets the lifecycle status of a license
func (r *Repository) UpdateLicenseStatus(ctx context.Context, id string, status LicenseStatus) error {
	query := `UPDATE licenses SET status = $2 WHERE id = $1`
	_, err := r.db.Pool.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update license status: %w", err)
	}
	return nil
}

// ClaimLicense binds an unclaimed license to a user in a single
// conditional update. Returns false when the key is already owned by a
// different user.
func (r *Repository) ClaimLicense(ctx context.Context, id, userID string) (bool, error) {
	query := `
		UPDATE licenses
		SET user_id = $2,
		    issued_at = COALESCE(issued_at, CURRENT_TIMESTAMP),
		    last_validated = CURRENT_TIMESTAMP
		WHERE id = $1 AND (user_id IS NULL OR user_id = $2)
	`

	tag, err := r.db.Pool.Exec(ctx, query, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to claim license: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// CountBoundInstances returns how many bot instances are bound to a license
func (r *Repository) CountBoundInstances(ctx context.Context, licenseID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM bot_instances WHERE license_id = $1`
	if err := r.db.Pool.QueryRow(ctx, query, licenseID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bound instances: %w", err)
	}
	return count, nil
}

// DeleteLicense deletes a license. Fails while instances remain bound.
func (r *Repository) DeleteLicense(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM licenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete license: %w", err)
	}
	return nil
}

// CountLicenses returns total and active license counts
func (r *Repository) CountLicenses(ctx context.Context) (total, active int, err error) {
	query := `SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'active') FROM licenses`
	if err := r.db.Pool.QueryRow(ctx, query).Scan(&total, &active); err != nil {
		return 0, 0, fmt.Errorf("failed to count licenses: %w", err)
	}
	return total, active, nil
}
