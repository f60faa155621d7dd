// Package postgres persists activity entries with database/sql and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"keystone/internal/activity/models"
	"keystone/pkg/domain"
)

// Schema creates the activity table. Migrate applies it.
const Schema = `
CREATE TABLE IF NOT EXISTS activity (
	id                UUID PRIMARY KEY,
	wallet_address    TEXT        NOT NULL,
	kind              TEXT        NOT NULL,
	timestamp         TIMESTAMPTZ NOT NULL,
	description       TEXT        NOT NULL DEFAULT '',
	verification_type TEXT        NOT NULL DEFAULT '',
	app_name          TEXT        NOT NULL DEFAULT '',
	status            TEXT        NOT NULL DEFAULT '',
	endpoint          TEXT        NOT NULL DEFAULT '',
	method            TEXT        NOT NULL DEFAULT '',
	client_ip         TEXT        NOT NULL DEFAULT '',
	user_agent        TEXT        NOT NULL DEFAULT '',
	browser           TEXT        NOT NULL DEFAULT '',
	os                TEXT        NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS activity_wallet_timestamp_idx ON activity (wallet_address, timestamp DESC);
`

// Store implements activity persistence on Postgres.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the activity table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate activity schema: %w", err)
	}
	return nil
}

// Append inserts an entry. Re-inserting the same ID is a no-op so redelivered
// events do not duplicate.
func (s *Store) Append(ctx context.Context, a models.Activity) error {
	query := `
		INSERT INTO activity (
			id, wallet_address, kind, timestamp, description,
			verification_type, app_name, status, endpoint, method,
			client_ip, user_agent, browser, os
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID,
		a.WalletAddress.String(),
		string(a.Kind),
		a.Timestamp,
		a.Description,
		a.VerificationType.String(),
		a.AppName,
		a.Status,
		a.Endpoint,
		a.Method,
		a.ClientIP,
		a.UserAgent,
		a.Browser,
		a.OS,
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// ListByWallet returns up to limit entries for addr, newest first. limit <= 0
// means all.
func (s *Store) ListByWallet(ctx context.Context, addr domain.WalletAddress, limit int) ([]models.Activity, error) {
	query := `
		SELECT id, wallet_address, kind, timestamp, description,
			   verification_type, app_name, status, endpoint, method,
			   client_ip, user_agent, browser, os
		FROM activity
		WHERE wallet_address = $1
		ORDER BY timestamp DESC, id
	`
	args := []any{addr.String()}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

func scanActivities(rows *sql.Rows) ([]models.Activity, error) {
	var out []models.Activity
	for rows.Next() {
		var (
			a      models.Activity
			id     uuid.UUID
			wallet string
			kind   string
			vtype  string
		)
		err := rows.Scan(
			&id,
			&wallet,
			&kind,
			&a.Timestamp,
			&a.Description,
			&vtype,
			&a.AppName,
			&a.Status,
			&a.Endpoint,
			&a.Method,
			&a.ClientIP,
			&a.UserAgent,
			&a.Browser,
			&a.OS,
		)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.ID = id
		a.WalletAddress = domain.WalletAddress(wallet)
		a.Kind = models.Kind(kind)
		a.VerificationType = domain.VerificationType(vtype)
		a.Timestamp = a.Timestamp.UTC()
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity: %w", err)
	}
	return out, nil
}
