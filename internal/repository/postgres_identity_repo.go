package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/resumedigest/internal/model"
)

// PostgresIdentityRepo はGoogleアカウントとユーザーの紐付けを保持する。
type PostgresIdentityRepo struct {
	db *sql.DB
}

// NewPostgresIdentityRepo はPostgresIdentityRepoを生成する。
func NewPostgresIdentityRepo(db *sql.DB) *PostgresIdentityRepo {
	return &PostgresIdentityRepo{db: db}
}

// FindBySubject はユニーク制約 (provider, provider_user_id) で1件を引く。
func (r *PostgresIdentityRepo) FindBySubject(ctx context.Context, provider, subject string) (*model.Identity, error) {
	var identity model.Identity
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, provider, provider_user_id, created_at, last_login_at
		 FROM identities
		 WHERE provider = $1 AND provider_user_id = $2`,
		provider, subject,
	).Scan(
		&identity.ID,
		&identity.UserID,
		&identity.Provider,
		&identity.ProviderUserID,
		&identity.CreatedAt,
		&identity.LastLoginAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find identity %s/%s: %w", provider, subject, err)
	}
	return &identity, nil
}

// TouchLastLogin はlast_login_atを更新する。対象がなければエラー。
func (r *PostgresIdentityRepo) TouchLastLogin(ctx context.Context, identityID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE identities SET last_login_at = $2 WHERE id = $1`,
		identityID, at,
	)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("identity not found: %s", identityID)
	}
	return nil
}

var _ IdentityRepository = (*PostgresIdentityRepo)(nil)
