package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"slideflow/internal/models"
)

type SocialAccountRepository interface {
	Upsert(ctx context.Context, sa *models.SocialAccount) error
	GetByPlatform(ctx context.Context, platform string) (*models.SocialAccount, error)
	ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]*models.SocialAccount, error)
	SetToken(ctx context.Context, platform string, sa *models.SocialAccount) error
	Remove(ctx context.Context, platform string) error
}

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

const socialAccountColumns = `id, platform, account_id, account_name, account_username,
	profile_picture_url, access_token, refresh_token, token_expires_at, created_at, updated_at`

// Upsert keeps one connected account per platform; reconnecting replaces the
// stored tokens and profile fields.
func (r *socialAccountRepository) Upsert(ctx context.Context, sa *models.SocialAccount) error {
	query := `
		INSERT INTO social_accounts (platform, account_id, account_name, account_username,
			profile_picture_url, access_token, refresh_token, token_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (platform) DO UPDATE
		SET account_id = EXCLUDED.account_id,
			account_name = EXCLUDED.account_name,
			account_username = EXCLUDED.account_username,
			profile_picture_url = EXCLUDED.profile_picture_url,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expires_at = EXCLUDED.token_expires_at,
			updated_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query,
		sa.Platform, sa.AccountID, sa.AccountName, sa.AccountUsername,
		sa.ProfilePicture, sa.AccessToken, sa.RefreshToken, sa.TokenExpiresAt,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *socialAccountRepository) GetByPlatform(ctx context.Context, platform string) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE platform = $1`
	row := r.db.QueryRowContext(ctx, query, platform)

	var sa models.SocialAccount
	err := row.Scan(&sa.ID, &sa.Platform, &sa.AccountID, &sa.AccountName, &sa.AccountUsername,
		&sa.ProfilePicture, &sa.AccessToken, &sa.RefreshToken, &sa.TokenExpiresAt, &sa.CreatedAt, &sa.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &sa, nil
}

func (r *socialAccountRepository) ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE token_expires_at < $1`
	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		var sa models.SocialAccount
		err := rows.Scan(&sa.ID, &sa.Platform, &sa.AccountID, &sa.AccountName, &sa.AccountUsername,
			&sa.ProfilePicture, &sa.AccessToken, &sa.RefreshToken, &sa.TokenExpiresAt, &sa.CreatedAt, &sa.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, &sa)
	}
	return accounts, rows.Err()
}

func (r *socialAccountRepository) SetToken(ctx context.Context, platform string, sa *models.SocialAccount) error {
	query := `
		UPDATE social_accounts
		SET access_token = $2, refresh_token = $3, token_expires_at = $4, updated_at = NOW()
		WHERE platform = $1
	`
	_, err := r.db.ExecContext(ctx, query, platform, sa.AccessToken, sa.RefreshToken, sa.TokenExpiresAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *socialAccountRepository) Remove(ctx context.Context, platform string) error {
	query := `DELETE FROM social_accounts WHERE platform = $1`
	_, err := r.db.ExecContext(ctx, query, platform)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
