package repository

import (
	"context"

	"classline/academy/internal/model"
)

func (s *Store) CreateUser(ctx context.Context, user model.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, organization_id, email, password_hash, role, status, refresh_token_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, user.ID, user.OrganizationID, user.Email, user.PasswordHash, user.Role, user.Status, user.RefreshTokenHash, user.CreatedAt, user.UpdatedAt)
	return err
}

func (s *Store) GetUserByOrgEmail(ctx context.Context, organizationID, email string) (model.User, error) {
	var user model.User
	row := s.pool.QueryRow(ctx, `
		SELECT id, organization_id, email, password_hash, role, status, refresh_token_hash, created_at, updated_at
		FROM users
		WHERE organization_id = $1 AND email = $2
	`, organizationID, email)
	err := row.Scan(
		&user.ID,
		&user.OrganizationID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Status,
		&user.RefreshTokenHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

func (s *Store) GetUserByID(ctx context.Context, userID string) (model.User, error) {
	var user model.User
	row := s.pool.QueryRow(ctx, `
		SELECT id, organization_id, email, password_hash, role, status, refresh_token_hash, created_at, updated_at
		FROM users
		WHERE id = $1
	`, userID)
	err := row.Scan(
		&user.ID,
		&user.OrganizationID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Status,
		&user.RefreshTokenHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

// SetRefreshTokenHash stores the hash of the newest refresh token, replacing
// whatever was there. Passing nil clears it, which invalidates all
// outstanding refresh tokens for the user.
func (s *Store) SetRefreshTokenHash(ctx context.Context, userID string, tokenHash *string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users
		SET refresh_token_hash = $1, updated_at = NOW()
		WHERE id = $2
	`, tokenHash, userID)
	return err
}
