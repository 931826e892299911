package repository

import (
	"context"

	"classline/academy/internal/model"
)

func (s *Store) CreateOrganization(ctx context.Context, org model.Organization) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO organizations (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`, org.ID, org.Name, org.CreatedAt, org.UpdatedAt)
	return err
}

func (s *Store) GetOrganization(ctx context.Context, organizationID string) (model.Organization, error) {
	var org model.Organization
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`, organizationID)
	err := row.Scan(&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt)
	return org, err
}

func (s *Store) CreateSubscription(ctx context.Context, sub model.Subscription) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO subscriptions (id, organization_id, plan_code, status, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, sub.ID, sub.OrganizationID, sub.PlanCode, sub.Status, sub.ExpiresAt, sub.CreatedAt, sub.UpdatedAt)
	return err
}

func (s *Store) GetSubscriptionByOrganization(ctx context.Context, organizationID string) (model.Subscription, error) {
	var sub model.Subscription
	row := s.pool.QueryRow(ctx, `
		SELECT id, organization_id, plan_code, status, expires_at, created_at, updated_at
		FROM subscriptions
		WHERE organization_id = $1
	`, organizationID)
	err := row.Scan(&sub.ID, &sub.OrganizationID, &sub.PlanCode, &sub.Status, &sub.ExpiresAt, &sub.CreatedAt, &sub.UpdatedAt)
	return sub, err
}
