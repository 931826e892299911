package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"classline/academy/internal/config"
	"classline/academy/internal/crypto"
	"classline/academy/internal/model"
	"classline/academy/internal/repository"
)

// Seeds a demo organization with an active subscription and an owner account.
func main() {
	cfg := config.Load()

	// A fixed default keeps the organization id known to clients, since
	// login requires it alongside the credentials.
	orgID := getenv("SEED_ORG_ID", "00000000-0000-0000-0000-000000000001")
	orgName := getenv("SEED_ORG_NAME", "Demo Academy")
	email := getenv("SEED_EMAIL", "owner@demo.academy")
	password := getenv("SEED_PASSWORD", "changeme123")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connection failed: %v", err)
	}
	defer pool.Close()

	store := repository.NewStore(pool)
	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	if _, err := store.GetUserByOrgEmail(ctx, orgID, email); err == nil {
		log.Printf("seed user %s already exists, nothing to do", email)
		return
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		log.Fatalf("password hash failed: %v", err)
	}

	now := time.Now().UTC()
	org := model.Organization{
		ID:        orgID,
		Name:      orgName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// The organization may already exist when seeding an extra account.
	if err := store.CreateOrganization(ctx, org); err != nil && !repository.IsUniqueViolation(err) {
		log.Fatalf("organization create failed: %v", err)
	} else if err == nil {
		expires := now.AddDate(1, 0, 0)
		sub := model.Subscription{
			ID:             uuid.NewString(),
			OrganizationID: org.ID,
			PlanCode:       "BASIC",
			Status:         model.SubscriptionStatusActive,
			ExpiresAt:      &expires,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := store.CreateSubscription(ctx, sub); err != nil {
			log.Fatalf("subscription create failed: %v", err)
		}
	}

	owner := model.User{
		ID:             uuid.NewString(),
		OrganizationID: org.ID,
		Email:          email,
		PasswordHash:   hash,
		Role:           model.UserRoleOwner,
		Status:         model.UserStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := store.CreateUser(ctx, owner); err != nil {
		log.Fatalf("owner create failed: %v", err)
	}

	log.Printf("seeded organization %q (%s) with owner %s", orgName, org.ID, email)
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
