package seed

import (
	"context"
	"fmt"

	"github.com/blindgrade/blindgrade/internal/app/models"
	"github.com/blindgrade/blindgrade/internal/app/repositories"
	"github.com/blindgrade/blindgrade/internal/config"
	"github.com/blindgrade/blindgrade/internal/pkg/auth"
	"github.com/blindgrade/blindgrade/internal/pkg/logger"
)

// SeedCustodian creates the initial custodian account from environment
// variables when no custodian exists yet. A deployment that prefers the
// seed-custodian endpoint can simply leave the variables unset.
func SeedCustodian(ctx context.Context, repos *repositories.Repositories) error {
	email := config.GetEnv("SEED_CUSTODIAN_EMAIL", "")
	password := config.GetEnv("SEED_CUSTODIAN_PASSWORD", "")
	if email == "" || password == "" {
		logger.Debug().Msg("Custodian seed variables not set, skipping")
		return nil
	}

	exists, err := repos.UserRepository.CustodianExists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check for existing custodian: %w", err)
	}
	if exists {
		logger.Debug().Msg("Custodian already exists, skipping seed")
		return nil
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash custodian password: %w", err)
	}

	custodian := &models.User{
		Name:     config.GetEnv("SEED_CUSTODIAN_NAME", "Custodian"),
		Email:    email,
		Password: hashed,
		RoleType: models.RoleCustodian,
	}
	if err := repos.UserRepository.Create(ctx, custodian); err != nil {
		return fmt.Errorf("failed to create custodian account: %w", err)
	}

	logger.Info().Str("email", email).Msg("Seeded custodian account")
	return nil
}
