package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	pgxadapter "github.com/cygnusgroup/backoffice/adapters/pgx"
	"github.com/cygnusgroup/backoffice/core"
	"github.com/cygnusgroup/backoffice/pkg/crypto"
	"github.com/cygnusgroup/backoffice/services"
)

var (
	seedEmail    string
	seedPassword string
	seedName     string
	seedRole     string
)

// seedCmd provisions a principal in the local identity provider. With
// --role it also creates (or updates) the matching profile row.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Register a user with the local identity provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		pool, err := pgxadapter.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		db := pgxadapter.New(pool)

		provider, err := services.NewLocalProvider(db, crypto.NewArgon2(), 0)
		if err != nil {
			return err
		}

		principal, err := provider.Register(ctx, services.RegisterInput{
			Email:         seedEmail,
			Password:      seedPassword,
			Name:          seedName,
			EmailVerified: true,
		})
		if err != nil {
			return fmt.Errorf("register %s: %w", seedEmail, err)
		}
		logger.Info("principal registered",
			zap.String("principal_id", principal.ID),
			zap.String("email", principal.Email),
		)

		if seedRole == "" {
			return nil
		}
		return seedProfile(ctx, db.Profiles(), principal, core.Role(seedRole))
	},
}

func seedProfile(ctx context.Context, profiles *pgxadapter.ProfileStore, p *core.Principal, role core.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", core.ErrInvalidRole, role)
	}

	name := p.Name
	if name == "" {
		name = p.Email
	}
	_, err := profiles.Insert(ctx, &core.Profile{
		ID:          p.ID,
		Email:       p.Email,
		DisplayName: name,
		Role:        role,
	})
	if errors.Is(err, core.ErrStoreConflict) {
		err = profiles.SetRole(ctx, p.ID, role)
	}
	if err != nil {
		return fmt.Errorf("seed profile: %w", err)
	}

	logger.Info("profile seeded", zap.String("profile_id", p.ID), zap.String("role", string(role)))
	return nil
}

func init() {
	seedCmd.Flags().StringVar(&seedEmail, "email", "", "login email")
	seedCmd.Flags().StringVar(&seedPassword, "password", "", "login password")
	seedCmd.Flags().StringVar(&seedName, "name", "", "display name")
	seedCmd.Flags().StringVar(&seedRole, "role", "", "also create the profile with this role (admin or agent)")
	_ = seedCmd.MarkFlagRequired("email")
	_ = seedCmd.MarkFlagRequired("password")
}
