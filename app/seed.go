// Package app provides application services that implement operation handlers.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/schemawire/domain/user"
	"github.com/artpar/schemawire/ports"
)

// Seed populates store with demo accounts. It is a no-op when the store
// already holds any user, so restarts never duplicate data.
func Seed(ctx context.Context, store ports.UserStore, clock ports.Clock, logger zerolog.Logger) error {
	n, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("seed: count users: %w", err)
	}
	if n > 0 {
		logger.Debug().Int("existing", n).Msg("seed skipped, store not empty")
		return nil
	}

	now := clock.Now().UTC()
	lastLogin := now.Add(-10 * time.Minute)
	demo := []user.User{
		{
			Username:  "gopher",
			Email:     "gopher@example.com",
			CreatedAt: now.Add(-48 * time.Hour),
			Roles:     []user.Role{user.RoleAdmin},
			Status:    user.StatusActive,
			Active:    true,
			Preferences: &user.Preferences{
				Theme:       user.ThemeDark,
				Timezone:    "UTC",
				LastLoginAt: &lastLogin,
			},
		},
		{
			Username:  "glenda",
			Email:     "glenda@example.com",
			CreatedAt: now.Add(-24 * time.Hour),
			Roles:     []user.Role{user.RoleEditor, user.RoleViewer},
			Status:    user.StatusSuspended,
			Active:    false,
			Preferences: &user.Preferences{
				Theme:    user.ThemeLight,
				Timezone: "America/New_York",
			},
		},
	}

	for _, u := range demo {
		created, err := store.Create(ctx, u)
		if err != nil {
			return fmt.Errorf("seed: create %s: %w", u.Username, err)
		}
		logger.Info().Uint64("id", created.ID).Str("username", created.Username).Msg("demo user seeded")
	}
	return nil
}
