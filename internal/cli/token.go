package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"quiz-engine-service/internal/config"
	"quiz-engine-service/internal/domain"
	"quiz-engine-service/internal/identity"
	"quiz-engine-service/internal/infra/postgres"
)

// NewTokenCmd issues a signed token for an existing user, for operators who
// need an admin session before any login flow exists.
func NewTokenCmd(configPath *string) *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an identity token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}

			db := postgres.Open(cfg.Postgres.URL)
			defer db.Close()
			user, err := postgres.NewStore(db).User(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if !user.IsActive {
				return fmt.Errorf("user %d is suspended: %w", userID, domain.ErrForbidden)
			}

			issuer, err := identity.NewIssuer(authConfig(cfg))
			if err != nil {
				return err
			}
			token, exp, err := issuer.Issue(user)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s, admin=%v\n", exp.Format(time.RFC3339), user.IsAdmin)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "user id to issue the token for")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func authConfig(cfg config.Config) identity.Config {
	return identity.Config{
		Secret:         cfg.Auth.Secret,
		Issuer:         cfg.Auth.Issuer,
		TokenTTL:       config.TTLDuration(cfg.Auth.TokenTTL, identity.DefaultTokenTTL),
		CookieName:     cfg.Auth.CookieName,
		CookieFallback: cfg.Auth.CookieFallback,
	}
}
