package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	tomlseed "github.com/wfkpk/authgate/internal/adapters/seed/toml"
	"github.com/wfkpk/authgate/internal/domain"
)

func newLoginCmd(app *app) *cobra.Command {
	var (
		name     string
		email    string
		avatar   string
		seedFile string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log an account in to the account service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opTimeout)
			defer cancel()

			if seedFile != "" {
				return runSeedLogin(ctx, cmd, app, seedFile)
			}

			if name == "" && email == "" {
				return errors.New("provide --name or --email, or --from-file")
			}

			account := domain.Account{Name: name, Email: email, AvatarURL: avatar}
			if err := loginWithSpinner(ctx, cmd, app, account); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in %s\n", account.Identifier())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name for the account")
	cmd.Flags().StringVar(&email, "email", "", "Email address for the account")
	cmd.Flags().StringVar(&avatar, "avatar", "", "Optional profile image reference")
	cmd.Flags().StringVar(&seedFile, "from-file", "", "TOML seed file; logs in every listed account")

	return cmd
}

func runSeedLogin(ctx context.Context, cmd *cobra.Command, app *app, path string) error {
	seeded, err := tomlseed.Load(path)
	if err != nil {
		return err
	}

	for _, account := range seeded {
		if err := app.gateway.Login(ctx, account); err != nil {
			return fmt.Errorf("login %s: %w", account.Identifier(), err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in %s\n", account.Identifier())
	}

	return nil
}

func loginWithSpinner(ctx context.Context, cmd *cobra.Command, app *app, account domain.Account) error {
	if app.manager.IsConnected() {
		// Already bound; no connect wait worth animating.
		return app.gateway.Login(ctx, account)
	}

	return runConnectSpinner(ctx, cmd.ErrOrStderr(), "Connecting to account service...", func(ctx context.Context) error {
		return app.gateway.Login(ctx, account)
	})
}
