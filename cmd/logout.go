package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout <identifier>",
		Short: "Log out the account matching an email or display name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opTimeout)
			defer cancel()

			if err := app.gateway.Logout(ctx, args[0]); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged out %s\n", args[0])
			return nil
		},
	}
}

func newLogoutAllCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout-all",
		Short: "Log out every account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opTimeout)
			defer cancel()

			if err := app.gateway.LogoutAll(ctx); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out all accounts")
			return nil
		},
	}
}
