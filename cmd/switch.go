package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wfkpk/authgate/internal/domain"
)

func newSwitchCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "switch <identifier>",
		Short: "Make the account matching an email or display name active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opTimeout)
			defer cancel()

			account, err := resolveAccount(ctx, app, args[0])
			if err != nil {
				return err
			}

			if err := app.gateway.SwitchAccount(ctx, account); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Switched to %s\n", account.Identifier())
			return nil
		},
	}
}

// resolveAccount finds the full descriptor for an identifier via the list
// query. The switch operation wants the descriptor, not just the key, so the
// service can validate what the caller believes it is switching to.
func resolveAccount(ctx context.Context, app *app, identifier string) (domain.Account, error) {
	for _, account := range app.gateway.AllAccounts(ctx) {
		if account.Email == identifier || account.Name == identifier || account.ID == identifier {
			return account, nil
		}
	}
	return domain.Account{}, fmt.Errorf("no account matches %q (service unreachable, or not logged in)", identifier)
}
