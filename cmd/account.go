package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wfkpk/authgate/internal/adapters/render/accounts"
)

func newAccountCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Query accounts held by the service",
	}

	cmd.AddCommand(
		newAccountListCmd(app),
		newAccountActiveCmd(app),
	)

	return cmd
}

func newAccountListCmd(app *app) *cobra.Command {
	var (
		asJSON     bool
		showTokens bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts in service order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opTimeout)
			defer cancel()

			all := app.gateway.AllAccounts(ctx)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(all)
			}

			rendered, err := app.renderer(all, accounts.RenderOptions{
				Connected:  app.manager.IsConnected(),
				ShowTokens: showTokens,
			})
			if err != nil {
				return fmt.Errorf("render accounts: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of the formatted listing")
	cmd.Flags().BoolVar(&showTokens, "show-tokens", false, "Include session token suffixes")

	return cmd
}

func newAccountActiveCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "active",
		Short: "Show the active account, if any",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opTimeout)
			defer cancel()

			account, ok := app.gateway.ActiveAccount(ctx)
			if !ok {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No active account")
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(account)
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", account.Identifier(), account.ID)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of the short form")

	return cmd
}
