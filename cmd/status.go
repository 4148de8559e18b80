package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type statusReport struct {
	Connected     bool   `json:"connected"`
	Accounts      int    `json:"accounts"`
	ActiveAccount string `json:"active_account,omitempty"`
}

func newStatusCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show connection state and an account summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opTimeout)
			defer cancel()

			gather := func(ctx context.Context) statusReport {
				report := statusReport{}
				report.Accounts = len(app.gateway.AllAccounts(ctx))
				if active, ok := app.gateway.ActiveAccount(ctx); ok {
					report.ActiveAccount = active.Identifier()
				}
				report.Connected = app.manager.IsConnected()
				return report
			}

			var report statusReport
			if asJSON || app.manager.IsConnected() {
				report = gather(ctx)
			} else {
				err := runConnectSpinner(ctx, cmd.ErrOrStderr(), "Connecting to account service...", func(ctx context.Context) error {
					report = gather(ctx)
					return nil
				})
				if err != nil {
					return err
				}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			state := "disconnected"
			if report.Connected {
				state = "connected"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "service: %s\n", state)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "accounts: %d\n", report.Accounts)
			if report.ActiveAccount != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "active: %s\n", report.ActiveAccount)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of the short form")

	return cmd
}
