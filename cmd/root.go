package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "authgate",
		Short:         "authgate: manage accounts held by the local account service",
		Long:          "authgate binds to the on-host account service over its IPC socket and exposes login, logout, account switching and account queries from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newLoginCmd(app),
		newLogoutCmd(app),
		newLogoutAllCmd(app),
		newSwitchCmd(app),
		newAccountCmd(app),
		newStatusCmd(app),
		newPeersimCmd(app),
	)

	return rootCmd
}
