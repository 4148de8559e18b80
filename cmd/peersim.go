package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wfkpk/authgate/internal/adapters/ipc/unixsock"
	"github.com/wfkpk/authgate/internal/peersim"
)

// newPeersimCmd runs the simulated account service, so the demo works
// without a real one installed: `authgate peersim` in one terminal, the
// other commands in another.
func newPeersimCmd(app *app) *cobra.Command {
	var socketPath string

	cmd := &cobra.Command{
		Use:   "peersim",
		Short: "Run a simulated account service (for demos and development)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if socketPath == "" {
				socketPath = unixsock.SocketPath(app.peer)
			}

			peer := peersim.New(
				peersim.WithAction(app.peer.Action),
				peersim.WithLogger(app.logger),
			)
			if err := peer.Listen(socketPath); err != nil {
				return err
			}
			defer func() {
				_ = peer.Close()
				_ = os.Remove(socketPath)
			}()

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Simulated account service on %s (ctrl-c to stop)\n", socketPath)

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			select {
			case <-stop:
			case <-cmd.Context().Done():
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&socketPath, "socket", "", "Socket path (defaults to the configured peer socket)")

	return cmd
}
