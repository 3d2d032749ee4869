package cli

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/peersync/internal/daemon"
)

// ShutdownTimeout ограничивает остановку транспортов после сигнала
const ShutdownTimeout = 5 * time.Second

func (c *Cli) newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start synchronizing the enabled kinds",
		Long: `Start one sync manager per enabled kind and keep running until
interrupted. Each kind listens on its own local port and connects to the
configured peers.

Example:
  peersyncd run --app-id vpnclient --peers browser,seafileconnect
  PEERSYNC_STORE_DRIVER=sqlite peersyncd run --db ./vpnclient.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			d, err := daemon.New(ctx, c.cfg, c.logger, nil)
			if err != nil {
				return err
			}

			for _, kind := range d.Kinds() {
				if m, ok := d.Manager(kind); ok {
					c.io.Printf("%-12s port %d\n", kind, m.Port())
				}
			}

			return d.Run(ctx, ShutdownTimeout)
		},
	}
}
