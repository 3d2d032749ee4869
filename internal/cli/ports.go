package cli

import (
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iudanet/peersync/internal/kinds"
	"github.com/iudanet/peersync/internal/ports"
)

func (c *Cli) newPortsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ports [app-id...]",
		Short: "Show the candidate ports of apps for every enabled kind",
		Long: `Print the preferred port and the probe range of each app id for each
enabled kind. Without arguments the configured app id and peers are shown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			appIDs := args
			if len(appIDs) == 0 {
				appIDs = append([]string{c.cfg.App.ID}, c.cfg.Peers...)
			}

			w := tabwriter.NewWriter(c.io, 0, 4, 2, ' ', 0)
			_, _ = w.Write([]byte("KIND\tAPP\tPREFERRED\tCANDIDATES\n"))

			for _, name := range c.cfg.Kinds {
				spec, err := kinds.Lookup(name)
				if err != nil {
					return err
				}
				for _, appID := range appIDs {
					candidates := ports.Candidates(appID, spec.BasePort, c.cfg.PortAttempts)
					line := strings.Join([]string{
						name,
						appID,
						strconv.Itoa(ports.Preferred(appID, spec.BasePort)),
						formatRange(candidates),
					}, "\t")
					_, _ = w.Write([]byte(line + "\n"))
				}
			}

			return w.Flush()
		},
	}
}

func formatRange(candidates []int) string {
	if len(candidates) == 0 {
		return "-"
	}
	return strconv.Itoa(candidates[0]) + "-" + strconv.Itoa(candidates[len(candidates)-1])
}
