package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/peersync/internal/daemon"
	"github.com/iudanet/peersync/internal/kinds"
)

func (c *Cli) newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list <kind>",
		Short: "List the locally stored records of a kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := kinds.Lookup(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := daemon.OpenStore(ctx, c.cfg.Store, c.logger)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer func() {
				if err := store.Close(); err != nil {
					c.logger.Error("Failed to close store", "error", err)
				}
			}()

			collection, err := store.Collection(spec.Kind)
			if err != nil {
				return err
			}
			entities, err := collection.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list %s: %w", spec.Kind, err)
			}

			c.io.Printf("=== %s ===\n", spec.Kind)
			if len(entities) == 0 {
				c.io.Println("No records found.")
				return nil
			}
			c.io.Printf("Found %d record(s):\n\n", len(entities))

			for i, e := range entities {
				c.io.Printf("%d. %s\n", i+1, e.ID)
				c.io.Printf("   Version:  %d\n", e.Version)
				c.io.Printf("   Source:   %s\n", e.SourceApp)
				if !e.LastModified.IsZero() {
					c.io.Printf("   Modified: %s\n", e.LastModified.UTC().Format(time.RFC3339))
				}
				// поля в порядке схемы
				for _, f := range spec.Schema {
					c.io.Printf("   %s: %s\n", f.Name, e.Payload[f.Name].String())
				}
				c.io.Println()
			}
			return nil
		},
	}
}
