// Package cli implements the peersyncd command line.
package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iudanet/peersync/internal/config"
	"github.com/iudanet/peersync/internal/iocli"
	"github.com/iudanet/peersync/internal/logging"
)

// BuildInfo is set from ldflags in main.
type BuildInfo struct {
	Version   string
	BuildDate string
	GitCommit string
}

// Cli holds state shared by all commands.
type Cli struct {
	io      iocli.IO
	v       *viper.Viper
	cfg     *config.Config
	logger  *slog.Logger
	closer  io.Closer
	build   BuildInfo
	cfgFile string
}

// flagKeys связывает флаги с ключами конфигурации
var flagKeys = map[string]string{
	"app-id":    "app.id",
	"app-name":  "app.name",
	"driver":    "store.driver",
	"db":        "store.path",
	"peers":     "peers",
	"kinds":     "kinds",
	"log-level": "log.level",
	"log-file":  "log.file",
}

// NewRootCommand creates the root command writing to out.
func NewRootCommand(out iocli.IO, build BuildInfo) *cobra.Command {
	c := &Cli{io: out, v: config.New(), build: build}
	if build.Version != "" {
		c.v.SetDefault("app.version", build.Version)
	}

	cmd := &cobra.Command{
		Use:           "peersyncd",
		Short:         "Synchronize shared entities with sibling apps",
		Long:          "peersyncd keeps themes, profiles, history, feeds, bookmarks, preferences,\nlanguage and torrents in sync with sibling applications on this device.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return c.load()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.closer != nil {
				return c.closer.Close()
			}
			return nil
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(os.Stderr)

	flags := cmd.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "path to YAML config file")
	flags.String("app-id", "", "application id announced to peers")
	flags.String("app-name", "", "human readable application name")
	flags.String("driver", "", "store driver (bolt|sqlite)")
	flags.String("db", "", "path to the local database")
	flags.StringSlice("peers", nil, "app ids of sibling applications")
	flags.StringSlice("kinds", nil, "entity kinds to synchronize")
	flags.String("log-level", "", "log level (debug|info|warn|error)")
	flags.String("log-file", "", "write logs to a rotated file")

	for name, key := range flagKeys {
		_ = c.v.BindPFlag(key, flags.Lookup(name))
	}

	cmd.AddCommand(c.newRunCommand())
	cmd.AddCommand(c.newPortsCommand())
	cmd.AddCommand(c.newListCommand())
	cmd.AddCommand(c.newVersionCommand())

	return cmd
}

func (c *Cli) load() error {
	cfg, err := config.Load(c.v, c.cfgFile)
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.LoggingOptions(), os.Stderr)
	if err != nil {
		return err
	}

	c.cfg, c.logger, c.closer = cfg, logger, closer
	slog.SetDefault(logger)
	return nil
}

func (c *Cli) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			c.io.Printf("peersyncd\n")
			c.io.Printf("Version:    %s\n", c.build.Version)
			c.io.Printf("Build Date: %s\n", c.build.BuildDate)
			c.io.Printf("Git Commit: %s\n", c.build.GitCommit)
		},
	}
}
