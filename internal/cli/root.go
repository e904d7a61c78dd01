package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/cinchproject/jpm/pkg/buildinfo"
)

// Execute runs the jpm CLI and returns an error if any command fails.
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext. The --verbose flag switches it from info to debug level.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:          "jpm",
		Short:        "jpm manages Jenkins plugin lists against an update center",
		Long: `jpm resolves Jenkins plugin dependency closures against an update center,
keeps plugin-list files in sync with it, and compiles Jenkins distributions
for supported LTS versions.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().String("config", "", "config file (default ~/.config/jpm/config.toml)")

	root.AddCommand(newDepsolveCmd())
	root.AddCommand(newUpdateListsCmd())
	root.AddCommand(newVersionsCmd())
	root.AddCommand(newDistCmd())
	root.AddCommand(newGraphCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newCacheCmd())

	return root.ExecuteContext(ctx)
}

// configFromCmd loads the config honoring the persistent --config flag.
func configFromCmd(cmd *cobra.Command) (*Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return loadConfig(path)
}

// addUCFlags registers the update-center flags shared by catalog-backed
// commands.
func addUCFlags(cmd *cobra.Command, opts *ucOpts) {
	cmd.Flags().StringVar(&opts.ucURL, "uc-url", "", "full update-center.json URL (overrides the versioned default)")
	cmd.Flags().BoolVar(&opts.ignoreCache, "ignore-cache", false, "bypass the update-center response cache")
}
