package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/cinchproject/jpm/pkg/dist"
	"github.com/cinchproject/jpm/pkg/releases"
)

// newDistCmd creates the dist command.
func newDistCmd() *cobra.Command {
	var (
		xyVersions []string
		rpmURL     string
		warURL     string
	)

	cmd := &cobra.Command{
		Use:   "dist <lists-dir> <dist-dir>",
		Short: "Compile a Jenkins distribution for supported x.y versions",
		Long: `Compile a Jenkins distribution tree.

A distribution consists of, per x.y version of Jenkins:

  - the plugin lists (default and optional)
  - all x.y.z RPM packages
  - all x.y.z WAR files

Plugin lists are read from <lists-dir>/<x.y>/. Without --xy-version, all
currently supported versions are compiled.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			listsDir, distDir := args[0], args[1]
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			if len(xyVersions) == 0 {
				supported, err := releases.NewClient("").Supported(ctx, time.Now())
				if err != nil {
					return err
				}
				seen := make(map[string]bool)
				// newest first, which is the order users care about
				for i := len(supported) - 1; i >= 0; i-- {
					xy := supported[i].XY
					if !seen[xy] {
						seen[xy] = true
						xyVersions = append(xyVersions, xy)
					}
				}
			}

			compiler := dist.NewCompiler(dist.Options{
				RPMBaseURL: rpmURL,
				WarBaseURL: warURL,
				Logger:     logger.Debugf,
			})

			spinner := newSpinnerWithContext(ctx, "Compiling distribution...")
			spinner.Start()
			track := newProgress(logger)
			if err := compiler.Compile(ctx, listsDir, distDir, xyVersions); err != nil {
				spinner.StopWithError("Distribution compile failed")
				return err
			}
			spinner.Stop()
			track.done("Compiled distribution")

			printSuccess("Compiled distribution for %d version(s)", len(xyVersions))
			printFile(distDir)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&xyVersions, "xy-version", "x", nil, "x.y version to act on (repeatable; all supported versions if unset)")
	cmd.Flags().StringVar(&rpmURL, "rpm-url", "", "RPM repository index URL (default "+dist.DefaultRPMBaseURL+")")
	cmd.Flags().StringVar(&warURL, "war-url", "", "WAR mirror index URL (default "+dist.DefaultWarBaseURL+")")
	return cmd
}
