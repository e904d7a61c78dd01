package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cinchproject/jpm/pkg/releases"
)

const dateFormat = "2006-01-02"

// newVersionsCmd creates the versions command group.
func newVersionsCmd() *cobra.Command {
	var repoURL string

	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Report supported Jenkins LTS versions",
	}
	cmd.PersistentFlags().StringVar(&repoURL, "repo-url", "", "stable RPM repository URL (default "+releases.DefaultRepoURL+")")

	cmd.AddCommand(newVersionsReportCmd(&repoURL))
	cmd.AddCommand(newVersionsLatestCmd(&repoURL))
	return cmd
}

// newVersionsReportCmd creates the "versions report" subcommand. It prints
// the two most recent support windows; older windows are long out of
// support and only add noise.
func newVersionsReportCmd(repoURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Report currently supported x.y versions of Jenkins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			supported, err := releases.NewClient(*repoURL).Supported(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			if len(supported) > 2 {
				supported = supported[len(supported)-2:]
			}
			for _, s := range supported {
				fmt.Printf("- %s\n", StyleHighlight.Render(s.XY))
				fmt.Printf("  - xyz_version: %s\n", s.XYZ)
				fmt.Printf("  - support_begins: %s\n", s.SupportBegins.Format(dateFormat))
				fmt.Printf("  - support_ends: %s\n", s.SupportEnds().Format(dateFormat))
				fmt.Printf("  - build_datestamp: %s\n", s.BuildDate.Format(dateFormat))
			}
			return nil
		},
	}
}

// newVersionsLatestCmd creates the "versions latest" subcommand: just the
// newest supported x.y.z on stdout, for script consumption (e.g. setting
// JENKINS_VERSION in test runs).
func newVersionsLatestCmd(repoURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Print the latest supported x.y.z version of Jenkins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			supported, err := releases.NewClient(*repoURL).Supported(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			latest, ok := releases.Latest(supported)
			if !ok {
				return fmt.Errorf("no supported versions found")
			}
			fmt.Println(latest.XYZ)
			return nil
		},
	}
}
