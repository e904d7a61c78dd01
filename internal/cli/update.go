package cli

import (
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cinchproject/jpm/pkg/errors"
	"github.com/cinchproject/jpm/pkg/reconcile"
)

// pluginBaseURL links a plugin name to its upstream page in reports.
const pluginBaseURL = "https://plugins.jenkins.io/"

var (
	prodLists = []string{"default.txt", "optional.txt"}
	testLists = []string{"default-test.txt", "optional-test.txt"}
)

// newUpdateListsCmd creates the update-lists command.
func newUpdateListsCmd() *cobra.Command {
	var (
		opts          ucOpts
		dryRun        bool
		test          bool
		plugin        string
		removeMissing bool
		yes           bool
	)

	cmd := &cobra.Command{
		Use:   "update-lists <uc-version> <lists-dir>",
		Short: "Update plugin-list files from a Jenkins update center",
		Long: `Update the plugin lists in a directory against an update center.

default.txt is processed before optional.txt: a plugin pulled into the
default list is removed from the optional list in the same run. Every entry
is refreshed to the update center's latest version together with its full
dependency closure; with --plugin only that plugin and its closure change.

Plugins that have disappeared upstream are reported, and removed from the
lists when --remove-missing is set.

Examples:
  jpm update-lists 2.462 ./plugin-lists
  jpm update-lists 2.462 ./plugin-lists --plugin git
  jpm update-lists 2.462 ./plugin-lists --test --dry-run`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ucVersion, listsDir := args[0], args[1]
			logger := loggerFromContext(cmd.Context())

			if plugin != "" {
				if err := errors.ValidatePluginName(plugin); err != nil {
					return err
				}
			}

			if removeMissing && !dryRun && !yes {
				ok, err := confirm("Plugins missing upstream will be removed from the list files. Continue?")
				if err != nil {
					return err
				}
				if !ok {
					printInfo("Aborted, lists unchanged")
					return nil
				}
			}

			cfg, err := configFromCmd(cmd)
			if err != nil {
				return err
			}
			cat, err := fetchCatalog(cmd.Context(), cfg, opts, ucVersion)
			if err != nil {
				return err
			}

			names := prodLists
			if test {
				names = testLists
			}
			lists := make([]string, len(names))
			for i, name := range names {
				lists[i] = filepath.Join(listsDir, name)
			}

			track := newProgress(logger)
			report, err := reconcile.Reconcile(cat, reconcile.Options{
				Lists:         lists,
				Plugin:        plugin,
				RemoveMissing: removeMissing,
				DryRun:        dryRun,
				Logger:        logger.Debugf,
			})
			if err != nil {
				return err
			}
			logger.Debugf("reconcile run %s finished", report.RunID)
			track.done("Reconciled plugin lists")

			for _, w := range report.Warnings {
				printWarning("%s", w)
			}
			printMissingReport(report, removeMissing)

			if dryRun {
				printInfo("Dry run, no files written")
				return nil
			}
			printSuccess("Updated plugin lists")
			for _, list := range lists {
				printFile(list)
			}
			return nil
		},
	}

	addUCFlags(cmd, &opts)
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "report changes without writing list files")
	cmd.Flags().BoolVarP(&test, "test", "t", false, `modify "*-test.txt" plugin lists instead of the default *.txt lists`)
	cmd.Flags().StringVarP(&plugin, "plugin", "p", "", "only update a single plugin and its dependencies")
	cmd.Flags().BoolVarP(&removeMissing, "remove-missing", "r", false, "remove plugins that are no longer available upstream")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// printMissingReport lists the plugins that are gone upstream, per list file.
func printMissingReport(report *reconcile.Report, removed bool) {
	if !report.HasMissing() {
		return
	}

	if removed {
		printWarning("Some plugins are no longer available upstream and have been removed.")
	} else {
		printWarning("Some plugins are no longer available upstream.")
	}

	paths := make([]string, 0, len(report.Missing))
	for path := range report.Missing {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if len(report.Missing[path]) == 0 {
			continue
		}
		printInfo("Plugins no longer available listed in %s", path)
		for _, name := range report.Missing[path] {
			printDetail("- %s (%s)", name, StyleLink.Render(pluginBaseURL+name))
		}
	}
}
