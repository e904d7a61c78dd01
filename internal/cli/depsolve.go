package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cinchproject/jpm/pkg/errors"
	"github.com/cinchproject/jpm/pkg/resolve"
)

// newDepsolveCmd creates the depsolve command.
//
// Output is one name==version line per plugin: the target first, then its
// dependencies sorted by name, matching the plugin-list file format so the
// output can be pasted into a list.
func newDepsolveCmd() *cobra.Command {
	var opts ucOpts

	cmd := &cobra.Command{
		Use:   "depsolve <uc-version> <plugin>",
		Short: "Resolve a plugin's transitive dependency closure",
		Long: `Resolve the complete dependency closure of a plugin against the update
center for a given Jenkins version.

Every plugin in the closure is reported at the highest version required by
any dependency path, lifted to the update center's latest when it is newer.

Examples:
  jpm depsolve 2.462 git
  jpm depsolve 2.462 workflow-aggregator --ignore-cache`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ucVersion, name := args[0], args[1]
			if err := errors.ValidatePluginName(name); err != nil {
				return err
			}

			cfg, err := configFromCmd(cmd)
			if err != nil {
				return err
			}
			cat, err := fetchCatalog(cmd.Context(), cfg, opts, ucVersion)
			if err != nil {
				return err
			}

			closure, warnings, err := resolve.Resolve(name, cat)
			if err != nil {
				return err
			}
			for _, w := range warnings {
				printWarning("%s", w)
			}

			target, deps := closure[0], closure[1:]
			sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })

			fmt.Println(target.String())
			for _, dep := range deps {
				fmt.Println(dep.String())
			}
			return nil
		},
	}

	addUCFlags(cmd, &opts)
	return cmd
}
