package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cinchproject/jpm/pkg/errors"
	"github.com/cinchproject/jpm/pkg/render"
	"github.com/cinchproject/jpm/pkg/resolve"
)

// newGraphCmd creates the graph command.
func newGraphCmd() *cobra.Command {
	var (
		opts   ucOpts
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "graph <uc-version> <plugin>",
		Short: "Render a plugin's dependency closure as a graph",
		Long: `Resolve a plugin's dependency closure and render it as a graph.

Nodes are the plugins in the closure labeled with their resolved versions;
edges are the update center's dependency declarations between them.

Examples:
  jpm graph 2.462 git -o git.svg
  jpm graph 2.462 git --format dot`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ucVersion, name := args[0], args[1]
			if err := errors.ValidatePluginName(name); err != nil {
				return err
			}
			if format != "dot" && format != "svg" {
				return fmt.Errorf("unknown format %q (want dot or svg)", format)
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

			dot := render.ClosureDOT(closure, cat)
			out := []byte(dot)
			if format == "svg" {
				out, err = render.SVG(cmd.Context(), dot)
				if err != nil {
					return err
				}
			}

			if output == "" {
				_, err = os.Stdout.Write(out)
				return err
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return err
			}
			printSuccess("Rendered %d plugins", len(closure))
			printFile(output)
			return nil
		},
	}

	addUCFlags(cmd, &opts)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVarP(&format, "format", "f", "dot", "output format: dot or svg")
	return cmd
}
