package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed docsets",
		Long: `List prints every docset found in the docset directories together with
the keywords that select it in a query.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.loadDocsets(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			docsets := a.registry.Docsets()
			if len(docsets) == 0 {
				fmt.Fprintf(out, "No docsets found in %s\n", strings.Join(a.cfg.DocsetPaths, ", "))
				return nil
			}

			title := color.New(color.Bold).SprintFunc()
			name := color.New(color.Faint).SprintFunc()
			keyword := color.New(color.FgCyan).SprintFunc()
			for _, ds := range docsets {
				kws := make([]string, len(ds.Keywords()))
				for i, kw := range ds.Keywords() {
					kws[i] = keyword(kw + ":")
				}
				fmt.Fprintf(out, "%s (%s) %s\n", title(ds.Title()), name(ds.Name()), strings.Join(kws, " "))
			}
			return nil
		},
	}
}
