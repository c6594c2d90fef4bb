package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"docgrip/internal/query"
)

func newSearchCommand(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the installed docsets once and print the results",
		Long: `Search runs a query against every installed docset, or those selected by a
keyword prefix, and prints the ranked results with their page URLs.`,
		Example: `  docgrip search split
  docgrip search python:str.split`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.loadDocsets(cmd.Context()); err != nil {
				return err
			}

			q := query.Parse(strings.Join(args, " "))
			results, err := a.registry.SearchSync(cmd.Context(), q)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintf(out, "No results for %q\n", q.String())
				return nil
			}
			if limit > 0 && len(results) > limit {
				results = results[:limit]
			}

			title := color.New(color.Bold).SprintFunc()
			docset := color.New(color.FgBlue).SprintFunc()
			typ := color.New(color.FgYellow).SprintFunc()
			link := color.New(color.Faint).SprintFunc()
			for _, r := range results {
				fmt.Fprintf(out, "%s %s %s\n    %s\n", title(r.Title), typ(r.Type), docset("["+r.Docset+"]"), link(r.URL))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of results to print, 0 for all")
	return cmd
}
