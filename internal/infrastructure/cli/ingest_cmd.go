package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIngestCmd(app *App, opts optionsFunc) *cobra.Command {
	var file string
	var rebuild bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Embed the scraped articles into the vector store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := app.Build(cmd.Context(), opts(cmd))
			if err != nil {
				return err
			}
			defer closeRuntime(rt)

			path := rt.Config.Ingest.ArticlesPath
			if file != "" {
				path = file
			}

			report, err := rt.Reindexer.Run(cmd.Context(), path, rebuild)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d articles (%d chunks), skipped %d\n",
				report.Embedded, report.Chunks, report.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Articles file (defaults to ingest.articles_path)")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Clear the store before ingesting")

	return cmd
}
