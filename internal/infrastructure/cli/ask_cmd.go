package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/entities"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/usecases"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/infrastructure/config"
)

func newAskCmd(app *App, opts optionsFunc) *cobra.Command {
	var memory bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question and stream the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			o := opts(cmd)
			if memory {
				o.StoreBackend = config.StoreMemory
			}
			rt, err := app.Build(ctx, o)
			if err != nil {
				return err
			}
			defer closeRuntime(rt)

			if memory {
				report, err := rt.Reindexer.Run(ctx, rt.Config.Ingest.ArticlesPath, true)
				if err != nil {
					return err
				}
				rt.Logger.Debug("in-memory index ready", zap.Int("chunks", report.Chunks))
			}

			query := strings.Join(args, " ")
			stream, err := rt.Chat.Answer(ctx, entities.ChatRequest{Query: query})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var answer strings.Builder
			streamErr := usecases.ErrStreamTruncated
			for tok := range stream.Tokens {
				if tok.Error != nil {
					streamErr = tok.Error
					break
				}
				answer.WriteString(tok.Content)
				fmt.Fprint(out, tok.Content)
				if tok.Done {
					streamErr = nil
					break
				}
			}
			fmt.Fprintln(out)
			if streamErr != nil {
				return fmt.Errorf("answer interrupted: %w", streamErr)
			}

			followup := rt.Chat.Commit(ctx, "", strings.TrimSpace(query), answer.String())
			if followup != "" && app.IsInteractive() {
				fmt.Fprintf(out, "\nRelated: %s\n", followup)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&memory, "memory", false, "Index the articles file into memory instead of using the store")

	return cmd
}
