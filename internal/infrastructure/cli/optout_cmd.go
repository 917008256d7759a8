package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/usecases"
)

func newOptOutCmd(app *App, opts optionsFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "optout <text>",
		Short: "Work out the opt-out window for an enrollment date",
		Example: `  helpbot optout "I was enrolled on 3rd January 2026"
  helpbot optout 22/05/2026`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o := opts(cmd)
			o.DatesOnly = true
			rt, err := app.Build(cmd.Context(), o)
			if err != nil {
				return err
			}
			defer closeRuntime(rt)

			text := strings.Join(args, " ")
			period, err := rt.Dates.Calculate(cmd.Context(), text)
			if errors.Is(err, usecases.ErrNoDate) {
				return fmt.Errorf("no date found in %q", text)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), period.Summary)
			return nil
		},
	}
}
