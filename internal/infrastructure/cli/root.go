// Package cli implements the helpbot command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/adapters/session"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/ports"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/usecases"
	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/infrastructure/config"
)

// Runtime is the wired application for one command invocation.
type Runtime struct {
	Config      *config.Config
	Logger      *zap.Logger
	Chat        *usecases.ChatUseCase
	Dates       *usecases.OptOutCalculator
	Sessions    *session.Store
	Transcripts ports.TranscriptSink
	Reindexer   *usecases.Reindexer

	// NewWatcher is only called by serve --watch.
	NewWatcher func() (ports.FileWatcher, error)

	// Close releases the store and flushes the logger.
	Close func() error
}

// BuildOptions tells the builder how much of the application a command needs.
type BuildOptions struct {
	ConfigPath     string
	ConfigRequired bool

	// DatesOnly skips models and stores; no credentials are needed.
	DatesOnly bool

	// StoreBackend overrides store.backend when set.
	StoreBackend string
}

// App holds what the commands need from main.
type App struct {
	Build func(ctx context.Context, opts BuildOptions) (*Runtime, error)

	// IsInteractive reports whether stdout is a terminal.
	IsInteractive func() bool
}

// NewRootCmd creates the top-level "helpbot" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	if app.IsInteractive == nil {
		app.IsInteractive = func() bool { return false }
	}

	var configPath string
	root := &cobra.Command{
		Use:           "helpbot",
		Short:         "Member help-center assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Path to the YAML config file")

	// An explicit --config must exist; the default may be absent.
	opts := func(cmd *cobra.Command) BuildOptions {
		return BuildOptions{
			ConfigPath:     configPath,
			ConfigRequired: cmd.Flags().Changed("config"),
		}
	}

	root.AddCommand(
		newServeCmd(app, opts),
		newIngestCmd(app, opts),
		newAskCmd(app, opts),
		newOptOutCmd(app, opts),
	)

	return root
}

type optionsFunc func(cmd *cobra.Command) BuildOptions

func closeRuntime(rt *Runtime) {
	if rt.Close != nil {
		rt.Close()
	}
}
