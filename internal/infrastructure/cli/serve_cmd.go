package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/entities"
	httpserver "github.com/Niraj-vaghela/MEM-Bot-Online/internal/infrastructure/http"
)

func newServeCmd(app *App, opts optionsFunc) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := app.Build(cmd.Context(), opts(cmd))
			if err != nil {
				return err
			}
			defer closeRuntime(rt)
			return serve(cmd.Context(), rt, watch)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Re-ingest when the articles file changes")

	return cmd
}

func serve(ctx context.Context, rt *Runtime, watch bool) error {
	cfg := rt.Config
	srv := httpserver.NewServer(httpserver.Deps{
		Chat:        rt.Chat,
		Dates:       rt.Dates,
		Sessions:    rt.Sessions,
		Transcripts: rt.Transcripts,
		Logger:      rt.Logger,
	}, cfg.Server.Addr, cfg.Server.CORSOrigin)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	g.Go(func() error {
		runJanitor(gctx, rt, cfg.CleanupInterval())
		return nil
	})
	if watch {
		g.Go(func() error {
			watcher, err := rt.NewWatcher()
			if err != nil {
				return err
			}
			defer watcher.Stop()
			err = rt.Reindexer.Watch(gctx, watcher, cfg.Ingest.ArticlesPath)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

// runJanitor sweeps idle sessions every interval until ctx is done.
func runJanitor(ctx context.Context, rt *Runtime, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepSessions(ctx, rt)
		}
	}
}

// sweepSessions removes expired sessions and records their transcripts.
func sweepSessions(ctx context.Context, rt *Runtime) int {
	expired := rt.Sessions.CleanupExpired()
	for _, s := range expired {
		if rt.Transcripts == nil {
			continue
		}
		if err := rt.Transcripts.RecordSession(ctx, entities.SessionTranscript{ID: s.ID, MemberName: s.MemberName, Turns: s.Turns}); err != nil {
			rt.Logger.Warn("transcript write failed", zap.String("session", s.ID), zap.Error(err))
		}
	}
	if len(expired) > 0 {
		rt.Logger.Info("expired sessions removed", zap.Int("count", len(expired)))
	}
	return len(expired)
}
