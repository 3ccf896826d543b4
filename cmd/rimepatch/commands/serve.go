package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-rimepatch"
	"github.com/goliatone/go-rimepatch/internal/server"
	"github.com/goliatone/go-rimepatch/pkg/activity"
	"github.com/goliatone/go-rimepatch/pkg/store"
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	var listen string
	var noWatch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP editing API",
		Long: `Start an HTTP server exposing one editing session per document.

Files changed outside the editor mark their sessions stale unless
--no-watch is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd, true)
			if err != nil {
				return err
			}
			if listen != "" {
				e.cfg.Listen = listen
			}
			checker, err := e.cfg.Checker(rimepatch.WithEvaluatorLogger(rimepatch.ZerologEvaluatorLogger(e.logger)))
			if err != nil {
				return err
			}

			serverConfig := server.DefaultConfig()
			serverConfig.Listen = e.cfg.Listen
			serverConfig.AllowedOrigins = e.cfg.AllowedOrigins
			serverConfig.PreviewDelay = e.cfg.PreviewDelay

			srv := server.New(serverConfig, e.store,
				server.WithLogger(e.logger),
				server.WithDeployer(e.cfg.Deployer()),
				server.WithChecker(checker),
				server.WithActivityHooks(activity.LogHook(e.logger)),
			)

			if !noWatch {
				if info, statErr := os.Stat(e.cfg.ConfigDir); statErr == nil && info.IsDir() {
					watcher, err := store.NewWatcher(e.cfg.ConfigDir, srv.MarkStale, e.logger, store.WithSkip(e.store.Written))
					if err != nil {
						e.logger.Warn().Err(err).Msg("file watching disabled")
					} else {
						watcher.Start()
						defer watcher.Stop()
					}
				} else {
					e.logger.Warn().Str("dir", e.cfg.ConfigDir).Msg("config directory missing, file watching disabled")
				}
			}

			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			e.logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				e.logger.Error().Err(err).Msg("server shutdown error")
			}
			e.logger.Info().Msg("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Address to listen on (default from settings)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not watch the config directory for external edits")
	return cmd
}
