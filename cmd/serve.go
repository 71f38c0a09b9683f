package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Mavton23/rentix/internal/store"
	"github.com/Mavton23/rentix/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web console",
	Long: `Serve the browser console on server.addr. The console shares the session
with the CLI; signing in on either side signs in both.

Examples:
  rentixctl serve
  rentixctl serve --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (default server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.Server.Addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return withApp(ctx, func(a *app) error {
		srv, err := web.New(ctx, web.Deps{
			Session:   a.session,
			API:       a.api,
			Navigator: a.nav,
			Logger:    logger,
		}, web.Options{
			RateLimit:   cfg.Server.RateLimit,
			RateBurst:   cfg.Server.RateBurst,
			Tracing:     cfg.Telemetry.Enabled,
			ServiceName: cfg.Telemetry.ServiceName,
		})
		if err != nil {
			return err
		}
		watchSessionFile(ctx, a)

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start(addr)
		}()
		printer.Success("Console listening on http://%s", addr)
		logger.Info("console started", "addr", addr, "session", a.session.State().String())

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down console")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	})
}

// watchSessionFile reloads the session when another process logs in or out through the
// same session file.
func watchSessionFile(ctx context.Context, a *app) {
	fs, ok := a.store.(*store.FileStore)
	if !ok {
		return
	}
	err := fs.Watch(ctx, func() {
		if err := a.session.Init(ctx); err != nil {
			logger.Warn("reloading session", "error", err)
		}
	}, func(err error) {
		logger.Warn("session file watch", "error", err)
	})
	if err != nil {
		logger.Warn("sessions from other processes will not be picked up", "error", err)
	}
}
