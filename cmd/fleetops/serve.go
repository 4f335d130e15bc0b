package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	httpadapter "fleetops/internal/adapters/http"
	"fleetops/internal/workers/assignrunner"
)

func newServeCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background assignment workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving (also MIGRATE_ON_START=true)")
	return cmd
}

func runServe(parent context.Context, migrate bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()

	if migrate || a.cfg.MigrateOnStart {
		if err := a.db.Migrate(ctx, "up", a.log.Named("migrate")); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	srv := httpadapter.New(a.svc, a.db, a.log.Named("http"))
	httpSrv := &http.Server{
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ln, err := net.Listen("tcp", a.cfg.ListenAddr)
	if err != nil {
		return err
	}
	if a.cfg.MaxConns > 0 {
		ln = netutil.LimitListener(ln, a.cfg.MaxConns)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info("listening", zap.String("addr", a.cfg.ListenAddr), zap.Int("max_conns", a.cfg.MaxConns))
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	if a.cfg.AssignWorkers > 0 {
		processor := assignrunner.ProcessorFunc(func(ctx context.Context, taskID string) error {
			_, err := a.svc.Scheduler.Assign(ctx, taskID)
			return err
		})
		g.Go(func() error {
			a.log.Info("assignment workers started", zap.Int("workers", a.cfg.AssignWorkers))
			assignrunner.Run(gctx, a.db, processor, a.cfg.AssignWorkers, 500*time.Millisecond, a.log.Named("assignrunner"))
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
