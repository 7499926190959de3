package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"steward/internal/platform/config"
	"steward/internal/platform/httpserver"
	"steward/internal/platform/logger"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, cfg, log)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// run wires the app and serves HTTP alongside the outbox relay until ctx is
// done. Failures are logged here; the caller only decides the exit code.
func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		log.Error("invalid governance policy", "config_error", true, "policy_file", cfg.PolicyFile, "error", err)
		return err
	}

	st, closeStores, err := newStores(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open stores", "error", err)
		return err
	}
	defer closeStores()

	a, err := newApp(ctx, cfg, policy, st, log)
	if err != nil {
		log.Error("failed to wire services", "config_error", true, "error", err)
		return err
	}
	defer a.Close()

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		log.Error("failed to listen", "addr", cfg.Addr, "error", err)
		return err
	}
	log.Info("starting steward", "addr", ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	if a.relay != nil {
		g.Go(func() error {
			if err := a.relay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("outbox relay: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		return httpserver.Serve(gctx, httpserver.New(cfg.Addr, a.router, log), ln)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped", "error", err)
		return err
	}
	log.Info("steward stopped")
	return nil
}
