// Command walletd serves the wallet over HTTP with Prometheus metrics.
// Snapshots go to the store named by WALLET_STORE_DRIVER (memory, postgres,
// sqlite or mongo) at WALLET_STORE_DSN; durable stores are restored on start.
//
//	walletd               run the server
//	walletd token <who>   print a one-day access token for identity <who>
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xraph/wallet"
	"github.com/xraph/wallet/account"
	"github.com/xraph/wallet/api"
	audithook "github.com/xraph/wallet/audit_hook"
	"github.com/xraph/wallet/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "walletd:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := configFromEnv()
	if err != nil {
		return err
	}
	auth := api.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer)

	if len(os.Args) == 3 && os.Args[1] == "token" {
		token, err := auth.Issue(account.Identity(os.Args[2]), 24*time.Hour)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	warnInsecureDefaults(logger, cfg)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	audit := audithook.New(audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
		logger.InfoContext(ctx, "audit",
			"action", evt.Action,
			"resource", evt.Resource,
			"resource_id", evt.ResourceID,
			"outcome", evt.Outcome,
			"severity", evt.Severity,
		)
		return nil
	}), audithook.WithLogger(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	opts := append(engineOptions(cfg, logger),
		wallet.WithPlugin(observability.NewMetricsExtension(observability.NewPrometheusFactory(reg))),
		wallet.WithPlugin(audit),
	)
	engine := wallet.New(st, opts...)

	if err := engine.Start(ctx); err != nil {
		_ = st.Close()
		return err
	}
	logger.Info("walletd: store ready", "driver", cfg.StoreDriver, "restore_on_start", cfg.durable())

	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	api.New(engine, auth, logger).Register(router)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("walletd: listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.Error("walletd: server error", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return errors.Join(srv.Shutdown(shutdownCtx), engine.Stop())
}

// engineOptions maps process config onto the engine. Durable stores are
// restored on start so a restart resumes from the last snapshot.
func engineOptions(cfg config, logger *slog.Logger) []wallet.Option {
	return []wallet.Option{
		wallet.WithLogger(logger),
		wallet.WithSnapshotInterval(cfg.SnapshotInterval),
		wallet.WithSnapshotRetention(cfg.SnapshotRetention),
		wallet.WithRestoreOnStart(cfg.durable()),
	}
}
