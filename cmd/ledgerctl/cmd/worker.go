package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/jobs"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newWorkerCmd(a *app) *cobra.Command {
	var metricsAddr string
	c := &cobra.Command{
		Use:   "worker",
		Short: "Run the reconcile worker until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.rt.cfg.RedisAddr == "" {
				return errNoRedis
			}
			logger := a.rt.logger

			worker, err := jobs.NewWorker(jobs.WorkerConfig{
				RedisOpts:   asynq.RedisClientOpt{Addr: a.rt.cfg.RedisAddr},
				Logger:      logger,
				Concurrency: a.rt.cfg.ReconcileConcurrency,
				Reconciler:  jobs.NewReconciler(a.rt.store),
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if metricsAddr != "" {
				srv := &http.Server{
					Addr:              metricsAddr,
					Handler:           promhttp.HandlerFor(a.rt.registry, promhttp.HandlerOpts{}),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					logger.Info("Serving metrics", slog.String("addr", metricsAddr))
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error("Metrics server stopped", slog.String("error", err.Error()))
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			logger.Info("Reconcile worker started", slog.Int("concurrency", a.rt.cfg.ReconcileConcurrency))
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logger.Info("Reconcile worker stopped")
			return nil
		},
	}
	c.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	return c
}
