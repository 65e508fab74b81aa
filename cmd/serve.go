package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/workload-radar/internal/scheduler"
	"github.com/spigell/workload-radar/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API and refresh the dataset on a schedule",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().String("refresh-schedule", "", "cron schedule for refreshing the dataset, empty string keeps the config value")

	viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("serve.refresh-schedule", serveCmd.Flags().Lookup("refresh-schedule"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := setup(ctx, "serve")
	cfg := p.config.Serve

	srv := server.New(server.Config{
		Addr:           cfg.Addr,
		AllowedOrigins: cfg.AllowedOrigins,
		Loader:         p.loader,
		Metrics:        p.metrics,
		Thresholds:     p.config.Alerts,
		DefaultTopK:    p.config.topK(),
		Version:        version,
		Logger:         p.logger,
	})

	sched := scheduler.New(p.logger)
	refresh := scheduler.NewRefreshJob(p.loader, p.metrics, p.logger)
	if cfg.RefreshSchedule != "" {
		if err := sched.AddJob(cfg.RefreshSchedule, refresh); err != nil {
			p.logger.Fatal("scheduling dataset refresh", zap.Error(err))
		}
	}

	// Warm the cache so the first request does not wait on the upstream.
	_ = sched.RunNow(refresh)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)

	g.Go(func() error {
		sched.Start()
		<-gctx.Done()
		sched.Stop()
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		p.loader.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		p.logger.Fatal("serving", zap.Error(err))
	}

	p.logger.Info("exiting", zap.String("reason", "shutdown requested"))
}
