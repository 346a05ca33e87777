package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sgaunet/s3grab/pkg/app"
	"github.com/sgaunet/s3grab/pkg/scheduler"
)

func newServeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API and run the scheduled downloads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancelFunc := context.WithCancel(cmd.Context())
			defer cancelFunc()
			setupCloseHandler(cancelFunc, e.log)

			store, err := e.openStore(ctx)
			if err != nil {
				return err
			}

			s := app.NewApp(ctx, e.cfg, store)
			s.SetLogger(e.log)

			sched := scheduler.NewScheduler(e.cfg, s.Runner())
			sched.SetLogger(e.log)
			if err := sched.Start(ctx); err != nil {
				return err
			}
			s.StartServer()

			<-ctx.Done()
			e.log.Info("stop the server")
			// jobs share ctx, so they stop at their next file
			sched.Stop()
			const shutdownTimeout = 10 * time.Second
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return s.StopServer(shutdownCtx)
		},
	}
}

func setupCloseHandler(cancelFunc context.CancelFunc, log *slog.Logger) {
	c := make(chan os.Signal, 5)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-c
		log.Info("signal received", slog.String("signal", s.String()))
		cancelFunc()
	}()
}
