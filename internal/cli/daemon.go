package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// perRunTimeout bounds one scheduled cycle so a hung feed cannot stall the
// daemon past the next tick.
const perRunTimeout = 5 * time.Minute

func init() {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the monitor on an internal cron schedule",
		Long: "Keeps the process alive and runs the pipeline on the cron " +
			"expression from the config `refresh` field. Use `run` instead when " +
			"scheduling externally.",
		Run: runDaemon,
	}
	RootCmd.AddCommand(cmd)
}

func runDaemon(cmd *cobra.Command, args []string) {
	cfg, log, p, err := setup()
	if err != nil {
		exitErr("setup", err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("signal received, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	c := cron.New()
	_, err = c.AddFunc(cfg.RefreshCron, func() {
		runCtx, runCancel := context.WithTimeout(ctx, perRunTimeout)
		defer runCancel()
		if err := p.Run(runCtx); err != nil {
			log.Error("scheduled run failed", zap.Error(err))
		}
	})
	if err != nil {
		exitErr("invalid refresh cron expression", err)
	}

	log.Info("daemon started", zap.String("refresh", cfg.RefreshCron))
	c.Start()

	<-ctx.Done()
	stopCtx := c.Stop()
	// Let an in-flight run finish before exiting.
	<-stopCtx.Done()
	log.Info("daemon exiting")
}
