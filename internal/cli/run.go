package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one monitoring cycle and exit",
		Long: "Fetches all feeds, detects new events, checks flights, sends the " +
			"report if warranted, and overwrites the snapshot. This is the entry " +
			"point for an external cron schedule.",
		Run: runOnce,
	}
	RootCmd.AddCommand(cmd)
}

func runOnce(cmd *cobra.Command, args []string) {
	_, log, p, err := setup()
	if err != nil {
		exitErr("setup", err)
	}
	defer log.Sync()

	if err := p.Run(cmd.Context()); err != nil {
		log.Error("run failed", zap.Error(err))
		exitErr("run", err)
	}
}
