package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"chievents/internal/window"
)

func init() {
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List events starting within the horizon window",
		Run:   runUpcoming,
	}
	RootCmd.AddCommand(cmd)
}

func runUpcoming(cmd *cobra.Command, args []string) {
	cfg, log, p, err := setup()
	if err != nil {
		exitErr("setup", err)
	}
	defer log.Sync()

	events, err := p.Upcoming()
	if err != nil {
		exitErr("upcoming", err)
	}

	if len(events) == 0 {
		fmt.Printf("No events starting in the next %d days\n", cfg.HorizonDays)
		return
	}

	fmt.Printf("Found %d event(s) starting in the next %d days:\n\n", len(events), cfg.HorizonDays)
	today := time.Now()
	for i, ev := range events {
		fmt.Printf("%d. %s\n", i+1, ev.Name)
		fmt.Printf("   📅 %s\n", window.FormatTiming(ev.EventRecord, today))
		fmt.Printf("   📍 %s\n", ev.Venue)
		fmt.Printf("   🚕 Peak pickup: %s\n\n", window.EstimatePickup(ev))
	}
}
