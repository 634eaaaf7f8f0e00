package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"chievents/internal/mail"
	"chievents/internal/model"
	"chievents/internal/report"
)

func init() {
	cmd := &cobra.Command{
		Use:   "send-test",
		Short: "Send a canned report to verify SMTP settings",
		Run:   runSendTest,
	}
	RootCmd.AddCommand(cmd)
}

func runSendTest(cmd *cobra.Command, args []string) {
	cfg, log, _, err := setup()
	if err != nil {
		exitErr("setup", err)
	}
	defer log.Sync()

	builder, err := report.NewBuilder()
	if err != nil {
		exitErr("report builder", err)
	}

	now := time.Now()
	data := report.Data{
		Today:       now,
		GeneratedAt: now,
		News: []report.VenueNews{{
			Key:  "mccormick_place",
			Name: "McCormick Place (TEST)",
			Events: []model.EventRecord{
				{
					Name:      "Test Event - Chicago Auto Show",
					StartDate: "2026-02-07",
					EndDate:   "2026-02-16",
					Location:  "South/North Buildings",
					DetailURL: "https://www.mccormickplace.com/events/",
				},
				{
					Name:      "Test Event - Tech Conference",
					StartDate: "2026-03-15",
					EndDate:   "2026-03-18",
					Location:  "West Building",
					DetailURL: "https://www.mccormickplace.com/events/",
				},
			},
		}},
	}

	textBody, htmlBody, err := builder.Render(data)
	if err != nil {
		exitErr("render", err)
	}

	sender := mail.NewSender(cfg.Email, log)
	subject := "[TEST] " + builder.Subject(data)
	if err := sender.Send(cmd.Context(), subject, textBody, htmlBody); err != nil {
		exitErr("send", err)
	}

	fmt.Printf("Test email sent to %s\n", cfg.Email.Recipient)
}
