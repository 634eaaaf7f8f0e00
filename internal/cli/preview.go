package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render the report from the current snapshot to stdout",
		Long: "Builds the plain-text report from the stored snapshot without " +
			"fetching feeds or sending email. Useful for checking templates and " +
			"window settings against real data.",
		Run: runPreview,
	}
	RootCmd.AddCommand(cmd)
}

func runPreview(cmd *cobra.Command, args []string) {
	_, log, p, err := setup()
	if err != nil {
		exitErr("setup", err)
	}
	defer log.Sync()

	subject, body, err := p.BuildPreview()
	if err != nil {
		exitErr("preview", err)
	}

	fmt.Println("Subject: " + subject)
	fmt.Println()
	fmt.Println(body)
}
