package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/reminders"
	"github.com/spf13/cobra"
)

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "Print the three reminder windows for the scan instant",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		now, err := scanInstant()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "KIND\tFROM\tTO\n")
		for _, rule := range reminders.Rules {
			w := rule.Window(now)
			fmt.Fprintf(tw, "%s\t%s\t%s\n", rule.Kind, w.From.Format(time.RFC3339), w.To.Format(time.RFC3339))
		}
		return tw.Flush()
	},
}
