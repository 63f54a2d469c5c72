package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/md-rashed-zaman/localbook/libs/config"
	"github.com/md-rashed-zaman/localbook/libs/runtime"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/bootstrap"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/reminders"
	"github.com/spf13/cobra"
)

var (
	dryRun  bool
	verbose bool
)

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "List appointments due for each reminder kind without changing them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listDue(cmd)
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one reminder scan tick",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if dryRun {
			return listDue(cmd)
		}
		now, err := scanInstant()
		if err != nil {
			return err
		}
		if _, err := config.RequiredString("DATABASE_URL"); err != nil {
			return err
		}
		_, leaseTTL, err := bootstrap.ScanTiming()
		if err != nil {
			return err
		}
		core, err := bootstrap.Open(cmd.Context(), cliLogger())
		if err != nil {
			return err
		}
		defer core.Close()

		// The service's scheduler and a manual scan share the Redis lease.
		rec := &recordingTicker{next: core.Scanner}
		sched := reminders.NewScheduler(rec, cliLogger(), reminders.SchedulerConfig{
			Lease: core.Lease(leaseTTL),
			Now:   func() time.Time { return now },
		})
		if !sched.RunOnce(cmd.Context()) {
			return errors.New("scan skipped: another scan holds the reminder lease")
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "KIND\tMATCHED\tMARKED\tSKIPPED\tFAILED\n")
		for _, r := range rec.results {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", r.Kind, r.Matched, r.Marked, r.Skipped, r.Failed)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		return rec.err
	},
}

// recordingTicker keeps the outcome of the tick the scheduler ran.
type recordingTicker struct {
	next    reminders.Ticker
	results []reminders.Result
	err     error
}

func (t *recordingTicker) Tick(ctx context.Context, now time.Time) ([]reminders.Result, error) {
	t.results, t.err = t.next.Tick(ctx, now)
	return t.results, t.err
}

func init() {
	scanCmd.Flags().BoolVar(&dryRun, "dry-run", false, "only list what would be reminded")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "write service logs to stdout")
}

func listDue(cmd *cobra.Command) error {
	now, err := scanInstant()
	if err != nil {
		return err
	}
	if _, err := config.RequiredString("DATABASE_URL"); err != nil {
		return err
	}
	core, err := bootstrap.Open(cmd.Context(), cliLogger())
	if err != nil {
		return err
	}
	defer core.Close()

	due, err := core.Scanner.Due(cmd.Context(), now)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "KIND\tAPPOINTMENT\tCUSTOMER\tBUSINESS\tSCHEDULED\n")
	for _, rule := range reminders.Rules {
		for _, a := range due[rule.Kind] {
			printDue(tw, rule.Kind, a)
		}
	}
	return tw.Flush()
}

func printDue(w io.Writer, kind model.ReminderKind, a model.Appointment) {
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", kind, a.ID, a.CustomerID, a.BusinessID, a.ScheduledAt.Format(time.RFC3339))
}

func cliLogger() *slog.Logger {
	if verbose {
		return runtime.NewLogger("reminderctl")
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
