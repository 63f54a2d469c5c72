package main

import (
	"fmt"
	"os"
	"time"

	"github.com/md-rashed-zaman/localbook/libs/config"
	"github.com/md-rashed-zaman/localbook/libs/runtime"
	"github.com/spf13/cobra"
)

var (
	envFile string
	atFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "reminderctl",
	Short: "Inspect and run the appointment reminder scan",
	Long: `reminderctl shows the reminder windows for an instant, lists the
appointments due in them, and can run a single scan tick against the
booking-service database.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.LoadDotEnv(envFile)
	},
}

func Execute() {
	ctx, stop := runtime.SignalContext()
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "environment file to load before reading config")
	rootCmd.PersistentFlags().StringVar(&atFlag, "at", "", "scan instant in RFC3339 (default now)")
	rootCmd.AddCommand(windowsCmd, dueCmd, scanCmd)
}

func scanInstant() (time.Time, error) {
	if atFlag == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, atFlag)
	if err != nil {
		return time.Time{}, fmt.Errorf("--at: %w", err)
	}
	return t.UTC(), nil
}

func main() {
	Execute()
}
