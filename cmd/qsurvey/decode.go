package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/qsurvey/internal/datecode"
	"github.com/verte-zerg/qsurvey/internal/filter"
	"github.com/verte-zerg/qsurvey/internal/render"
)

var decodeToday string

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <code>...",
		Short: "Decode YYYYDDD date codes",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runDecodeCmd,
	}
	cmd.Flags().StringVar(&decodeToday, "today", "", "reference day for freshness (YYYY-MM-DD, default: today)")
	return cmd
}

func runDecodeCmd(cmd *cobra.Command, args []string) error {
	today := time.Now()
	parsed, err := filter.ParseDate(decodeToday)
	if err != nil {
		return fmt.Errorf("invalid --today value: %w", err)
	}
	if parsed != nil {
		today = *parsed
	}
	rows := make([][]string, len(args))
	for i, code := range args {
		rows[i] = []string{code, datecode.DecodeDayOfYear(code).String(), datecode.Freshness(code, today)}
	}
	return render.Table(cmd.OutOrStdout(), []string{"Code", "Date", "Freshness"}, rows, 0)
}
