package cmd

import (
	"github.com/spf13/cobra"
)

func newAvailabilityCmd() *cobra.Command {
	var (
		date   string
		start  string
		end    string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Check whether a slot is free",
		Long: `Check a slot on the business calendar the same way the voice assistant does.

Times accept the spoken forms the assistant sends, e.g. "2pm", "14:00" or
"2:30 PM". The date defaults to today in the configured time zone.`,
		Example: `  voicecal availability --date 2025-03-14 --start 2pm --end 3pm`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newOperatorService(cmd.Context())
			if err != nil {
				return err
			}
			result := svc.CheckAvailability(cmd.Context(), defaultDate(svc, date), start, end)
			return writeResult(cmd.OutOrStdout(), asJSON, result.Message, result)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Date as YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&start, "start", "", "Start time, e.g. 14:00 or 2pm")
	cmd.Flags().StringVar(&end, "end", "", "End time, e.g. 15:00 or 3pm")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}
