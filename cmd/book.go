package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/teemow/voicecal/internal/scheduling"
)

func newBookCmd() *cobra.Command {
	var (
		req    scheduling.BookingRequest
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book a slot on the business calendar",
		Long: `Book an appointment on the business calendar the same way the voice
assistant does. The operator email, when configured, is invited as well.`,
		Example: `  voicecal book --summary "Haircut for Sam" --date 2025-03-14 --start 2pm --end 3pm`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newOperatorService(cmd.Context())
			if err != nil {
				return err
			}
			req.Date = defaultDate(svc, req.Date)
			result := svc.BookAppointment(cmd.Context(), req)
			if err := writeResult(cmd.OutOrStdout(), asJSON, result.Message, result); err != nil {
				return err
			}
			if !result.Success {
				return errors.New("booking failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Summary, "summary", "", "Event title")
	cmd.Flags().StringVar(&req.Date, "date", "", "Date as YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&req.StartTime, "start", "", "Start time, e.g. 14:00 or 2pm")
	cmd.Flags().StringVar(&req.EndTime, "end", "", "End time, e.g. 15:00 or 3pm")
	cmd.Flags().StringVar(&req.Description, "description", "", "Event description")
	cmd.Flags().StringVar(&req.AttendeeEmail, "attendee", "", "Email address of the caller to invite")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")
	_ = cmd.MarkFlagRequired("summary")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}
