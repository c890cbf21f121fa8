// Package calendar wraps the Google Calendar API for the scheduling engines.
//
// Only the two calls the assistant needs are exposed: listing the events that
// touch a time range and inserting a booked appointment. Both accept a
// context, record Google API metrics and open a client span.
//
//	strategy, _ := google.NewCredentialStrategy(google.StrategyConfig{Mode: google.AuthModeOAuth})
//	client, err := calendar.NewClient(ctx, strategy)
//	if err != nil {
//	    return err
//	}
//	events, err := client.ListEvents(ctx, "primary", from, to)
package calendar
