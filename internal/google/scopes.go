package google

// CalendarScopes are the OAuth scopes needed to list and insert events.
var CalendarScopes = []string{
	// Read events for availability checks
	"https://www.googleapis.com/auth/calendar.readonly",

	// Create events when booking
	"https://www.googleapis.com/auth/calendar.events",
}
