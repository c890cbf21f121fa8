package instrumentation

import "strings"

// ExtractUserDomain reduces an email address to its domain so attendee
// identities never become metric or log labels.
//
//	ExtractUserDomain("jane@example.com")  // "example.com"
//	ExtractUserDomain("invalid")           // "unknown"
//	ExtractUserDomain("")                  // "unknown"
func ExtractUserDomain(email string) string {
	if email == "" {
		return "unknown"
	}

	parts := strings.Split(email, "@")
	if len(parts) == 2 && parts[1] != "" {
		return strings.ToLower(parts[1])
	}

	return "unknown"
}

// Calendar operation names used in Google API metrics and spans.
const (
	OperationList   = "list"
	OperationInsert = "insert"
)

// knownTools bounds the tool label; anything the model invents is folded.
var knownTools = map[string]bool{
	"check_availability": true,
	"book_appointment":   true,
}

// ToolLabel returns name when it is a known tool and "unknown" otherwise.
// Tool names come from model output and webhook bodies, so they are untrusted.
func ToolLabel(name string) string {
	if knownTools[name] {
		return name
	}
	return "unknown"
}
