package tools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/voicecal/internal/llm"
)

// Tool names.
const (
	CheckAvailability = "check_availability"
	BookAppointment   = "book_appointment"
)

// Argument names.
const (
	ArgDate          = "date"
	ArgStartTime     = "start_time"
	ArgEndTime       = "end_time"
	ArgSummary       = "summary"
	ArgDescription   = "description"
	ArgAttendeeEmail = "attendee_email"
)

const (
	dateDescription  = "Calendar date in YYYY-MM-DD format"
	timeDescription  = "Wall-clock time in the business time zone, HH:MM (24-hour) or a 12-hour form like '2 PM'"
	datePattern      = `^\d{4}-\d{2}-\d{2}$`
	checkDescription = "Check whether a time slot on a given date is free in the business calendar. " +
		"Call this before booking."
	bookDescription = "Book an appointment in the business calendar. " +
		"Only call this after check_availability reported the slot as available and the caller confirmed."
)

// Definitions returns the tool definitions in a stable order.
func Definitions() []mcp.Tool {
	return []mcp.Tool{
		mcp.NewTool(CheckAvailability,
			mcp.WithDescription(checkDescription),
			mcp.WithString(ArgDate,
				mcp.Required(),
				mcp.Description(dateDescription),
				mcp.Pattern(datePattern),
			),
			mcp.WithString(ArgStartTime,
				mcp.Required(),
				mcp.Description("Start of the slot. "+timeDescription),
			),
			mcp.WithString(ArgEndTime,
				mcp.Required(),
				mcp.Description("End of the slot. "+timeDescription),
			),
		),
		mcp.NewTool(BookAppointment,
			mcp.WithDescription(bookDescription),
			mcp.WithString(ArgSummary,
				mcp.Required(),
				mcp.Description("Short title of the appointment, e.g. 'Haircut'"),
			),
			mcp.WithString(ArgDate,
				mcp.Required(),
				mcp.Description(dateDescription),
				mcp.Pattern(datePattern),
			),
			mcp.WithString(ArgStartTime,
				mcp.Required(),
				mcp.Description("Start of the appointment. "+timeDescription),
			),
			mcp.WithString(ArgEndTime,
				mcp.Required(),
				mcp.Description("End of the appointment. "+timeDescription),
			),
			mcp.WithString(ArgDescription,
				mcp.Description("Optional notes for the appointment"),
			),
			mcp.WithString(ArgAttendeeEmail,
				mcp.Description("Optional email address of the caller; they receive an invitation"),
			),
		),
	}
}

// LLMTools returns Definitions converted for the completion API.
func LLMTools() ([]llm.Tool, error) {
	defs := Definitions()
	out := make([]llm.Tool, 0, len(defs))
	for _, def := range defs {
		schema, err := json.Marshal(def.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to encode schema for %s: %w", def.Name, err)
		}
		out = append(out, llm.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: schema,
		})
	}
	return out, nil
}

// MustLLMTools is like LLMTools but panics on error. The definitions are
// static, so an error is a programming mistake.
func MustLLMTools() []llm.Tool {
	t, err := LLMTools()
	if err != nil {
		panic(err)
	}
	return t
}

// requiredArgs returns the required argument names of a tool, or nil and
// false for an unknown tool.
func requiredArgs(name string) ([]string, bool) {
	for _, def := range Definitions() {
		if def.Name == name {
			return def.InputSchema.Required, true
		}
	}
	return nil, false
}
