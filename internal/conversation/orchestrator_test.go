package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/voicecal/internal/calendar"
	"github.com/teemow/voicecal/internal/llm"
	"github.com/teemow/voicecal/internal/scheduling"
	"github.com/teemow/voicecal/internal/tools"
	"github.com/teemow/voicecal/internal/wallclock"
)

// scriptedLLM answers each Complete call with the next function in script.
type scriptedLLM struct {
	mu       sync.Mutex
	script   []func(llm.Request) (*llm.Completion, error)
	requests []llm.Request
}

func (s *scriptedLLM) Complete(_ context.Context, req llm.Request) (*llm.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req)
	n := len(s.requests) - 1
	if n >= len(s.script) {
		return nil, errors.New("unexpected model call")
	}
	return s.script[n](req)
}

func text(t string) func(llm.Request) (*llm.Completion, error) {
	return func(llm.Request) (*llm.Completion, error) {
		return &llm.Completion{StopReason: llm.StopEndTurn, Content: []llm.Block{llm.TextBlock(t)}}, nil
	}
}

func toolUse(id, name, input string) func(llm.Request) (*llm.Completion, error) {
	return func(llm.Request) (*llm.Completion, error) {
		return &llm.Completion{
			StopReason: llm.StopToolUse,
			Content: []llm.Block{
				llm.TextBlock("Let me check."),
				{Type: llm.BlockToolUse, ID: id, Name: name, Input: json.RawMessage(input)},
			},
		}, nil
	}
}

func fail(err error) func(llm.Request) (*llm.Completion, error) {
	return func(llm.Request) (*llm.Completion, error) { return nil, err }
}

// answerFromToolResult replies the way a model would after reading the
// availability result.
func answerFromToolResult(req llm.Request) (*llm.Completion, error) {
	last := req.Messages[len(req.Messages)-1]
	if len(last.Content) == 0 || last.Content[0].Type != llm.BlockToolResult {
		return nil, errors.New("expected tool results in the last turn")
	}
	reply := "Sorry, that time is taken."
	if strings.Contains(last.Content[0].Content, "is available") {
		reply = "Good news, 2 PM tomorrow is open. Shall I book it?"
	}
	return &llm.Completion{StopReason: llm.StopEndTurn, Content: []llm.Block{llm.TextBlock(reply)}}, nil
}

// memoryStore keeps events in memory.
type memoryStore struct {
	mu       sync.Mutex
	events   []calendar.EventSummary
	inserted []calendar.EventInput
}

func (m *memoryStore) ListEvents(_ context.Context, _ string, timeMin, timeMax time.Time) ([]calendar.EventSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []calendar.EventSummary
	for _, e := range m.events {
		if e.End.After(timeMin) && e.Start.Before(timeMax) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryStore) InsertEvent(_ context.Context, _ string, in calendar.EventInput) (*calendar.EventSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserted = append(m.inserted, in)
	e := calendar.EventSummary{ID: "evt", Summary: in.Summary, Start: in.Start, End: in.End}
	m.events = append(m.events, e)
	return &e, nil
}

var (
	berlin = wallclock.MustLoadZone("Europe/Berlin")
	// Thursday 2025-03-13, 10:00 in Berlin
	fixedNow = time.Date(2025, 3, 13, 9, 0, 0, 0, time.UTC)
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

type harness struct {
	llm   *scriptedLLM
	store *memoryStore
	orch  *Orchestrator
}

func newHarness(t *testing.T, script ...func(llm.Request) (*llm.Completion, error)) *harness {
	t.Helper()
	h := &harness{llm: &scriptedLLM{script: script}, store: &memoryStore{}}
	svc := scheduling.NewService(h.store, scheduling.Config{Zone: berlin})
	d := tools.NewDispatcher(svc, tools.WithLogger(quietLogger()))
	h.orch = NewOrchestrator(h.llm, d, Config{Zone: berlin, Model: "test-model"},
		WithLogger(quietLogger()),
		WithClock(func() time.Time { return fixedNow }),
	)
	return h
}

func (h *harness) busy(date, start, end string) {
	s, e, err := berlin.Window(date, start, end)
	if err != nil {
		panic(err)
	}
	h.store.events = append(h.store.events, calendar.EventSummary{ID: "busy", Start: s, End: e, Status: "confirmed"})
}

const haircutRequest = `{"messages":[
	{"role":"system","content":"You are the receptionist at Snip Salon."},
	{"role":"assistant","content":"Snip Salon, how can I help?"},
	{"role":"user","content":"Can I get a haircut tomorrow at 2 PM?"}
]}`

const haircutCheck = `{"date":"2025-03-14","start_time":"2 PM","end_time":"15:00"}`

func TestHandle_HaircutFreeSlot(t *testing.T) {
	h := newHarness(t,
		toolUse("toolu_1", tools.CheckAvailability, haircutCheck),
		answerFromToolResult,
	)

	out, err := h.orch.Handle(context.Background(), []byte(haircutRequest))
	require.NoError(t, err)

	reply, ok := out.(*ChatCompletion)
	require.True(t, ok)
	assert.Contains(t, reply.Content(), "open")
	assert.Empty(t, h.store.inserted, "booking must not be invoked")

	require.Len(t, h.llm.requests, 2)
	second := h.llm.requests[1]
	require.Len(t, second.Messages, 4)
	assert.Equal(t, llm.RoleAssistant, second.Messages[2].Role)
	assert.Equal(t, "toolu_1", second.Messages[2].Content[1].ID)
	assert.Equal(t, llm.RoleUser, second.Messages[3].Role)
	require.Len(t, second.Messages[3].Content, 1)
	assert.Equal(t, "toolu_1", second.Messages[3].Content[0].ToolUseID)
	assert.False(t, second.Messages[3].Content[0].IsError)
	assert.Equal(t, h.llm.requests[0].Tools, second.Tools)
}

func TestHandle_HaircutConflict(t *testing.T) {
	h := newHarness(t,
		toolUse("toolu_1", tools.CheckAvailability, haircutCheck),
		answerFromToolResult,
	)
	h.busy("2025-03-14", "13:30", "14:30")

	out, err := h.orch.Handle(context.Background(), []byte(haircutRequest))
	require.NoError(t, err)

	reply := out.(*ChatCompletion)
	assert.Equal(t, "Sorry, that time is taken.", reply.Content())
	assert.Contains(t, h.llm.requests[1].Messages[3].Content[0].Content, "is not available")
	assert.Empty(t, h.store.inserted)
}

func TestHandle_DirectReply(t *testing.T) {
	h := newHarness(t, text("We open at nine."))

	out, err := h.orch.Handle(context.Background(), []byte(`[{"role":"user","content":"When do you open?"}]`))
	require.NoError(t, err)

	reply := out.(*ChatCompletion)
	assert.Equal(t, "We open at nine.", reply.Content())
	assert.Equal(t, "test-model", reply.Model)
	assert.Equal(t, "chat.completion", reply.Object)
	assert.True(t, strings.HasPrefix(reply.ID, "chatcmpl-"))
	assert.Equal(t, fixedNow.Unix(), reply.Created)
	assert.Equal(t, "assistant", reply.Choices[0].Message.Role)
	assert.Len(t, h.llm.requests, 1)
}

func TestHandle_SystemPrompt(t *testing.T) {
	t.Run("request system turn", func(t *testing.T) {
		h := newHarness(t, text("ok"))
		_, err := h.orch.Handle(context.Background(), []byte(haircutRequest))
		require.NoError(t, err)

		system := h.llm.requests[0].System
		assert.True(t, strings.HasPrefix(system, "You are the receptionist at Snip Salon."))
		assert.Contains(t, system, "Today is Thursday, 2025-03-13.")
		assert.Contains(t, system, "Europe/Berlin")
		for _, m := range h.llm.requests[0].Messages {
			assert.NotContains(t, m.Content[0].Text, "Snip Salon.")
		}
	})

	t.Run("default persona", func(t *testing.T) {
		h := newHarness(t, text("ok"))
		_, err := h.orch.Handle(context.Background(), []byte(`[{"role":"user","content":"hi"}]`))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(h.llm.requests[0].System, DefaultPersona))
	})
}

func TestHandle_ToolsOffered(t *testing.T) {
	h := newHarness(t, text("ok"))
	_, err := h.orch.Handle(context.Background(), []byte(`[{"role":"user","content":"hi"}]`))
	require.NoError(t, err)

	offered := h.llm.requests[0].Tools
	require.Len(t, offered, 2)
	assert.Equal(t, tools.CheckAvailability, offered[0].Name)
	assert.Equal(t, tools.BookAppointment, offered[1].Name)
}

func TestHandle_Fallbacks(t *testing.T) {
	t.Run("empty direct reply", func(t *testing.T) {
		h := newHarness(t, text("  "))
		out, err := h.orch.Handle(context.Background(), []byte(`[{"role":"user","content":"hi"}]`))
		require.NoError(t, err)
		assert.Equal(t, DefaultFallbackReply, out.(*ChatCompletion).Content())
	})

	t.Run("no text after tools", func(t *testing.T) {
		h := newHarness(t,
			toolUse("toolu_1", tools.CheckAvailability, haircutCheck),
			func(llm.Request) (*llm.Completion, error) {
				return &llm.Completion{StopReason: llm.StopEndTurn}, nil
			},
		)
		out, err := h.orch.Handle(context.Background(), []byte(haircutRequest))
		require.NoError(t, err)
		assert.Equal(t, DefaultToolFallbackReply, out.(*ChatCompletion).Content())
	})
}

func TestHandle_MultipleToolUses(t *testing.T) {
	h := newHarness(t,
		func(llm.Request) (*llm.Completion, error) {
			return &llm.Completion{
				StopReason: llm.StopToolUse,
				Content: []llm.Block{
					{Type: llm.BlockToolUse, ID: "a", Name: tools.CheckAvailability, Input: json.RawMessage(haircutCheck)},
					{Type: llm.BlockToolUse, ID: "b", Name: "cancel_appointment", Input: json.RawMessage(`{}`)},
				},
			}, nil
		},
		text("Done."),
	)

	out, err := h.orch.Handle(context.Background(), []byte(haircutRequest))
	require.NoError(t, err)
	assert.Equal(t, "Done.", out.(*ChatCompletion).Content())

	results := h.llm.requests[1].Messages[3].Content
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ToolUseID)
	assert.False(t, results[0].IsError)
	assert.Equal(t, "b", results[1].ToolUseID)
	assert.True(t, results[1].IsError)
}

func TestHandle_EmptyTextNotResent(t *testing.T) {
	h := newHarness(t,
		func(llm.Request) (*llm.Completion, error) {
			return &llm.Completion{
				StopReason: llm.StopToolUse,
				Content: []llm.Block{
					llm.TextBlock(""),
					{Type: llm.BlockToolUse, ID: "tu1", Name: tools.CheckAvailability, Input: json.RawMessage(haircutCheck)},
				},
			}, nil
		},
		answerFromToolResult,
	)

	_, err := h.orch.Handle(context.Background(), []byte(haircutRequest))
	require.NoError(t, err)

	require.Len(t, h.llm.requests, 2)
	assistant := h.llm.requests[1].Messages[2]
	assert.Equal(t, llm.RoleAssistant, assistant.Role)
	require.Len(t, assistant.Content, 1)
	assert.Equal(t, llm.BlockToolUse, assistant.Content[0].Type)
	assert.Equal(t, "tu1", assistant.Content[0].ID)
}

func TestHandle_TrailingAssistantTurnJoined(t *testing.T) {
	h := newHarness(t,
		toolUse("toolu_1", tools.CheckAvailability, haircutCheck),
		answerFromToolResult,
	)

	body := `[
		{"role":"user","content":"Can I get a haircut tomorrow at 2 PM?"},
		{"role":"assistant","content":"One moment."}
	]`
	_, err := h.orch.Handle(context.Background(), []byte(body))
	require.NoError(t, err)

	require.Len(t, h.llm.requests, 2)
	second := h.llm.requests[1].Messages
	require.Len(t, second, 3)
	for i := 1; i < len(second); i++ {
		assert.NotEqual(t, second[i-1].Role, second[i].Role, "roles must alternate at %d", i)
	}

	assistant := second[1]
	assert.Equal(t, llm.RoleAssistant, assistant.Role)
	require.Len(t, assistant.Content, 3)
	assert.Equal(t, "One moment.", assistant.Content[0].Text)
	assert.Equal(t, "Let me check.", assistant.Content[1].Text)
	assert.Equal(t, "toolu_1", assistant.Content[2].ID)
	assert.Equal(t, llm.BlockToolResult, second[2].Content[0].Type)

	// the first request is left as it was sent
	require.Len(t, h.llm.requests[0].Messages, 2)
	assert.Len(t, h.llm.requests[0].Messages[1].Content, 1)
}

func TestHandle_BookingThroughModel(t *testing.T) {
	h := newHarness(t,
		toolUse("toolu_9", tools.BookAppointment,
			`{"summary":"Haircut","date":"2025-03-14","start_time":"14:00","end_time":"15:00","attendee_email":"sam@example.com"}`),
		text("You're booked."),
	)

	out, err := h.orch.Handle(context.Background(), []byte(`[{"role":"user","content":"Yes, book it. My email is sam@example.com"}]`))
	require.NoError(t, err)
	assert.Equal(t, "You're booked.", out.(*ChatCompletion).Content())

	require.Len(t, h.store.inserted, 1)
	assert.Equal(t, "Haircut", h.store.inserted[0].Summary)
	assert.Equal(t, "Europe/Berlin", h.store.inserted[0].TimeZone)
}

func TestHandle_ModelFailure(t *testing.T) {
	apiErr := &llm.APIError{StatusCode: 529, Type: "overloaded_error", Message: "Overloaded"}

	t.Run("first call", func(t *testing.T) {
		h := newHarness(t, fail(apiErr))
		_, err := h.orch.Handle(context.Background(), []byte(`[{"role":"user","content":"hi"}]`))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrModelFailure)
		assert.Contains(t, err.Error(), "Overloaded")
	})

	t.Run("second call", func(t *testing.T) {
		h := newHarness(t, toolUse("toolu_1", tools.CheckAvailability, haircutCheck), fail(apiErr))
		_, err := h.orch.Handle(context.Background(), []byte(haircutRequest))
		assert.ErrorIs(t, err, ErrModelFailure)
		assert.Len(t, h.llm.requests, 2)
	})
}

func TestHandle_EmptyConversationMakesNoCalls(t *testing.T) {
	h := newHarness(t)
	_, err := h.orch.Handle(context.Background(), []byte(`{"messages":[{"role":"system","content":"x"}]}`))
	assert.ErrorIs(t, err, ErrEmptyConversation)
	assert.Empty(t, h.llm.requests)
}

func TestHandle_ToolCallBatch(t *testing.T) {
	h := newHarness(t)
	h.busy("2025-03-14", "13:30", "14:30")

	body := `{"message":{"type":"tool-calls","toolCallList":[
		{"id":"c1","function":{"name":"check_availability","arguments":"{\"date\":\"2025-03-14\",\"start_time\":\"2 PM\",\"end_time\":\"3 PM\"}"}},
		{"id":"c2","function":{"name":"check_availability","arguments":"{broken"}}
	]}}`

	out, err := h.orch.Handle(context.Background(), []byte(body))
	require.NoError(t, err)

	results := out.(*ToolResults)
	require.Len(t, results.Results, 2)
	assert.Equal(t, "c1", results.Results[0].ToolCallID)
	assert.Contains(t, results.Results[0].Result, "is not available")
	assert.Equal(t, "c2", results.Results[1].ToolCallID)
	assert.Contains(t, results.Results[1].Result, "Error:")
	assert.Empty(t, h.llm.requests)

	encoded, err := json.Marshal(results)
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), "IsError")
}

func TestHandle_EmptyToolCallBatchEncodesArray(t *testing.T) {
	h := newHarness(t)
	out, err := h.orch.Handle(context.Background(), []byte(`{"message":{"type":"tool-calls","toolCallList":[]}}`))
	require.NoError(t, err)

	encoded, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"results":[]}`, string(encoded))
}

func TestHandle_Ping(t *testing.T) {
	h := newHarness(t)
	out, err := h.orch.Handle(context.Background(), []byte(`{"message":{"type":"status-update","status":"ended"}}`))
	require.NoError(t, err)

	encoded, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(encoded))
	assert.Empty(t, h.llm.requests)
}

func TestMessages_MergesConsecutiveRoles(t *testing.T) {
	got := messages([]Turn{
		{Role: llm.RoleUser, Content: "a"},
		{Role: llm.RoleUser, Content: "b"},
		{Role: llm.RoleAssistant, Content: "c"},
		{Role: llm.RoleUser, Content: "d"},
	})
	require.Len(t, got, 3)
	assert.Equal(t, "a\nb", got[0].Content[0].Text)
	assert.Equal(t, "c", got[1].Content[0].Text)
	assert.Equal(t, llm.RoleUser, got[2].Role)
}

func TestNewOrchestrator_Defaults(t *testing.T) {
	o := NewOrchestrator(&scriptedLLM{}, tools.NewDispatcher(scheduling.NewService(&memoryStore{}, scheduling.Config{})), Config{})
	cfg := o.Config()
	assert.Equal(t, DefaultPersona, cfg.Persona)
	assert.Equal(t, DefaultModelName, cfg.Model)
	assert.Equal(t, "UTC", cfg.Zone.Name)
}
