package tools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArguments(t *testing.T) {
	want := map[string]any{"date": "2025-03-14", "start_time": "14:00"}

	tests := []struct {
		name    string
		raw     string
		want    map[string]any
		wantErr bool
	}{
		{name: "object", raw: `{"date":"2025-03-14","start_time":"14:00"}`, want: want},
		{name: "encoded string", raw: `"{\"date\":\"2025-03-14\",\"start_time\":\"14:00\"}"`, want: want},
		{name: "surrounding whitespace", raw: "  \n{\"date\":\"2025-03-14\",\"start_time\":\"14:00\"} ", want: want},
		{name: "empty", raw: ``, want: map[string]any{}},
		{name: "null", raw: `null`, want: map[string]any{}},
		{name: "empty string", raw: `""`, want: map[string]any{}},
		{name: "empty object", raw: `{}`, want: map[string]any{}},
		{name: "malformed string", raw: `"{\"date\": "`, wantErr: true},
		{name: "malformed object", raw: `{"date":`, wantErr: true},
		{name: "array", raw: `[1,2]`, wantErr: true},
		{name: "number", raw: `42`, wantErr: true},
		{name: "string of string", raw: `"\"hello\""`, wantErr: true},
		{name: "plain text string", raw: `"tomorrow at two"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseArguments(json.RawMessage(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidArguments)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
