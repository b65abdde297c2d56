package llm_test

import (
	"encoding/json"
	"testing"

	"github.com/forkcast/forkcast/internal/llm"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "bare object",
			raw:  `{"a":1}`,
			want: `{"a":1}`,
		},
		{
			name: "fenced with language tag",
			raw:  "```json\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "fenced without language tag",
			raw:  "```\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "chatter around the object",
			raw:  "Sure! Here is the plan you asked for:\n{\"a\": 1}\nLet me know if you need anything else.",
			want: `{"a": 1}`,
		},
		{
			name: "nested braces survive outermost slice",
			raw:  `prefix {"outer": {"inner": [1, 2]}} suffix`,
			want: `{"outer": {"inner": [1, 2]}}`,
		},
		{
			name: "leading and trailing whitespace",
			raw:  "  \n {\"a\":1} \n ",
			want: `{"a":1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := llm.ExtractJSON(tt.raw)
			if err != nil {
				t.Fatalf("ExtractJSON() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ExtractJSON() = %q, want %q", got, tt.want)
			}
			if !json.Valid([]byte(got)) {
				t.Errorf("ExtractJSON() returned invalid JSON: %q", got)
			}
		})
	}
}

func TestExtractJSONNoObject(t *testing.T) {
	for _, raw := range []string{"", "no json here", "```json\n[]\n```", "} backwards {"} {
		if _, err := llm.ExtractJSON(raw); err == nil {
			t.Errorf("ExtractJSON(%q) expected error, got nil", raw)
		}
	}
}
