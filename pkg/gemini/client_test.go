package gemini

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{
			name:  "direct JSON",
			input: `{"trendiness_score": 0.8}`,
			want:  `{"trendiness_score": 0.8}`,
			ok:    true,
		},
		{
			name:  "json code fence",
			input: "Here you go:\n```json\n{\"trendiness_score\": 0.7}\n```",
			want:  `{"trendiness_score": 0.7}`,
			ok:    true,
		},
		{
			name:  "bare code fence",
			input: "```\n{\"events\": []}\n```",
			want:  `{"events": []}`,
			ok:    true,
		},
		{
			name:  "embedded object",
			input: `The assessment is {"trendiness_score": 0.4, "reasoning": "quiet"} overall.`,
			want:  `{"trendiness_score": 0.4, "reasoning": "quiet"}`,
			ok:    true,
		},
		{
			name:  "no JSON at all",
			input: "I cannot help with that.",
			ok:    false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := extractJSON(tc.input)
			if tc.ok != (err == nil) {
				t.Fatalf("extractJSON error = %v, want ok=%v", err, tc.ok)
			}
			if tc.ok && got != tc.want {
				t.Errorf("extractJSON = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	transient := []string{
		"rate limit exceeded",
		"quota exhausted for project",
		"context deadline exceeded",
		"503 service unavailable",
	}
	for _, msg := range transient {
		if !isTransient(errors.New(msg)) {
			t.Errorf("expected transient: %q", msg)
		}
	}
	for _, msg := range []string{"invalid API key", "400 bad request"} {
		if isTransient(errors.New(msg)) {
			t.Errorf("expected non-transient: %q", msg)
		}
	}
}

func TestSchemasHaveRequiredFields(t *testing.T) {
	if got := TrendinessSchema().Required; len(got) == 0 || got[0] != "trendiness_score" {
		t.Errorf("trendiness required = %v", got)
	}
	if got := EventsSchema().Required; len(got) != 1 || got[0] != "events" {
		t.Errorf("events required = %v", got)
	}
}

func TestResponseTypesRoundTrip(t *testing.T) {
	var tr TrendinessResponse
	if err := json.Unmarshal([]byte(`{"trendiness_score":0.9,"reasoning":"busy"}`), &tr); err != nil {
		t.Fatalf("unmarshal trendiness: %v", err)
	}
	if tr.TrendinessScore != 0.9 {
		t.Errorf("score = %v", tr.TrendinessScore)
	}

	var pe PageEvents
	raw := `{"events":[{"title":"Night Market","location":"Victoria Park","cost":0}]}`
	if err := json.Unmarshal([]byte(raw), &pe); err != nil {
		t.Fatalf("unmarshal events: %v", err)
	}
	if len(pe.Events) != 1 || pe.Events[0].Title != "Night Market" {
		t.Errorf("events = %+v", pe.Events)
	}
}
