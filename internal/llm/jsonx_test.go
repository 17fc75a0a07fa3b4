package llm

import (
	"errors"
	"testing"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Score    float64  `json:"score"`
		Evidence []string `json:"evidence"`
	}

	tests := []struct {
		name    string
		raw     string
		want    float64
		wantErr bool
	}{
		{
			name: "plain json",
			raw:  `{"score": 0.8, "evidence": ["a"]}`,
			want: 0.8,
		},
		{
			name: "json with surrounding whitespace",
			raw:  "\n  {\"score\": 0.4, \"evidence\": []}  \n",
			want: 0.4,
		},
		{
			name: "fenced json",
			raw:  "```json\n{\"score\": 0.7, \"evidence\": [\"b\"]}\n```",
			want: 0.7,
		},
		{
			name: "fenced without language tag",
			raw:  "```\n{\"score\": 0.55, \"evidence\": []}\n```",
			want: 0.55,
		},
		{
			name: "json embedded in prose",
			raw:  `Sure! Here is the analysis: {"score": 0.9, "evidence": ["c"]} Hope that helps.`,
			want: 0.9,
		},
		{
			name:    "no json at all",
			raw:     "The lead seems promising.",
			wantErr: true,
		},
		{
			name:    "empty input",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "broken json",
			raw:     `{"score": 0.9, "evidence": [`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out payload
			err := DecodeJSON(tt.raw, &out)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformed) {
					t.Fatalf("expected ErrMalformed, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.Score != tt.want {
				t.Fatalf("score = %v, want %v", out.Score, tt.want)
			}
		})
	}
}
