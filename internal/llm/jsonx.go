package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fencedJSONRe = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")
	bareJSONRe   = regexp.MustCompile(`\{[\s\S]*\}`)
)

// DecodeJSON unmarshals the first JSON object found in a model response.
// Small local models wrap JSON in prose or code fences often enough that
// decoding the raw text alone is not reliable.
func DecodeJSON(raw string, out interface{}) error {
	raw = strings.TrimSpace(raw)
	if err := json.Unmarshal([]byte(raw), out); err == nil {
		return nil
	}

	if match := fencedJSONRe.FindStringSubmatch(raw); match != nil {
		if err := json.Unmarshal([]byte(match[1]), out); err == nil {
			return nil
		}
	}

	if match := bareJSONRe.FindString(raw); match != "" {
		if err := json.Unmarshal([]byte(match), out); err == nil {
			return nil
		}
	}

	return ErrMalformed
}
