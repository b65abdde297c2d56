package llm

import (
	"fmt"
	"regexp"
	"strings"
)

// fenceRe strips a markdown code fence, with or without a language tag.
var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ExtractJSON recovers the JSON object from a raw completion. Models
// wrap JSON in markdown fences or prepend chatter even in json mode;
// parsing is forgiving: strip fences, then slice the outermost {…}.
// Validation failures are the caller's signal to fall back to heuristics,
// never to attempt structural repair.
func ExtractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(s); len(m) > 1 {
		s = strings.TrimSpace(m[1])
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object in completion")
	}
	return s[start : end+1], nil
}
