package extractor

import (
	"strings"
)

const fence = "```"

// ExtractJSON pulls the JSON object out of a model reply. It keeps only the
// body of a ```json fenced block when one exists, then falls back to slicing
// from the first '{' to the last '}' when the text does not start with one.
// The result is not guaranteed to be valid JSON.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)

	if strings.Contains(s, fence) {
		if body, ok := fencedJSONBody(s); ok {
			s = body
		}
	}

	if !strings.HasPrefix(s, "{") {
		start := strings.Index(s, "{")
		end := strings.LastIndex(s, "}")
		if start != -1 && end > start {
			s = s[start : end+1]
		}
	}
	return s
}

// fencedJSONBody returns the lines between the first ```json marker and the
// next fence. ok is false when no such lines exist.
func fencedJSONBody(s string) (string, bool) {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var lines []string
	inJSON := false
	for _, line := range strings.Split(s, "\n") {
		if !inJSON {
			if strings.Contains(strings.ToLower(line), fence+"json") {
				inJSON = true
			}
			continue
		}
		if strings.Contains(line, fence) {
			break
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return "", false
	}
	return strings.Join(lines, "\n"), true
}
