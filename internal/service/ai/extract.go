package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// codeBlockPattern matches markdown code blocks with an optional language tag.
var codeBlockPattern = regexp.MustCompile(`(?s)` + "```" + `(\w*)\s*\n(.+?)\n` + "```")

// ExtractJSON pulls a JSON document out of a model response that may wrap it
// in markdown. Fenced code blocks win over raw objects found in the body
// text.
func ExtractJSON(response string) (string, error) {
	if jsonStr, found := extractFromCodeBlock(response); found {
		return jsonStr, nil
	}
	if jsonStr, found := extractRawJSON(response); found {
		return jsonStr, nil
	}
	return "", fmt.Errorf("no valid JSON object found in response")
}

func extractFromCodeBlock(response string) (string, bool) {
	for _, match := range codeBlockPattern.FindAllStringSubmatch(response, -1) {
		if len(match) < 3 {
			continue
		}

		lang := strings.ToLower(match[1])
		content := strings.TrimSpace(match[2])

		// Skip blocks explicitly tagged as another language.
		if lang != "" && lang != "json" {
			continue
		}

		if (strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[")) && json.Valid([]byte(content)) {
			return content, true
		}
	}
	return "", false
}

func extractRawJSON(response string) (string, bool) {
	start := strings.Index(response, "{")
	endChar := byte('}')
	if arr := strings.Index(response, "["); arr >= 0 && (start < 0 || arr < start) {
		start = arr
		endChar = ']'
	}
	if start < 0 {
		return "", false
	}

	// Walk backwards from the end looking for the smallest valid suffix.
	for end := len(response) - 1; end > start; end-- {
		if response[end] != endChar {
			continue
		}
		candidate := response[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, true
		}
	}
	return "", false
}
