// Package json provides JSON extraction utilities for parsing LLM responses.
//
// The language capability is asked for a JSON object but often wraps it in
// markdown fences or commentary. This package extracts the object from such
// responses before unmarshaling.
package json

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSON finds and returns the JSON portion of a response string.
// It handles common LLM response patterns:
// 1. Pure JSON response - returns the full response
// 2. JSON wrapped in markdown code blocks (```json ... ```)
// 3. JSON object embedded in text - finds first '{' and last '}'
//
// Limitations:
// - Only handles JSON objects, not arrays
// - Uses simple brace matching, not full JSON parsing
func extractJSON(response string) (string, error) {
	response = stripMarkdownCodeBlocks(response)

	var test interface{}
	if err := json.Unmarshal([]byte(response), &test); err == nil {
		return response, nil
	}

	start := strings.Index(response, "{")
	if start != -1 {
		end := strings.LastIndex(response, "}")
		if end != -1 && end > start {
			jsonStr := response[start : end+1]
			var test interface{}
			if err := json.Unmarshal([]byte(jsonStr), &test); err == nil {
				return jsonStr, nil
			}
		}
	}

	preview := response
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	return "", fmt.Errorf("failed to extract valid JSON from response: %q", preview)
}

// stripMarkdownCodeBlocks removes markdown code block markers from a response.
// Handles patterns like ```json\n...\n``` or ```\n...\n```
func stripMarkdownCodeBlocks(response string) string {
	trimmed := strings.TrimSpace(response)

	if strings.HasPrefix(trimmed, "```json") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimSpace(trimmed)
	} else if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	if strings.HasSuffix(trimmed, "```") {
		trimmed = strings.TrimSuffix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	return trimmed
}

// ExtractJSONFromResponse extracts and parses JSON from an LLM response.
// Returns the parsed value or an error if extraction fails.
func ExtractJSONFromResponse[T any](response string) (T, error) {
	var result T
	jsonStr, err := extractJSON(response)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return result, nil
}

// ExtractJSON extracts the JSON portion from a response string.
// Returns the raw JSON string suitable for further processing.
func ExtractJSON(response string) (string, error) {
	return extractJSON(response)
}
