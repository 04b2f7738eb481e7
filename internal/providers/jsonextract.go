package providers

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSONObject is returned when none of the four extraction
// strategies can locate a JSON object in the text.
var ErrNoJSONObject = errors.New("no JSON object found in text")

// ExtractFirstJSONObject parses a JSON object out of free-form model
// output using four fallback strategies, in order:
//  1. Parse the trimmed text directly.
//  2. Extract the contents of a ```json fenced code block.
//  3. Extract the contents of any ``` fenced code block.
//  4. Scan for the first balanced {...} span, tracking string-literal
//     and escape state so braces inside quoted strings don't unbalance
//     the count.
func ExtractFirstJSONObject(text string) (map[string]any, error) {
	trimmed := strings.TrimSpace(text)

	if obj, ok := tryParseObject(trimmed); ok {
		return obj, nil
	}

	if body, ok := extractFence(trimmed, "```json"); ok {
		if obj, ok := tryParseObject(body); ok {
			return obj, nil
		}
	}

	if body, ok := extractFence(trimmed, "```"); ok {
		if obj, ok := tryParseObject(body); ok {
			return obj, nil
		}
	}

	if span, ok := findBalancedBraces(trimmed); ok {
		if obj, ok := tryParseObject(span); ok {
			return obj, nil
		}
	}

	return nil, ErrNoJSONObject
}

func tryParseObject(s string) (map[string]any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// extractFence returns the content between the first occurrence of
// marker and the next closing ``` fence.
func extractFence(text, marker string) (string, bool) {
	start := strings.Index(text, marker)
	if start == -1 {
		return "", false
	}
	rest := text[start+len(marker):]
	end := strings.Index(rest, "```")
	if end == -1 {
		return "", false
	}
	return rest[:end], true
}

// findBalancedBraces scans for the first top-level {...} span, aware of
// string literals and escapes so braces inside quoted JSON string
// values never unbalance the depth counter.
func findBalancedBraces(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	return "", false
}
