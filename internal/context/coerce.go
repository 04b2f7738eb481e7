package context

import "fmt"

// FromUntyped builds a CodebaseContext from an untyped JSON-decoded
// map (as produced by decoding a request body's codebase_context
// field), applying the spec's coercion rules: scalars are stringified,
// list fields accept either a single string or a list and stringify
// each item (dropping nils), and dict-valued list fields yield an
// empty list rather than erroring. A non-map input produces a nil
// result.
func FromUntyped(raw any) *CodebaseContext {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil
	}

	return &CodebaseContext{
		Language:      coerceScalar(m["language"]),
		Framework:     coerceScalar(m["framework"]),
		Description:   coerceScalar(m["description"]),
		TestFramework: coerceScalar(m["test_framework"]),
		Conventions:   coerceList(m["conventions"]),
		Patterns:      coerceList(m["patterns"]),
		CodeSnippets:  coerceList(m["code_snippets"]),
		Documentation: coerceList(m["documentation"]),
		TestPatterns:  coerceList(m["test_patterns"]),
	}
}

// coerceScalar stringifies an untyped value: nil stays empty, bool and
// numeric values render via fmt, strings pass through unchanged.
func coerceScalar(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// coerceList accepts a string (wrapped into a single-element list), a
// list (each item stringified, nils dropped), or anything else
// (including maps), which yields an empty list.
func coerceList(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return []string{val}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if item == nil {
				continue
			}
			out = append(out, coerceScalar(item))
		}
		return out
	default:
		return nil
	}
}
