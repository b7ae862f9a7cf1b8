// Package query projects decoded response bodies with JMESPath expressions.
package query

import (
	"encoding/json"
	"fmt"

	"github.com/jmespath/go-jmespath"
)

// Apply evaluates expression against a body. decoded reports whether body is
// a decoded JSON document; a raw payload cannot be queried. json.Number
// values are evaluated as float64, since JMESPath compares numbers as such.
func Apply(body any, decoded bool, expression string) (any, error) {
	if expression == "" {
		return body, nil
	}
	if !decoded {
		return nil, fmt.Errorf("body is not a JSON document")
	}

	jp, err := jmespath.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid JMESPath expression '%s': %w", expression, err)
	}

	result, err := jp.Search(numbersToFloat(body))
	if err != nil {
		return nil, fmt.Errorf("JMESPath search failed: %w", err)
	}
	return result, nil
}

func numbersToFloat(v any) any {
	switch t := v.(type) {
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = numbersToFloat(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = numbersToFloat(val)
		}
		return out
	default:
		return v
	}
}

// Render formats v for terminal output. Strings print verbatim, everything
// else as indented JSON; a nil result prints as null.
func Render(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "null", nil
	case string:
		return t, nil
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(out), nil
}

// IsValid checks if an expression is valid JMESPath syntax.
func IsValid(expression string) bool {
	_, err := jmespath.Compile(expression)
	return err == nil
}
