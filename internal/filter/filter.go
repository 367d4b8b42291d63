// Package filter applies jq expressions to command output using gojq.
package filter

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/itchyny/gojq"
)

// NormalizeExpression fixes shell-escaped operators in jq expressions.
// Zsh escapes ! to \! even in single quotes, breaking operators like !=.
func NormalizeExpression(expr string) string {
	return strings.ReplaceAll(expr, `\!`, `!`)
}

// Apply applies a jq filter expression to the input data.
func Apply(data any, expression string) (any, error) {
	if expression == "" {
		return data, nil
	}

	expression = NormalizeExpression(expression)
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}

	results, err := runQuery(query, data)
	if err != nil {
		// Root-array queries against a hypermedia envelope usually mean
		// the user wanted the embedded collection, not the envelope.
		if items, ok := embeddedFallbackData(data, expression, err); ok {
			if fallbackResults, fallbackErr := runQuery(query, items); fallbackErr == nil {
				results = fallbackResults
				err = nil
			}
		}
	}
	if err != nil {
		return nil, err
	}

	return collapseResults(results), nil
}

// ApplyToJSON applies a filter to JSON bytes and returns filtered JSON
// bytes, pretty-printed.
func ApplyToJSON(jsonData []byte, expression string) ([]byte, error) {
	if expression == "" {
		return jsonData, nil
	}

	var data any
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	result, err := Apply(data, expression)
	if err != nil {
		return nil, err
	}

	return json.MarshalIndent(result, "", "  ")
}

// ApplyFromJSON applies a jq filter to JSON bytes and returns the result
// as a Go value for the caller to format.
func ApplyFromJSON(jsonData []byte, expression string) (any, error) {
	var data any
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return Apply(data, expression)
}

func runQuery(query *gojq.Query, data any) ([]any, error) {
	iter := query.Run(data)

	var results []any
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return nil, fmt.Errorf("filter error: %w", err)
		}
		results = append(results, v)
	}
	return results, nil
}

func collapseResults(results []any) any {
	if len(results) == 1 {
		return results[0]
	}
	return results
}

// embeddedFallbackData retries a root-array query against the embedded
// collection when the document is a hypermedia envelope with exactly one
// embedded rel holding an array.
func embeddedFallbackData(data any, expression string, runErr error) (any, bool) {
	if runErr == nil || !looksLikeRootArrayQuery(expression) {
		return nil, false
	}
	if !strings.Contains(runErr.Error(), "expected an object but got: array") &&
		!strings.Contains(runErr.Error(), "cannot iterate over: object") {
		return nil, false
	}

	m, ok := data.(map[string]any)
	if !ok {
		return nil, false
	}
	embedded, ok := m["_embedded"].(map[string]any)
	if !ok {
		return nil, false
	}

	rels := make([]string, 0, len(embedded))
	for rel := range embedded {
		rels = append(rels, rel)
	}
	if len(rels) != 1 {
		return nil, false
	}
	sort.Strings(rels)

	items, ok := embedded[rels[0]].([]any)
	if !ok {
		return nil, false
	}
	return items, true
}

func looksLikeRootArrayQuery(expression string) bool {
	expr := strings.TrimSpace(expression)
	return strings.HasPrefix(expr, ".[]") || strings.HasPrefix(expr, "[.[]") || strings.HasPrefix(expr, "(.[]")
}
