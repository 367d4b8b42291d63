package outfmt

import (
	"context"
	"encoding/json"
	"io"

	"github.com/halnav/halnav-cli/internal/filter"
)

type queryKey struct{}

// WithQuery adds a jq query to the context.
func WithQuery(ctx context.Context, query string) context.Context {
	return context.WithValue(ctx, queryKey{}, query)
}

// GetQuery retrieves the jq query from context.
func GetQuery(ctx context.Context) string {
	if q, ok := ctx.Value(queryKey{}).(string); ok {
		return q
	}
	return ""
}

// WriteJSONFiltered writes JSON with optional jq filtering.
// Uses pretty-printed output by default; pass compact=true for single-line output.
func WriteJSONFiltered(w io.Writer, v any, query string, compact bool) error {
	if query == "" {
		return WriteJSONMaybeCompact(w, v, compact)
	}

	// Marshal to JSON, apply the filter, then re-marshal with the desired
	// formatting so non-JSON-native values round-trip cleanly.
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	result, err := filter.ApplyFromJSON(data, query)
	if err != nil {
		return err
	}

	return WriteJSONMaybeCompact(w, result, compact)
}

// ApplyQuery applies a jq query to structured data and returns the filtered value.
func ApplyQuery(v any, query string) (any, error) {
	if query == "" {
		return v, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return filter.ApplyFromJSON(data, query)
}
