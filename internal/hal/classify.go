package hal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// classify turns a transport response into a parsed hypermedia document
// or a typed failure. Success bodies must carry the hypermedia media
// type; error bodies may also carry plain JSON. A nil document (missing
// content type, empty body, or JSON null) is a valid outcome and seeds
// an empty envelope.
func classify(resp *Response) (map[string]any, error) {
	if !resp.OK() {
		return nil, classifyFailure(resp)
	}
	ct := resp.ContentType()
	if ct == "" {
		return nil, nil
	}
	if !strings.HasPrefix(ct, MediaTypeHal) {
		return nil, &ContentTypeError{ContentType: ct, StatusCode: resp.Status}
	}
	return decodeBody(resp.Body)
}

// classifyFailure converts a non-success response into either a HalError
// (body parsed and carried a message field) or a TransportError. Parse
// problems on an already-failed response never surface; the failure
// status wins.
func classifyFailure(resp *Response) error {
	generic := &TransportError{StatusCode: resp.Status, StatusText: resp.StatusText}

	ct := resp.ContentType()
	if ct == "" {
		return generic
	}
	if !strings.HasPrefix(ct, MediaTypeHal) && !strings.HasPrefix(ct, MediaTypeJSON) {
		return generic
	}

	doc, err := decodeBody(resp.Body)
	if err != nil || doc == nil {
		return generic
	}
	msg, ok := doc["message"].(string)
	if !ok {
		return generic
	}
	return &HalError{
		StatusCode:  resp.Status,
		Message:     msg,
		FieldErrors: parseFieldErrors(doc["errors"]),
	}
}

// decodeBody parses the body as a JSON object. An empty body or a JSON
// null is a nil document, not an error.
func decodeBody(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("malformed response body: %w", err)
	}
	if doc == nil {
		return nil, nil
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("response body is not a JSON object")
	}
	return obj, nil
}

// parseFieldErrors extracts the per-field validation map from an error
// body. Servers send either {"field": "msg"} or {"field": ["msg", ...]};
// list values are joined so each field maps to one message.
func parseFieldErrors(raw any) map[string]string {
	obj, ok := raw.(map[string]any)
	if !ok || len(obj) == 0 {
		return nil
	}
	fields := make(map[string]string, len(obj))
	for field, v := range obj {
		switch msg := v.(type) {
		case string:
			fields[field] = msg
		case []any:
			var parts []string
			for _, m := range msg {
				if s, ok := m.(string); ok {
					parts = append(parts, s)
				}
			}
			if len(parts) > 0 {
				fields[field] = strings.Join(parts, "; ")
			}
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
