package hal

import (
	"errors"
	"net/http"
	"testing"
)

func testResponse(status int, contentType, body string) *Response {
	header := http.Header{}
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	return &Response{
		Status:     status,
		StatusText: http.StatusText(status),
		Header:     header,
		Body:       []byte(body),
	}
}

func TestClassify_Success(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantNilDoc  bool
		wantField   string
	}{
		{
			name:        "hal document",
			contentType: MediaTypeHal,
			body:        `{"name": "widget"}`,
			wantField:   "name",
		},
		{
			name:        "hal with charset parameter",
			contentType: "application/hal+json; charset=utf-8",
			body:        `{"name": "widget"}`,
			wantField:   "name",
		},
		{
			name:       "missing content type synthesizes empty envelope",
			body:       `{"ignored": true}`,
			wantNilDoc: true,
		},
		{
			name:        "empty body is a null document",
			contentType: MediaTypeHal,
			body:        "",
			wantNilDoc:  true,
		},
		{
			name:        "whitespace body is a null document",
			contentType: MediaTypeHal,
			body:        "  \n",
			wantNilDoc:  true,
		},
		{
			name:        "json null is a null document",
			contentType: MediaTypeHal,
			body:        "null",
			wantNilDoc:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := classify(testResponse(200, tt.contentType, tt.body))
			if err != nil {
				t.Fatalf("classify() error: %v", err)
			}
			if tt.wantNilDoc {
				if doc != nil {
					t.Fatalf("classify() doc = %v, want nil", doc)
				}
				return
			}
			if _, ok := doc[tt.wantField]; !ok {
				t.Errorf("classify() doc missing field %q: %v", tt.wantField, doc)
			}
		})
	}
}

func TestClassify_RejectsUnsupportedContentType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"text plain with valid json body", "text/plain", `{"valid": "json"}`},
		{"generic json on success", MediaTypeJSON, `{"name": "widget"}`},
		{"xml", "application/xml", "<doc/>"},
		{"case mismatch", "Application/HAL+JSON", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := classify(testResponse(200, tt.contentType, tt.body))
			var ctErr *ContentTypeError
			if !errors.As(err, &ctErr) {
				t.Fatalf("classify() error = %v, want *ContentTypeError", err)
			}
			if ctErr.ContentType != tt.contentType {
				t.Errorf("ContentType = %q, want %q", ctErr.ContentType, tt.contentType)
			}
			if ctErr.StatusCode != 200 {
				t.Errorf("StatusCode = %d, want 200", ctErr.StatusCode)
			}
		})
	}
}

func TestClassify_SuccessMalformedBody(t *testing.T) {
	if _, err := classify(testResponse(200, MediaTypeHal, "{not json")); err == nil {
		t.Fatal("classify() expected error for malformed body")
	}
	if _, err := classify(testResponse(200, MediaTypeHal, `[1, 2]`)); err == nil {
		t.Fatal("classify() expected error for non-object body")
	}
}

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		wantHal     bool
		wantMessage string
	}{
		{
			name:        "structured error with hal media type",
			status:      422,
			contentType: MediaTypeHal,
			body:        `{"message": "bad", "errors": {"name": "required"}}`,
			wantHal:     true,
			wantMessage: "bad",
		},
		{
			name:        "structured error with generic json accepted on failure",
			status:      400,
			contentType: MediaTypeJSON,
			body:        `{"message": "invalid"}`,
			wantHal:     true,
			wantMessage: "invalid",
		},
		{
			name:        "json body without message is generic",
			status:      400,
			contentType: MediaTypeJSON,
			body:        `{"error": "something"}`,
		},
		{
			name:        "unsupported content type on failure stays generic",
			status:      500,
			contentType: "text/html",
			body:        "<html>oops</html>",
		},
		{
			name:        "unparseable body stays generic",
			status:      502,
			contentType: MediaTypeJSON,
			body:        "upstream exploded",
		},
		{
			name:   "no content type stays generic",
			status: 503,
			body:   "",
		},
		{
			name:        "non-string message stays generic",
			status:      400,
			contentType: MediaTypeJSON,
			body:        `{"message": 42}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := classify(testResponse(tt.status, tt.contentType, tt.body))
			if err == nil {
				t.Fatal("classify() expected error for failed response")
			}
			if tt.wantHal {
				var halErr *HalError
				if !errors.As(err, &halErr) {
					t.Fatalf("classify() error = %v, want *HalError", err)
				}
				if halErr.Message != tt.wantMessage {
					t.Errorf("Message = %q, want %q", halErr.Message, tt.wantMessage)
				}
				if halErr.StatusCode != tt.status {
					t.Errorf("StatusCode = %d, want %d", halErr.StatusCode, tt.status)
				}
				return
			}
			var transportErr *TransportError
			if !errors.As(err, &transportErr) {
				t.Fatalf("classify() error = %v, want *TransportError", err)
			}
			if transportErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", transportErr.StatusCode, tt.status)
			}
			if transportErr.StatusText != http.StatusText(tt.status) {
				t.Errorf("StatusText = %q, want %q", transportErr.StatusText, http.StatusText(tt.status))
			}
		})
	}
}

func TestParseFieldErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want map[string]string
	}{
		{"nil", nil, nil},
		{"not a map", "oops", nil},
		{"empty map", map[string]any{}, nil},
		{
			name: "string values",
			raw:  map[string]any{"email": "is invalid"},
			want: map[string]string{"email": "is invalid"},
		},
		{
			name: "list values joined",
			raw:  map[string]any{"email": []any{"is invalid", "can't be blank"}},
			want: map[string]string{"email": "is invalid; can't be blank"},
		},
		{
			name: "non-string entries skipped",
			raw:  map[string]any{"email": 7, "name": "required"},
			want: map[string]string{"name": "required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFieldErrors(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("parseFieldErrors() = %v, want %v", got, tt.want)
			}
			for field, msg := range tt.want {
				if got[field] != msg {
					t.Errorf("parseFieldErrors()[%q] = %q, want %q", field, got[field], msg)
				}
			}
		})
	}
}
