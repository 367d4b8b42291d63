// Package hal navigates HAL-style hypermedia APIs. A server response is
// parsed into a Resource exposing the domain payload, a table of named
// link relations that can be followed with LoadLink and friends, and
// embedded child resources that materialize into Resources on demand.
//
// The package performs no HTTP itself; all requests go through the
// Transport interface. It also performs no retries and no caching:
// every navigation is exactly one request/response exchange, and retry
// policy belongs to the Transport implementation.
package hal

import (
	"context"
	"io"
	"net/http"
)

// Media types accepted when classifying responses.
const (
	// MediaTypeHal is the hypermedia media type required on successful
	// responses (case-sensitive prefix match).
	MediaTypeHal = "application/hal+json"
	// MediaTypeJSON is accepted for error bodies only.
	MediaTypeJSON = "application/json"
)

// Request describes one HTTP exchange to be performed by a Transport.
type Request struct {
	Method string
	URL    string
	Header map[string]string
	Body   io.Reader
}

// Response is the transport's view of one HTTP response with the body
// fully read.
type Response struct {
	Status     int
	StatusText string
	Header     http.Header
	Body       []byte
}

// OK reports whether the response status indicates success.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// ContentType returns the Content-Type header value, or "" when absent.
func (r *Response) ContentType() string {
	if r.Header == nil {
		return ""
	}
	return r.Header.Get("Content-Type")
}

// Transport performs a single HTTP request. Implementations own timeout
// and retry policy; this package issues each navigation as one Fetch call
// and reports the outcome verbatim.
type Transport interface {
	Fetch(ctx context.Context, req *Request) (*Response, error)
}
