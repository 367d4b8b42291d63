package hal

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// httpTransport is a minimal Transport over net/http for tests. The
// production implementation lives in internal/transport; tests use this
// one to keep the package free of import cycles.
type httpTransport struct {
	client *http.Client
}

func (t *httpTransport) Fetch(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, req.Body)
	if err != nil {
		return nil, err
	}
	for key, value := range req.Header {
		httpReq.Header.Set(key, value)
	}
	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func newTestTransport() *httpTransport {
	return &httpTransport{client: &http.Client{}}
}

// serveHal starts a test server that answers every request with the given
// status and a hal+json body.
func serveHal(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", MediaTypeHal)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func mustLoad(t *testing.T, url string) *Resource {
	t.Helper()
	res, err := Load(context.Background(), newTestTransport(), url)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return res
}
