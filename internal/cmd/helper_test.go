package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/halnav/halnav-cli/internal/hal"
	"github.com/halnav/halnav-cli/internal/iocontext"
)

// runCLI executes the root command with captured streams.
func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	ctx := iocontext.WithIO(context.Background(), &iocontext.IO{
		Out:    &out,
		ErrOut: &errOut,
		In:     strings.NewReader(""),
	})
	err = Execute(ctx, args)
	return out.String(), errOut.String(), err
}

// halServer starts a test server whose handler can reference the
// server's own URL for absolute link hrefs.
func halServer(t *testing.T, handler func(serverURL string, w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	var serverURL string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler(serverURL, w, r)
	}))
	serverURL = server.URL
	t.Cleanup(server.Close)

	t.Setenv("HALNAV_BASE_URL", server.URL)
	t.Setenv("HALNAV_TOKEN", "test-token")
	t.Setenv("HALNAV_NO_CACHE", "1")
	return server
}

func writeHal(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", hal.MediaTypeHal)
	_, _ = w.Write([]byte(body))
}

func writeTestFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

func entryDoc(serverURL string, rels ...string) string {
	links := []string{fmt.Sprintf(`"self": {"href": %q}`, serverURL+"/")}
	for _, rel := range rels {
		links = append(links, fmt.Sprintf(`%q: {"href": %q}`, rel, serverURL+"/"+rel))
	}
	return fmt.Sprintf(`{"name": "entry", "_links": {%s}}`, strings.Join(links, ", "))
}
