package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halnav/halnav-cli/internal/hal"
)

func TestGet_EntryStripsEnvelope(t *testing.T) {
	halServer(t, func(serverURL string, w http.ResponseWriter, r *http.Request) {
		writeHal(w, entryDoc(serverURL, "orders"))
	})

	out, _, err := runCLI(t, "get", "--json")
	require.NoError(t, err)

	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &data))
	assert.Equal(t, "entry", data["name"])
	assert.NotContains(t, data, "_links")
	assert.NotContains(t, data, "_embedded")
}

func TestGet_FollowWithParams(t *testing.T) {
	var gotQuery string
	halServer(t, func(serverURL string, w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			writeHal(w, fmt.Sprintf(`{"_links": {"orders": {"href": %q}}}`, serverURL+"/orders?preset=1"))
		case "/orders":
			gotQuery = r.URL.RawQuery
			writeHal(w, `{"total": 2}`)
		default:
			http.NotFound(w, r)
		}
	})

	out, _, err := runCLI(t, "get", "--follow", "orders", "--param", "state=open", "--param", "page=2", "--json")
	require.NoError(t, err)

	// Supplied params replace the link's own query string entirely.
	assert.NotContains(t, gotQuery, "preset")
	assert.Contains(t, gotQuery, "state=open")
	assert.Contains(t, gotQuery, "page=2")
	assert.Contains(t, out, `"total"`)
}

func TestGet_FollowWithBody(t *testing.T) {
	var gotContentType string
	var gotBody map[string]any
	halServer(t, func(serverURL string, w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			writeHal(w, fmt.Sprintf(`{"_links": {"create": {"href": %q, "method": "POST"}}}`, serverURL+"/create"))
		case "/create":
			gotContentType = r.Header.Get("Content-Type")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			writeHal(w, `{"id": 9}`)
		default:
			http.NotFound(w, r)
		}
	})

	out, _, err := runCLI(t, "get", "--follow", "create", "--data", `{"sku": "A-1"}`, "--json")
	require.NoError(t, err)
	assert.Equal(t, hal.MediaTypeJSON, gotContentType)
	assert.Equal(t, "A-1", gotBody["sku"])
	assert.Contains(t, out, `"id"`)
}

func TestGet_FollowWithForm(t *testing.T) {
	var gotKind, gotFile string
	halServer(t, func(serverURL string, w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			writeHal(w, fmt.Sprintf(`{"_links": {"import": {"href": %q, "method": "POST"}}}`, serverURL+"/import"))
		case "/import":
			require.NoError(t, r.ParseMultipartForm(1<<20))
			gotKind = r.FormValue("meta.kind")
			file, header, err := r.FormFile("csv")
			require.NoError(t, err)
			defer func() { _ = file.Close() }()
			gotFile = header.Filename
			writeHal(w, `{"imported": true}`)
		default:
			http.NotFound(w, r)
		}
	})

	dir := t.TempDir()
	path := dir + "/orders.csv"
	require.NoError(t, writeTestFile(path, "sku,qty\nA-1,2\n"))

	_, _, err := runCLI(t, "get", "--follow", "import", "--form", "meta.kind=bulk", "--file", "csv="+path, "--json")
	require.NoError(t, err)
	assert.Equal(t, "bulk", gotKind)
	assert.Equal(t, "orders.csv", gotFile)
}

func TestGet_Raw(t *testing.T) {
	payload := []byte{0x25, 0x50, 0x44, 0x46, 0x00, 0xff}
	halServer(t, func(serverURL string, w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			writeHal(w, fmt.Sprintf(`{"_links": {"report": {"href": %q}}}`, serverURL+"/report"))
		case "/report":
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write(payload)
		default:
			http.NotFound(w, r)
		}
	})

	out, _, err := runCLI(t, "get", "--follow", "report", "--raw")
	require.NoError(t, err)
	assert.Equal(t, string(payload), out)
}

func TestGet_RawEntry(t *testing.T) {
	halServer(t, func(serverURL string, w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("plain text"))
	})

	out, _, err := runCLI(t, "get", "--raw")
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)
}

func TestGet_DocConvention(t *testing.T) {
	halServer(t, func(serverURL string, w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			writeHal(w, fmt.Sprintf(
				`{"_links": {"orders": {"href": %q}, "orders-doc": {"href": %q}}}`,
				serverURL+"/orders", serverURL+"/docs/orders"))
		case "/docs/orders":
			writeHal(w, `{"description": "order collection"}`)
		default:
			http.NotFound(w, r)
		}
	})

	out, _, err := runCLI(t, "get", "--follow", "orders", "--doc", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, "order collection")
}

func TestGet_UnknownRelSuggests(t *testing.T) {
	halServer(t, func(serverURL string, w http.ResponseWriter, r *http.Request) {
		writeHal(w, entryDoc(serverURL, "orders"))
	})

	_, stderr, err := runCLI(t, "get", "--follow", "ordre")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no link relation "ordre"`)
	assert.Contains(t, err.Error(), "did you mean orders")
	assert.Contains(t, stderr, "halnav links")
}

func TestGet_StructuredServerError(t *testing.T) {
	halServer(t, func(serverURL string, w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			writeHal(w, fmt.Sprintf(`{"_links": {"create": {"href": %q, "method": "POST"}}}`, serverURL+"/create"))
		case "/create":
			w.Header().Set("Content-Type", hal.MediaTypeJSON)
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message": "invalid order", "errors": {"sku": "is required"}}`))
		}
	})

	_, stderr, err := runCLI(t, "get", "--follow", "create", "--data", `{}`)
	require.Error(t, err)
	assert.Equal(t, exitUsage, ExitCode(err))
	assert.Contains(t, stderr, "invalid order")
	assert.Contains(t, stderr, "sku: is required")
}

func TestGet_FlagConflicts(t *testing.T) {
	t.Setenv("HALNAV_BASE_URL", "https://unused.example.com")

	_, _, err := runCLI(t, "get", "--follow", "x", "--data", `{}`, "--form", "a=b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--data cannot be combined")

	_, _, err = runCLI(t, "get", "--param", "a=b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "require at least one --follow")

	_, _, err = runCLI(t, "get", "--follow", "x", "--doc", "--raw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--doc cannot be combined")
}
