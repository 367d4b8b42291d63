package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/halnav/halnav-cli/internal/cache"
	"github.com/halnav/halnav-cli/internal/config"
	"github.com/halnav/halnav-cli/internal/hal"
	"github.com/halnav/halnav-cli/internal/iocontext"
	"github.com/halnav/halnav-cli/internal/outfmt"
	"github.com/halnav/halnav-cli/internal/suggest"
	"github.com/halnav/halnav-cli/internal/transport"
)

// getJQQuery returns the jq query from --jq or --query flags.
// --jq takes precedence over --query for consistency with gh CLI.
func getJQQuery() string {
	if flags.JQ != "" {
		return flags.JQ
	}
	return flags.Query
}

func isJSON(cmd *cobra.Command) bool {
	return outfmt.IsJSON(cmd.Context())
}

// newClient builds a transport client from resolved credentials and the
// global flags, and returns it with the resolved base URL.
func newClient() (*transport.Client, string, error) {
	cfg, err := config.Resolve(flags.BaseURL, flags.Token)
	if err != nil {
		return nil, "", err
	}

	client := transport.New(cfg.Token)
	client.UserAgent = "halnav-cli/" + version
	client.HTTP.Timeout = flags.Timeout

	retryCfg := client.RetryConfig
	if flags.MaxRateLimitRetriesSet {
		retryCfg.MaxRateLimitRetries = flags.MaxRateLimitRetries
	}
	if flags.Max5xxRetriesSet {
		retryCfg.Max5xxRetries = flags.Max5xxRetries
	}
	if flags.RateLimitDelaySet {
		retryCfg.RateLimitBaseDelay = flags.RateLimitDelay
	}
	if flags.ServerErrorDelaySet {
		retryCfg.ServerErrorRetryDelay = flags.ServerErrorDelay
	}
	if flags.CircuitBreakerThresholdSet {
		retryCfg.CircuitBreakerThreshold = flags.CircuitBreakerThreshold
	}
	if flags.CircuitBreakerResetTimeSet {
		retryCfg.CircuitBreakerResetTime = flags.CircuitBreakerResetTime
	}
	client.SetRetryConfig(retryCfg)

	return client, cfg.BaseURL, nil
}

// clientForCredentials builds a transport client for explicit
// credentials, bypassing the stored profile.
func clientForCredentials(token string) *transport.Client {
	client := transport.New(token)
	client.UserAgent = "halnav-cli/" + version
	client.HTTP.Timeout = flags.Timeout
	return client
}

// navigationTransport wraps the client with the document cache unless
// caching is off.
func navigationTransport(client *transport.Client) hal.Transport {
	if flags.NoCache || cache.Disabled() {
		return client
	}
	return &cachingTransport{next: client}
}

// cachedResponse is the cache representation of a successful exchange.
type cachedResponse struct {
	Status      int    `json:"status"`
	StatusText  string `json:"status_text"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// cachingTransport serves repeated GETs of the same URL from the
// document cache. Only successful hypermedia responses are stored, so
// errors and raw downloads always hit the network.
type cachingTransport struct {
	next hal.Transport
}

func (t *cachingTransport) Fetch(ctx context.Context, req *hal.Request) (*hal.Response, error) {
	if req.Method != http.MethodGet {
		return t.next.Fetch(ctx, req)
	}

	store := cache.New("doc", req.URL)
	var cached cachedResponse
	if store.Get(&cached) {
		header := http.Header{}
		header.Set("Content-Type", cached.ContentType)
		return &hal.Response{
			Status:     cached.Status,
			StatusText: cached.StatusText,
			Header:     header,
			Body:       cached.Body,
		}, nil
	}

	resp, err := t.next.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.OK() && strings.HasPrefix(resp.ContentType(), hal.MediaTypeHal) {
		store.Put(cachedResponse{
			Status:      resp.Status,
			StatusText:  resp.StatusText,
			ContentType: resp.ContentType(),
			Body:        resp.Body,
		})
	}
	return resp, nil
}

// resolveTarget turns a command argument into an absolute URL. An empty
// target means the API entry point; absolute URLs pass through; anything
// else is joined to the base URL as a path.
func resolveTarget(baseURL, target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return baseURL, nil
	}
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		if _, err := url.Parse(target); err != nil {
			return "", fmt.Errorf("invalid target URL %q: %w", target, err)
		}
		return target, nil
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(target, "/"), nil
}

// loadEntry fetches the starting resource for a navigation command.
func loadEntry(ctx context.Context, t hal.Transport, baseURL, target string) (*hal.Resource, error) {
	entryURL, err := resolveTarget(baseURL, target)
	if err != nil {
		return nil, err
	}
	return hal.Load(ctx, t, entryURL)
}

// followRels walks the given relations in order, returning the final
// resource. Unknown rels get a did-you-mean hint.
func followRels(ctx context.Context, res *hal.Resource, rels []string) (*hal.Resource, error) {
	for _, rel := range rels {
		next, err := res.LoadLink(ctx, rel)
		if err != nil {
			return nil, decorateRelError(err, res)
		}
		res = next
	}
	return res, nil
}

// decorateRelError appends known-rel suggestions to a relation lookup failure.
func decorateRelError(err error, res *hal.Resource) error {
	var relErr *hal.RelationError
	if !errors.As(err, &relErr) {
		return err
	}
	var known []string
	for _, info := range res.GetAllLinks() {
		known = append(known, info.Rel)
	}
	if hint := suggest.Hint(relErr.Rel, known); hint != "" {
		return fmt.Errorf("%w%s", err, hint)
	}
	return err
}

// parseKeyValues parses repeated key=value flags into a payload map.
// Values that parse as JSON scalars keep their type; everything else
// stays a string.
func parseKeyValues(flagName string, pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --%s %q: expected key=value", flagName, pair)
		}
		out[key] = coerceScalar(value)
	}
	return out, nil
}

// coerceScalar interprets numeric and boolean strings as their JSON
// types so query and form values round-trip naturally.
func coerceScalar(value string) any {
	trimmed := strings.TrimSpace(value)
	switch trimmed {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	var n json.Number
	if err := json.Unmarshal([]byte(trimmed), &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
	}
	return value
}

// parseFileArgs reads field=path flags into file upload fields.
func parseFileArgs(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		field, path, ok := strings.Cut(pair, "=")
		field = strings.TrimSpace(field)
		path = strings.TrimSpace(path)
		if !ok || field == "" || path == "" {
			return nil, fmt.Errorf("invalid --file %q: expected field=path", pair)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read --file %q: %w", path, err)
		}
		out[field] = hal.FileField{
			Filename: baseName(path),
			Content:  data,
		}
	}
	return out, nil
}

func baseName(path string) string {
	if idx := strings.LastIndexAny(path, "/\\"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

// parseBodyArg parses --data into a JSON payload. A leading @ reads the
// payload from a file, @- from stdin.
func parseBodyArg(cmd *cobra.Command, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "@") {
		path := strings.TrimPrefix(raw, "@")
		var data []byte
		var err error
		if path == "-" {
			data, err = io.ReadAll(iocontext.GetIO(cmd.Context()).In)
		} else {
			data, err = os.ReadFile(path)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read --data payload: %w", err)
		}
		raw = string(data)
	}
	var payload any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("--data must be valid JSON: %w", err)
	}
	return payload, nil
}

// printJSON outputs data as JSON with optional query filtering
func printJSON(cmd *cobra.Command, v any) error {
	ctx := cmd.Context()
	ioStreams := iocontext.GetIO(ctx)
	query := outfmt.GetQuery(ctx)
	if outfmt.IsJSONL(ctx) {
		filtered, err := outfmt.ApplyQuery(v, query)
		if err != nil {
			return err
		}
		return outfmt.WriteJSONL(ioStreams.Out, filtered)
	}
	return outfmt.WriteJSONFiltered(ioStreams.Out, v, query, outfmt.IsCompact(ctx))
}

// errAlreadyHandled is a sentinel error indicating the error was already printed to stderr.
// Commands using RunE return this to signal Cobra that an error occurred (for exit code)
// without Cobra printing it again (since SilenceErrors is true on root command).
var errAlreadyHandled = errors.New("error already handled")

type handledError struct {
	err      error
	exitCode int
}

func (e *handledError) Error() string {
	return e.err.Error()
}

func (e *handledError) Unwrap() error {
	return errAlreadyHandled
}

func (e *handledError) ExitCode() int {
	return e.exitCode
}

// RunE wraps a command function with enhanced error handling
func RunE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err != nil {
			if isJSON(cmd) {
				ioStreams := iocontext.GetIO(cmd.Context())
				_ = outfmt.WriteJSON(ioStreams.ErrOut, errorPayload(err))
			} else {
				_, _ = fmt.Fprint(cmd.ErrOrStderr(), HandleError(err))
			}
			// Return a handled error so tests can still inspect the original message.
			return &handledError{err: err, exitCode: ExitCode(err)}
		}
		return nil
	}
}

// errorPayload renders an error as a JSON object for machine consumers.
func errorPayload(err error) map[string]any {
	payload := map[string]any{"error": err.Error()}

	var halErr *hal.HalError
	if errors.As(err, &halErr) {
		payload["status"] = halErr.StatusCode
		payload["message"] = halErr.Message
		if len(halErr.FieldErrors) > 0 {
			payload["field_errors"] = halErr.FieldErrors
		}
		return payload
	}
	var transportErr *hal.TransportError
	if errors.As(err, &transportErr) {
		payload["status"] = transportErr.StatusCode
	}
	return payload
}

// resolveCacheDir returns the cache directory, honoring HALNAV_CACHE_DIR.
func resolveCacheDir() string {
	if dir := strings.TrimSpace(os.Getenv("HALNAV_CACHE_DIR")); dir != "" {
		return dir
	}
	dir, err := cache.DefaultDir()
	if err != nil {
		return ""
	}
	return dir
}
