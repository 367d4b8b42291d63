package cmd

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/99designs/keyring"

	"github.com/halnav/halnav-cli/internal/config"
)

func withMockKeyring(t *testing.T) keyring.Keyring {
	t.Helper()
	ring := keyring.NewArrayKeyring(nil)
	restore := config.SetOpenKeyring(func(cfg keyring.Config) (keyring.Keyring, error) {
		return ring, nil
	})
	t.Cleanup(restore)
	t.Setenv("HALNAV_BASE_URL", "")
	t.Setenv("HALNAV_TOKEN", "")
	t.Setenv("HALNAV_PROFILE", "")
	return ring
}

func TestAuthLoginAndStatus(t *testing.T) {
	withMockKeyring(t)

	out, _, err := runCLI(t, "auth", "login", "--url", "https://api.example.com/", "--token", "secret-token-abcd")
	if err != nil {
		t.Fatalf("auth login: %v", err)
	}
	if !strings.Contains(out, `Credentials saved to profile "default".`) {
		t.Errorf("login output = %q", out)
	}

	out, _, err = runCLI(t, "auth", "status", "--json")
	if err != nil {
		t.Fatalf("auth status: %v", err)
	}
	var status map[string]any
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("status output is not JSON: %v\n%s", err, out)
	}
	// Trailing slash is trimmed on save.
	if status["base_url"] != "https://api.example.com" {
		t.Errorf("base_url = %v", status["base_url"])
	}
	if status["has_token"] != true {
		t.Errorf("has_token = %v, want true", status["has_token"])
	}
	if status["profile"] != "default" {
		t.Errorf("profile = %v, want default", status["profile"])
	}
}

func TestAuthLogin_RejectsBadURL(t *testing.T) {
	withMockKeyring(t)

	_, _, err := runCLI(t, "auth", "login", "--url", "api.example.com")
	if err == nil || !strings.Contains(err.Error(), "absolute http(s) URL") {
		t.Fatalf("err = %v, want URL validation error", err)
	}

	_, _, err = runCLI(t, "auth", "login")
	if err == nil || !strings.Contains(err.Error(), "--url is required") {
		t.Fatalf("err = %v, want missing --url error", err)
	}
}

func TestAuthLogin_CheckVerifiesEntryPoint(t *testing.T) {
	server := halServer(t, func(serverURL string, w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer check-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		writeHal(w, entryDoc(serverURL))
	})
	withMockKeyring(t)

	_, _, err := runCLI(t, "auth", "login", "--url", server.URL, "--token", "wrong", "--check")
	if err == nil || !strings.Contains(err.Error(), "entry point check failed") {
		t.Fatalf("err = %v, want failed check", err)
	}
	if _, loadErr := config.LoadProfile(""); loadErr == nil {
		t.Error("profile saved despite failed check")
	}

	out, _, err := runCLI(t, "auth", "login", "--url", server.URL, "--token", "check-token", "--check")
	if err != nil {
		t.Fatalf("auth login --check: %v", err)
	}
	if !strings.Contains(out, "Credentials saved") {
		t.Errorf("login output = %q", out)
	}
}

func TestAuthProfilesAndLogout(t *testing.T) {
	withMockKeyring(t)

	for _, name := range []string{"", "staging"} {
		args := []string{"auth", "login", "--url", "https://api.example.com", "--token", "tok"}
		if name != "" {
			args = append(args, "--profile", name)
		}
		if _, _, err := runCLI(t, args...); err != nil {
			t.Fatalf("auth login %q: %v", name, err)
		}
	}

	out, _, err := runCLI(t, "auth", "profiles")
	if err != nil {
		t.Fatalf("auth profiles: %v", err)
	}
	if !strings.Contains(out, "default") || !strings.Contains(out, "staging") {
		t.Errorf("profiles output = %q", out)
	}
	// The most recently saved profile is current.
	if !strings.Contains(out, "* staging") {
		t.Errorf("profiles output = %q, want staging marked current", out)
	}

	out, _, err = runCLI(t, "auth", "logout", "--profile", "staging")
	if err != nil {
		t.Fatalf("auth logout: %v", err)
	}
	if !strings.Contains(out, "Credentials removed.") {
		t.Errorf("logout output = %q", out)
	}

	out, _, err = runCLI(t, "auth", "profiles", "--json")
	if err != nil {
		t.Fatalf("auth profiles --json: %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("profiles output is not JSON: %v\n%s", err, out)
	}
	if len(rows) != 1 || rows[0]["name"] != "default" || rows[0]["current"] != true {
		t.Errorf("rows = %v, want default promoted to current", rows)
	}
}

func TestMaskToken(t *testing.T) {
	cases := []struct {
		token string
		want  string
	}{
		{"", "(none)"},
		{"short", "********"},
		{"12345678", "********"},
		{"abcdefghijkl", "abcd...ijkl"},
	}
	for _, tc := range cases {
		if got := maskToken(tc.token); got != tc.want {
			t.Errorf("maskToken(%q) = %q, want %q", tc.token, got, tc.want)
		}
	}
}
