package update

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func withReleaseServer(t *testing.T, status int, body string) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	original := GitHubReleasesURL
	GitHubReleasesURL = server.URL
	t.Cleanup(func() { GitHubReleasesURL = original })
}

func TestCheckForUpdate_NewerAvailable(t *testing.T) {
	withReleaseServer(t, http.StatusOK, `{"tag_name": "v2.0.0", "html_url": "https://example.com/release"}`)

	result := CheckForUpdate(context.Background(), "1.0.0")
	if result == nil {
		t.Fatal("CheckForUpdate() = nil")
	}
	if !result.UpdateAvailable {
		t.Error("UpdateAvailable = false, want true")
	}
	if result.LatestVersion != "2.0.0" {
		t.Errorf("LatestVersion = %q", result.LatestVersion)
	}
	if result.UpdateURL != "https://example.com/release" {
		t.Errorf("UpdateURL = %q", result.UpdateURL)
	}
}

func TestCheckForUpdate_AlreadyLatest(t *testing.T) {
	withReleaseServer(t, http.StatusOK, `{"tag_name": "v1.0.0"}`)

	result := CheckForUpdate(context.Background(), "1.0.0")
	if result == nil {
		t.Fatal("CheckForUpdate() = nil")
	}
	if result.UpdateAvailable {
		t.Error("UpdateAvailable = true for equal versions")
	}
}

func TestCheckForUpdate_DevSkipsCheck(t *testing.T) {
	if result := CheckForUpdate(context.Background(), "dev"); result != nil {
		t.Error("CheckForUpdate(dev) should skip the check")
	}
	if result := CheckForUpdate(context.Background(), ""); result != nil {
		t.Error("CheckForUpdate(\"\") should skip the check")
	}
}

func TestCheckForUpdate_ServerErrorIsNil(t *testing.T) {
	withReleaseServer(t, http.StatusInternalServerError, "")

	if result := CheckForUpdate(context.Background(), "1.0.0"); result != nil {
		t.Error("CheckForUpdate() should return nil on server error")
	}
}

func TestNormalizeVersion(t *testing.T) {
	if normalizeVersion("1.2.3") != "v1.2.3" {
		t.Error("missing v prefix not added")
	}
	if normalizeVersion("v1.2.3") != "v1.2.3" {
		t.Error("existing v prefix mangled")
	}
}
