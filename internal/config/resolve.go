package config

import (
	"fmt"
	"os"
	"strings"
)

// ClientConfig contains resolved client settings for one invocation.
type ClientConfig struct {
	BaseURL string
	Token   string
}

// Resolve produces client settings from stored credentials, environment
// variables, and explicit flag overrides, in ascending precedence.
func Resolve(baseURLOverride, tokenOverride string) (ClientConfig, error) {
	var cfg ClientConfig

	if profile, err := Load(); err == nil {
		cfg.BaseURL = profile.BaseURL
		cfg.Token = profile.Token
	}

	if envURL := strings.TrimSpace(os.Getenv("HALNAV_BASE_URL")); envURL != "" {
		cfg.BaseURL = strings.TrimSuffix(envURL, "/")
	}
	if envToken := strings.TrimSpace(os.Getenv("HALNAV_TOKEN")); envToken != "" {
		cfg.Token = envToken
	}

	if baseURLOverride != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURLOverride, "/")
	}
	if tokenOverride != "" {
		cfg.Token = tokenOverride
	}

	if cfg.BaseURL == "" {
		return ClientConfig{}, fmt.Errorf("base URL not configured (set HALNAV_BASE_URL, run 'halnav auth login', or pass --base-url)")
	}

	return cfg, nil
}
