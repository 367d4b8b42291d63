package cmd

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/halnav/halnav-cli/internal/config"
	"github.com/halnav/halnav-cli/internal/hal"
)

// newAuthCmd returns the auth command with subcommands
func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "auth",
		Aliases: []string{"au"},
		Short:   "Manage authentication credentials",
		Long:    "Configure and manage API credentials stored securely in your OS keychain.",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthProfilesCmd())

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var (
		baseURL string
		token   string
		profile string
		check   bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save API credentials to the OS keychain",
		Example: `  # Save the entry point and token
  halnav auth login --url https://api.example.com --token YOUR_TOKEN

  # Save to a named profile and verify the entry point answers
  halnav auth login --url https://api.example.com --token YOUR_TOKEN --profile staging --check`,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			baseURL = strings.TrimSpace(baseURL)
			if baseURL == "" {
				return fmt.Errorf("--url is required")
			}
			parsed, err := url.Parse(baseURL)
			if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
				return fmt.Errorf("--url must be an absolute http(s) URL")
			}
			baseURL = strings.TrimSuffix(baseURL, "/")

			if check {
				client := clientForCredentials(token)
				if _, err := hal.Load(cmd.Context(), client, baseURL); err != nil {
					return fmt.Errorf("entry point check failed: %w", err)
				}
			}

			if err := config.SaveProfile(profile, config.Profile{BaseURL: baseURL, Token: token}); err != nil {
				return err
			}

			name := profile
			if name == "" {
				name = "default"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Credentials saved to profile %q.\n", name)
			return nil
		}),
	}

	cmd.Flags().StringVar(&baseURL, "url", "", "API entry point URL")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token (optional for open APIs)")
	cmd.Flags().StringVar(&profile, "profile", "", "Profile name to save under (default: default)")
	cmd.Flags().BoolVar(&check, "check", false, "Verify the entry point answers before saving")

	return cmd
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active credentials",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			profile, err := config.Load()
			if err != nil {
				return err
			}

			current, _ := config.CurrentProfile()
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{
					"profile":   current,
					"base_url":  profile.BaseURL,
					"has_token": profile.Token != "",
				})
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Profile:  %s\n", current)
			_, _ = fmt.Fprintf(out, "Base URL: %s\n", profile.BaseURL)
			_, _ = fmt.Fprintf(out, "Token:    %s\n", maskToken(profile.Token))
			return nil
		}),
	}
}

func newAuthLogoutCmd() *cobra.Command {
	var profile string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if err := config.DeleteProfile(profile); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Credentials removed.")
			return nil
		}),
	}

	cmd.Flags().StringVar(&profile, "profile", "", "Profile to remove (default: default)")
	return cmd
}

func newAuthProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List stored profiles",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			profiles, err := config.ListProfiles()
			if err != nil {
				return err
			}
			current, _ := config.CurrentProfile()

			if isJSON(cmd) {
				rows := make([]map[string]any, 0, len(profiles))
				for _, name := range profiles {
					rows = append(rows, map[string]any{
						"name":    name,
						"current": name == current,
					})
				}
				return printJSON(cmd, rows)
			}

			out := cmd.OutOrStdout()
			for _, name := range profiles {
				marker := " "
				if name == current {
					marker = "*"
				}
				_, _ = fmt.Fprintf(out, "%s %s\n", marker, name)
			}
			return nil
		}),
	}
}

func maskToken(token string) string {
	if token == "" {
		return "(none)"
	}
	if len(token) <= 8 {
		return "********"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
