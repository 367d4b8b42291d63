// Package cmd implements the halnav command line interface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/halnav/halnav-cli/internal/debug"
	"github.com/halnav/halnav-cli/internal/iocontext"
	"github.com/halnav/halnav-cli/internal/outfmt"
	"github.com/halnav/halnav-cli/internal/transport"
)

// rootFlags holds global CLI flags
type rootFlags struct {
	Output  string
	JSON    bool
	Debug   bool
	Quiet   bool
	Silent  bool
	Compact bool
	Query   string
	JQ      string
	BaseURL string
	Token   string
	NoCache bool
	Timeout time.Duration

	MaxRateLimitRetries     int
	Max5xxRetries           int
	RateLimitDelay          time.Duration
	ServerErrorDelay        time.Duration
	CircuitBreakerThreshold int
	CircuitBreakerResetTime time.Duration

	MaxRateLimitRetriesSet     bool
	Max5xxRetriesSet           bool
	RateLimitDelaySet          bool
	ServerErrorDelaySet        bool
	CircuitBreakerThresholdSet bool
	CircuitBreakerResetTimeSet bool
}

// flags holds the global command flags. This is package-level mutable state
// that MUST be reset at the start of every Execute() call. Tests depend on
// this reset to get clean state; any code that reads flags outside of a
// command's RunE is reading stale data from the previous Execute() call.
var flags = rootFlags{
	Output:  defaultOutput(),
	Timeout: transport.DefaultTimeout,
}

func defaultOutput() string {
	value := strings.TrimSpace(os.Getenv("HALNAV_OUTPUT"))
	if value != "" {
		return normalizeOutputFormat(value)
	}
	return "text"
}

func normalizeOutputFormat(value string) string {
	value = strings.TrimSpace(value)
	if value == "ndjson" {
		return "jsonl"
	}
	return value
}

// Execute runs the root command
func Execute(ctx context.Context, args []string) error {
	// Reset flags to defaults for each execution. This is critical for test
	// isolation; see the invariant comment on the flags declaration above.
	flags = rootFlags{
		Output:  defaultOutput(),
		Timeout: transport.DefaultTimeout,
	}

	root := &cobra.Command{
		Use:                "halnav",
		Short:              "Navigate HAL hypermedia APIs by link relation",
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true, // We provide our own did-you-mean via enhanceUnknownError
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			flags.Output = normalizeOutputFormat(flags.Output)
			if flags.JSON {
				if cmd.Flags().Changed("output") && flags.Output != "json" {
					return fmt.Errorf("--json conflicts with --output %s", flags.Output)
				}
				flags.Output = "json"
			}
			needsJSON := flags.Query != "" || flags.JQ != ""
			if needsJSON && flags.Output != "json" && flags.Output != "jsonl" {
				if cmd.Flags().Changed("output") {
					return fmt.Errorf("--jq/--query require --output json or jsonl/ndjson (or --json)")
				}
				flags.Output = "json"
			}

			mode, err := outfmt.Parse(flags.Output)
			if err != nil {
				return err
			}
			ctx = outfmt.WithMode(ctx, mode)
			ctx = outfmt.WithCompact(ctx, flags.Compact)

			// Set up IO streams (allow silent/quiet to suppress stderr)
			base := iocontext.GetIO(ctx)
			ioStreams := &iocontext.IO{Out: base.Out, ErrOut: base.ErrOut, In: base.In}
			if flags.Silent || flags.Quiet {
				ioStreams.ErrOut = io.Discard
			}
			if flags.Quiet && mode == outfmt.Text {
				ioStreams.Out = io.Discard
			}
			ctx = iocontext.WithIO(ctx, ioStreams)
			cmd.SetOut(ioStreams.Out)
			cmd.SetErr(ioStreams.ErrOut)

			debugEnabled := flags.Debug || debug.FromEnv()
			debug.SetupLogger(debugEnabled)
			ctx = debug.WithDebug(ctx, debugEnabled)

			if jqQuery := getJQQuery(); jqQuery != "" {
				ctx = outfmt.WithQuery(ctx, jqQuery)
			}

			flags.MaxRateLimitRetriesSet = cmd.Flags().Changed("max-rate-limit-retries")
			flags.Max5xxRetriesSet = cmd.Flags().Changed("max-5xx-retries")
			flags.RateLimitDelaySet = cmd.Flags().Changed("rate-limit-delay")
			flags.ServerErrorDelaySet = cmd.Flags().Changed("server-error-delay")
			flags.CircuitBreakerThresholdSet = cmd.Flags().Changed("circuit-breaker-threshold")
			flags.CircuitBreakerResetTimeSet = cmd.Flags().Changed("circuit-breaker-reset-time")

			if flags.MaxRateLimitRetriesSet && flags.MaxRateLimitRetries < 0 {
				return fmt.Errorf("--max-rate-limit-retries must be >= 0")
			}
			if flags.Max5xxRetriesSet && flags.Max5xxRetries < 0 {
				return fmt.Errorf("--max-5xx-retries must be >= 0")
			}
			if flags.RateLimitDelaySet && flags.RateLimitDelay < 0 {
				return fmt.Errorf("--rate-limit-delay must be >= 0")
			}
			if flags.ServerErrorDelaySet && flags.ServerErrorDelay < 0 {
				return fmt.Errorf("--server-error-delay must be >= 0")
			}
			if flags.CircuitBreakerThresholdSet && flags.CircuitBreakerThreshold < 0 {
				return fmt.Errorf("--circuit-breaker-threshold must be >= 0")
			}
			if flags.CircuitBreakerResetTimeSet && flags.CircuitBreakerResetTime < 0 {
				return fmt.Errorf("--circuit-breaker-reset-time must be >= 0")
			}

			cmd.SetContext(ctx)
			return nil
		},
	}

	root.SetContext(ctx)
	root.SetArgs(args)

	root.PersistentFlags().StringVarP(&flags.Output, "output", "o", flags.Output, "Output format: text|json|jsonl|ndjson (env HALNAV_OUTPUT)")
	root.PersistentFlags().BoolVarP(&flags.JSON, "json", "j", false, "Shorthand for --output json")
	root.PersistentFlags().BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVarP(&flags.Query, "query", "q", "", "jq expression to filter JSON output")
	root.PersistentFlags().StringVar(&flags.JQ, "jq", "", "Alias for --query")
	root.PersistentFlags().BoolVar(&flags.Compact, "compact-json", false, "Compact JSON output (no indentation)")
	root.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "Q", false, "Suppress non-essential output")
	root.PersistentFlags().BoolVar(&flags.Silent, "silent", false, "Suppress non-error output to stderr")
	root.PersistentFlags().StringVar(&flags.BaseURL, "base-url", "", "API entry point URL (overrides stored profile; env HALNAV_BASE_URL)")
	root.PersistentFlags().StringVar(&flags.Token, "token", "", "Bearer token (overrides stored profile; env HALNAV_TOKEN)")
	root.PersistentFlags().BoolVar(&flags.NoCache, "no-cache", false, "Bypass the document cache (env HALNAV_NO_CACHE)")
	root.PersistentFlags().DurationVar(&flags.Timeout, "timeout", flags.Timeout, "HTTP request timeout (e.g., 30s, 2m)")
	root.PersistentFlags().IntVar(&flags.MaxRateLimitRetries, "max-rate-limit-retries", 0, "Max retries for 429 responses (overrides env)")
	root.PersistentFlags().IntVar(&flags.Max5xxRetries, "max-5xx-retries", 0, "Max retries for 5xx responses (overrides env)")
	root.PersistentFlags().DurationVar(&flags.RateLimitDelay, "rate-limit-delay", 0, "Base delay for 429 retries (e.g., 1s; overrides env)")
	root.PersistentFlags().DurationVar(&flags.ServerErrorDelay, "server-error-delay", 0, "Delay between 5xx retries (e.g., 1s; overrides env)")
	root.PersistentFlags().IntVar(&flags.CircuitBreakerThreshold, "circuit-breaker-threshold", 0, "Failures before circuit opens (overrides env)")
	root.PersistentFlags().DurationVar(&flags.CircuitBreakerResetTime, "circuit-breaker-reset-time", 0, "Circuit breaker reset time (e.g., 30s; overrides env)")

	root.AddCommand(newGetCmd())
	root.AddCommand(newLinksCmd())
	root.AddCommand(newEmbedsCmd())
	root.AddCommand(newCrawlCmd())
	root.AddCommand(newAuthCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newVersionCmd())

	targetCmd, err := root.ExecuteC()
	if err != nil {
		if !errors.Is(err, errAlreadyHandled) {
			enhanced := enhanceUnknownError(err, root, targetCmd)
			_, _ = fmt.Fprintln(root.ErrOrStderr(), enhanced)
		}
		return err
	}
	return nil
}

// enhanceUnknownError adds "did you mean?" suggestions to unknown command/flag errors.
// targetCmd is the command Cobra resolved before the error (may be root itself).
func enhanceUnknownError(err error, root *cobra.Command, targetCmd *cobra.Command) string {
	msg := err.Error()

	// Unknown command: `unknown command "foo" for "halnav"`
	if strings.Contains(msg, "unknown command") {
		unknown := extractQuoted(msg)
		if unknown != "" {
			var names []string
			for _, c := range root.Commands() {
				if c.IsAvailableCommand() || c.Name() == "help" {
					names = append(names, c.Name())
					names = append(names, c.Aliases...)
				}
			}
			if suggestion := suggestCommand(unknown, names); suggestion != "" {
				return fmt.Sprintf("%s\n\nDid you mean %q?", msg, suggestion)
			}
		}
	}

	if strings.Contains(msg, "unknown flag") || strings.Contains(msg, "flag provided but not defined") || strings.Contains(msg, "unknown shorthand flag") {
		unknown := extractFlag(msg)
		if unknown != "" {
			seen := make(map[string]bool)
			var flagNames []string
			addFlags := func(fs *pflag.FlagSet) {
				fs.VisitAll(func(f *pflag.Flag) {
					name := "--" + f.Name
					if !seen[name] {
						seen[name] = true
						flagNames = append(flagNames, name)
					}
					if f.Shorthand != "" {
						short := "-" + f.Shorthand
						if !seen[short] {
							seen[short] = true
							flagNames = append(flagNames, short)
						}
					}
				})
			}
			if targetCmd != nil {
				addFlags(targetCmd.Flags())
				addFlags(targetCmd.InheritedFlags())
			} else {
				addFlags(root.Flags())
				addFlags(root.PersistentFlags())
			}
			helpCmd := "halnav --help"
			if targetCmd != nil {
				if commandPath := strings.TrimSpace(targetCmd.CommandPath()); commandPath != "" {
					helpCmd = commandPath + " --help"
				}
			}
			if suggestion := suggestFlag(unknown, flagNames); suggestion != "" {
				return fmt.Sprintf("%s\n\nDid you mean %q?\nRun %q to see supported flags.", msg, suggestion, helpCmd)
			}
			return fmt.Sprintf("%s\n\nRun %q to see supported flags.", msg, helpCmd)
		}
	}

	return msg
}

// extractQuoted extracts the first double-quoted substring from s.
func extractQuoted(s string) string {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(s[start+1:], '"')
	if end < 0 {
		return ""
	}
	return s[start+1 : start+1+end]
}

// extractFlag extracts a flag name (e.g., "--foo") from an error message.
func extractFlag(s string) string {
	idx := strings.Index(s, "--")
	if idx < 0 {
		// Fallback for shorthand errors like:
		// "unknown shorthand flag: 'a' in -a"
		idx = strings.LastIndex(s, " -")
		if idx < 0 {
			return ""
		}
		rest := strings.TrimSpace(s[idx+1:])
		end := strings.IndexByte(rest, ' ')
		if end >= 0 {
			rest = rest[:end]
		}
		rest = strings.TrimRight(rest, ".,;:!?\"'")
		if strings.HasPrefix(rest, "-") && len(rest) > 1 {
			return rest
		}
		return ""
	}
	rest := s[idx:]
	end := strings.IndexByte(rest, ' ')
	if end < 0 {
		end = len(rest)
	}
	return strings.TrimRight(rest[:end], ".,;:!?\"'")
}
