package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/halnav/halnav-cli/internal/hal"
	"github.com/halnav/halnav-cli/internal/transport"
)

// HandleError processes an error and returns a user-friendly message with suggestions
func HandleError(err error) string {
	if err == nil {
		return ""
	}

	var msg strings.Builder

	var relErr *hal.RelationError
	var halErr *hal.HalError
	var transportErr *hal.TransportError
	var contentTypeErr *hal.ContentTypeError
	var circuitErr *transport.CircuitBreakerError

	switch {
	case errors.As(err, &relErr):
		fmt.Fprintf(&msg, "Error: %s\n\n", err.Error())
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: halnav links (to list available relations)\n")
		msg.WriteString("  - Check the relation name spelling\n")

	case errors.As(err, &circuitErr):
		msg.WriteString("Service temporarily unavailable (circuit breaker open).\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - The API has had multiple failures recently\n")
		msg.WriteString("  - Wait 30 seconds and retry\n")
		msg.WriteString("  - Check if the server is healthy\n")

	case errors.As(err, &halErr):
		fmt.Fprintf(&msg, "Server error (HTTP %d): %s\n", halErr.StatusCode, halErr.Message)
		if len(halErr.FieldErrors) > 0 {
			msg.WriteString("\nField errors:\n")
			fields := make([]string, 0, len(halErr.FieldErrors))
			for field := range halErr.FieldErrors {
				fields = append(fields, field)
			}
			sort.Strings(fields)
			for _, field := range fields {
				fmt.Fprintf(&msg, "  %s: %s\n", field, halErr.FieldErrors[field])
			}
		}
		msg.WriteString("\n")
		msg.WriteString(suggestionsForStatusCode(halErr.StatusCode))

	case errors.As(err, &transportErr):
		fmt.Fprintf(&msg, "Request failed (HTTP %d %s).\n\n", transportErr.StatusCode, transportErr.StatusText)
		msg.WriteString(suggestionsForStatusCode(transportErr.StatusCode))

	case errors.As(err, &contentTypeErr):
		fmt.Fprintf(&msg, "Error: %s\n\n", err.Error())
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - The endpoint did not return a hypermedia document\n")
		msg.WriteString("  - Use --raw to fetch the response without parsing\n")

	case strings.Contains(err.Error(), "connection refused"):
		msg.WriteString("Connection refused.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check if the server is running\n")
		msg.WriteString("  - Verify the URL: halnav auth status\n")
		msg.WriteString("  - Check your network connection\n")

	case strings.Contains(err.Error(), "no such host"):
		msg.WriteString("DNS resolution failed.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check the base URL spelling\n")
		msg.WriteString("  - Verify your DNS settings\n")

	case strings.Contains(err.Error(), "certificate"):
		msg.WriteString("TLS certificate error.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Verify the server's SSL certificate\n")
		msg.WriteString("  - Check if the certificate is expired\n")

	default:
		fmt.Fprintf(&msg, "Error: %s\n", err.Error())
	}

	return msg.String()
}

func suggestionsForStatusCode(code int) string {
	var suggestions strings.Builder
	suggestions.WriteString("Suggestions:\n")

	switch code {
	case 400:
		suggestions.WriteString("  - Check your request parameters\n")
		suggestions.WriteString("  - Use --debug to see the full request\n")

	case 401:
		suggestions.WriteString("  - Your token may be invalid or expired\n")
		suggestions.WriteString("  - Run: halnav auth login\n")

	case 403:
		suggestions.WriteString("  - You don't have permission for this action\n")
		suggestions.WriteString("  - Check your account role and permissions\n")

	case 404:
		suggestions.WriteString("  - The resource doesn't exist\n")
		suggestions.WriteString("  - Check the path or relation is correct\n")

	case 422:
		suggestions.WriteString("  - Validation failed\n")
		suggestions.WriteString("  - Check your input values\n")

	case 429:
		suggestions.WriteString("  - Too many requests\n")
		suggestions.WriteString("  - Wait and retry in a few seconds\n")

	case 500, 502, 503, 504:
		suggestions.WriteString("  - Server error - not your fault\n")
		suggestions.WriteString("  - Wait and retry\n")

	default:
		suggestions.WriteString("  - Use --debug for more details\n")
	}

	return suggestions.String()
}
