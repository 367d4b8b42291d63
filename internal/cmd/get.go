package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/halnav/halnav-cli/internal/hal"
	"github.com/halnav/halnav-cli/internal/iocontext"
	"github.com/halnav/halnav-cli/internal/outfmt"
)

func newGetCmd() *cobra.Command {
	var (
		follow []string
		params []string
		data   string
		form   []string
		files  []string
		raw    bool
		doc    bool
	)

	cmd := &cobra.Command{
		Use:     "get [path|url]",
		Aliases: []string{"g"},
		Short:   "Fetch a resource, optionally following link relations",
		Long: `Fetch a resource from the API entry point (or the given path/URL) and
optionally walk a chain of link relations. Query parameters, JSON bodies,
and multipart forms apply to the final hop of the chain.`,
		Example: `  # Fetch the API entry point
  halnav get

  # Follow the orders relation, replacing the link's query string
  halnav get --follow orders --param state=open --param page=2

  # Create a resource through a POST link
  halnav get --follow orders --follow create --data '{"sku": "A-1"}'

  # Upload a file through a form link
  halnav get --follow import --form note=initial --file csv=./orders.csv

  # Download a report without hypermedia parsing
  halnav get --follow report --raw > report.pdf`,
		Args: cobra.MaximumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if data != "" && (len(form) > 0 || len(files) > 0) {
				return fmt.Errorf("--data cannot be combined with --form/--file")
			}
			if doc && (data != "" || len(form) > 0 || len(files) > 0 || raw) {
				return fmt.Errorf("--doc cannot be combined with --data, --form, --file, or --raw")
			}
			hasPayload := data != "" || len(form) > 0 || len(files) > 0 || len(params) > 0
			if len(follow) == 0 && (hasPayload || doc) {
				return fmt.Errorf("--param/--data/--form/--file/--doc require at least one --follow relation")
			}

			client, baseURL, err := newClient()
			if err != nil {
				return err
			}
			t := navigationTransport(client)
			ctx := cmd.Context()

			target := ""
			if len(args) == 1 {
				target = args[0]
			}

			// A raw fetch with no navigation skips hypermedia parsing entirely.
			if raw && len(follow) == 0 {
				entryURL, err := resolveTarget(baseURL, target)
				if err != nil {
					return err
				}
				resp, err := hal.LoadRaw(ctx, t, entryURL)
				if err != nil {
					return err
				}
				return writeRaw(cmd, resp)
			}

			res, err := loadEntry(ctx, t, baseURL, target)
			if err != nil {
				return err
			}
			if len(follow) == 0 {
				return outputResource(cmd, res)
			}

			res, err = followRels(ctx, res, follow[:len(follow)-1])
			if err != nil {
				return err
			}
			lastRel := follow[len(follow)-1]

			query, err := parseKeyValues("param", params)
			if err != nil {
				return err
			}
			formPayload, err := buildFormPayload(form, files)
			if err != nil {
				return err
			}
			body, err := parseBodyArg(cmd, data)
			if err != nil {
				return err
			}

			if raw {
				resp, err := loadLastRaw(ctx, res, lastRel, query, body, formPayload)
				if err != nil {
					return decorateRelError(err, res)
				}
				return writeRaw(cmd, resp)
			}

			final, err := loadLast(ctx, res, lastRel, query, body, formPayload, doc)
			if err != nil {
				return decorateRelError(err, res)
			}
			return outputResource(cmd, final)
		}),
	}

	cmd.Flags().StringArrayVarP(&follow, "follow", "f", nil, "Link relation to follow (repeatable; applied in order)")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Query parameter key=value for the final hop (repeatable; replaces the link's query string)")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON body for the final hop ('@file' or '@-' for stdin)")
	cmd.Flags().StringArrayVar(&form, "form", nil, "Multipart form field key=value for the final hop (repeatable; nested keys via dots)")
	cmd.Flags().StringArrayVar(&files, "file", nil, "Multipart file field=path for the final hop (repeatable)")
	cmd.Flags().BoolVar(&raw, "raw", false, "Output the response body verbatim without hypermedia parsing")
	cmd.Flags().BoolVar(&doc, "doc", false, "Follow the documentation variant of the final relation")

	return cmd
}

// buildFormPayload merges --form values and --file uploads into one
// multipart payload.
func buildFormPayload(form, files []string) (map[string]any, error) {
	fields, err := parseKeyValues("form", form)
	if err != nil {
		return nil, err
	}
	uploads, err := parseFileArgs(files)
	if err != nil {
		return nil, err
	}
	if fields == nil && uploads == nil {
		return nil, nil
	}
	payload := make(map[string]any, len(fields)+len(uploads))
	for k, v := range fields {
		payload[k] = v
	}
	for k, v := range uploads {
		payload[k] = v
	}
	return payload, nil
}

// loadLast performs the final hop with the right navigation variant.
func loadLast(ctx context.Context, res *hal.Resource, rel string, query map[string]any, body any, formPayload map[string]any, doc bool) (*hal.Resource, error) {
	switch {
	case doc:
		return res.LoadLinkDoc(ctx, rel)
	case formPayload != nil && query != nil:
		return res.LoadLinkWithQueryAndForm(ctx, rel, query, formPayload)
	case formPayload != nil:
		return res.LoadLinkWithForm(ctx, rel, formPayload)
	case body != nil && query != nil:
		return res.LoadLinkWithQueryAndBody(ctx, rel, query, body)
	case body != nil:
		return res.LoadLinkWithBody(ctx, rel, body)
	case query != nil:
		return res.LoadLinkWithQuery(ctx, rel, query)
	default:
		return res.LoadLink(ctx, rel)
	}
}

// loadLastRaw mirrors loadLast for raw responses.
func loadLastRaw(ctx context.Context, res *hal.Resource, rel string, query map[string]any, body any, formPayload map[string]any) (*hal.Response, error) {
	switch {
	case formPayload != nil && query != nil:
		return res.LoadLinkWithQueryAndFormRaw(ctx, rel, query, formPayload)
	case formPayload != nil:
		return res.LoadLinkWithFormRaw(ctx, rel, formPayload)
	case body != nil && query != nil:
		return res.LoadLinkWithQueryAndBodyRaw(ctx, rel, query, body)
	case body != nil:
		return res.LoadLinkWithBodyRaw(ctx, rel, body)
	case query != nil:
		return res.LoadLinkWithQueryRaw(ctx, rel, query)
	default:
		return res.LoadLinkRaw(ctx, rel)
	}
}

func writeRaw(cmd *cobra.Command, resp *hal.Response) error {
	ioStreams := iocontext.GetIO(cmd.Context())
	_, err := ioStreams.Out.Write(resp.Body)
	return err
}

// outputResource prints the resource's domain data. Text mode gets
// pretty JSON too: resource payloads have no fixed shape to tabulate.
func outputResource(cmd *cobra.Command, res *hal.Resource) error {
	if isJSON(cmd) {
		return printJSON(cmd, res.GetData())
	}
	ioStreams := iocontext.GetIO(cmd.Context())
	return outfmt.WriteJSON(ioStreams.Out, res.GetData())
}
