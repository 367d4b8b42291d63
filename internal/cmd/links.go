package cmd

import (
	"github.com/spf13/cobra"

	"github.com/halnav/halnav-cli/internal/iocontext"
	"github.com/halnav/halnav-cli/internal/outfmt"
)

func newLinksCmd() *cobra.Command {
	var follow []string

	cmd := &cobra.Command{
		Use:     "links [path|url]",
		Aliases: []string{"l"},
		Short:   "List the link relations a resource offers",
		Example: `  # Relations at the API entry point
  halnav links

  # Relations of a nested resource
  halnav links --follow orders --follow first`,
		Args: cobra.MaximumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
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
			res, err := loadEntry(ctx, t, baseURL, target)
			if err != nil {
				return err
			}
			res, err = followRels(ctx, res, follow)
			if err != nil {
				return err
			}

			infos := res.GetAllLinks()
			if isJSON(cmd) {
				rows := make([]map[string]any, 0, len(infos))
				for _, info := range infos {
					rows = append(rows, map[string]any{
						"rel":    info.Rel,
						"method": info.Method,
						"href":   info.Href,
					})
				}
				return printJSON(cmd, rows)
			}

			ioStreams := iocontext.GetIO(ctx)
			f := outfmt.NewFormatter(ctx, ioStreams.Out, ioStreams.ErrOut)
			if len(infos) == 0 {
				f.Empty("no links")
				return nil
			}
			f.StartTable([]string{"REL", "METHOD", "HREF"})
			for _, info := range infos {
				f.Row(info.Rel, info.Method, info.Href)
			}
			return f.EndTable()
		}),
	}

	cmd.Flags().StringArrayVarP(&follow, "follow", "f", nil, "Link relation to follow before listing (repeatable)")
	return cmd
}
