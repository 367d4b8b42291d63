package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/halnav/halnav-cli/internal/iocontext"
	"github.com/halnav/halnav-cli/internal/outfmt"
)

func newEmbedsCmd() *cobra.Command {
	var (
		follow []string
		rel    string
	)

	cmd := &cobra.Command{
		Use:     "embeds [path|url]",
		Aliases: []string{"e"},
		Short:   "List or extract embedded resources",
		Long: `Without --rel, lists the embedded relations a resource carries and how
many entries each holds. With --rel, prints the embedded resources of
that relation as a JSON array.`,
		Example: `  # What does the entry point embed?
  halnav embeds

  # Extract the embedded orders
  halnav embeds --rel orders --json`,
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

			ioStreams := iocontext.GetIO(ctx)

			if rel != "" {
				collection := res.GetEmbed(rel)
				items := make([]map[string]any, 0, collection.Len())
				for _, embedded := range collection.GetAllClients() {
					items = append(items, embedded.GetData())
				}
				if isJSON(cmd) {
					return printJSON(cmd, items)
				}
				return outfmt.WriteJSON(ioStreams.Out, items)
			}

			collections := res.GetAllEmbeds()
			if isJSON(cmd) {
				rows := make([]map[string]any, 0, len(collections))
				for _, c := range collections {
					rows = append(rows, map[string]any{
						"rel":   c.Rel(),
						"count": c.Len(),
					})
				}
				return printJSON(cmd, rows)
			}

			f := outfmt.NewFormatter(ctx, ioStreams.Out, ioStreams.ErrOut)
			if len(collections) == 0 {
				f.Empty("no embedded resources")
				return nil
			}
			f.StartTable([]string{"REL", "COUNT"})
			for _, c := range collections {
				f.Row(c.Rel(), strconv.Itoa(c.Len()))
			}
			return f.EndTable()
		}),
	}

	cmd.Flags().StringArrayVarP(&follow, "follow", "f", nil, "Link relation to follow before inspecting (repeatable)")
	cmd.Flags().StringVarP(&rel, "rel", "r", "", "Embedded relation to extract")
	return cmd
}
