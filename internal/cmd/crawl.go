package cmd

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/halnav/halnav-cli/internal/hal"
	"github.com/halnav/halnav-cli/internal/iocontext"
	"github.com/halnav/halnav-cli/internal/outfmt"
)

// crawlResult describes one visited resource.
type crawlResult struct {
	URL    string   `json:"url"`
	Depth  int      `json:"depth"`
	Rels   []string `json:"rels,omitempty"`
	Embeds int      `json:"embeds,omitempty"`
	Error  string   `json:"error,omitempty"`
}

func newCrawlCmd() *cobra.Command {
	var (
		depth       int
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "crawl [path|url]",
		Short: "Walk the link graph breadth-first and map reachable resources",
		Long: `Starting from the entry point (or the given path/URL), follow every GET
link up to the given depth and report each reachable resource with the
relations it offers. Fetches within one depth level run concurrently.`,
		Example: `  # Map two levels of the API
  halnav crawl --depth 2

  # Wider crawl with more parallel fetches
  halnav crawl --depth 3 --concurrency 8 --json`,
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
			startURL, err := resolveTarget(baseURL, target)
			if err != nil {
				return err
			}

			results, err := crawl(ctx, t, startURL, depth, concurrency)
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, results)
			}

			ioStreams := iocontext.GetIO(ctx)
			f := outfmt.NewFormatter(ctx, ioStreams.Out, ioStreams.ErrOut)
			f.StartTable([]string{"DEPTH", "URL", "LINKS", "EMBEDS", "ERROR"})
			for _, r := range results {
				f.Row(strconv.Itoa(r.Depth), r.URL, strconv.Itoa(len(r.Rels)), strconv.Itoa(r.Embeds), r.Error)
			}
			return f.EndTable()
		}),
	}

	cmd.Flags().IntVar(&depth, "depth", 2, "How many link hops to follow from the start")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Parallel fetches per depth level")
	return cmd
}

// crawl visits the link graph level by level. Each URL is fetched once;
// fetch failures are recorded per resource and do not stop the crawl.
func crawl(ctx context.Context, t hal.Transport, startURL string, depth, concurrency int) ([]crawlResult, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	var (
		mu      sync.Mutex
		results []crawlResult
	)
	startURL = canonicalURL(startURL)
	visited := map[string]bool{startURL: true}
	frontier := []string{startURL}

	for level := 0; level <= depth && len(frontier) > 0; level++ {
		var nextMu sync.Mutex
		var next []string

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)

		for _, u := range frontier {
			u := u
			g.Go(func() error {
				res, err := hal.Load(gctx, t, u)
				if err != nil {
					mu.Lock()
					results = append(results, crawlResult{URL: u, Depth: level, Error: err.Error()})
					mu.Unlock()
					if gctx.Err() != nil {
						return gctx.Err()
					}
					return nil
				}

				result := crawlResult{URL: u, Depth: level}
				for _, c := range res.GetAllEmbeds() {
					result.Embeds += c.Len()
				}
				for _, info := range res.GetAllLinks() {
					result.Rels = append(result.Rels, info.Rel)
					if level == depth || info.Method != http.MethodGet || info.Rel == "self" {
						continue
					}
					href := resolveHref(u, info.Href)
					if href == "" {
						continue
					}
					nextMu.Lock()
					if !visited[href] {
						visited[href] = true
						next = append(next, href)
					}
					nextMu.Unlock()
				}
				mu.Lock()
				results = append(results, result)
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		sort.Strings(next)
		frontier = next
	}

	sortResults(results)
	return results, nil
}

// resolveHref makes a link href absolute relative to the document it
// came from. Returns "" for hrefs that cannot be resolved.
func resolveHref(docURL, href string) string {
	base, err := url.Parse(docURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	canonicalize(resolved)
	return resolved.String()
}

// canonicalURL normalizes a URL so the visited set treats "http://h"
// and "http://h/" as the same resource.
func canonicalURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	canonicalize(u)
	return u.String()
}

func canonicalize(u *url.URL) {
	if u.Path == "" {
		u.Path = "/"
	}
	u.Fragment = ""
}

func sortResults(results []crawlResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Depth != results[j].Depth {
			return results[i].Depth < results[j].Depth
		}
		return results[i].URL < results[j].URL
	})
}
