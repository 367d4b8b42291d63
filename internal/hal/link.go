package hal

import "sort"

// Link is one invocable transition from a resource: an href plus the
// HTTP method to use. Both are opaque strings; nothing is validated here.
type Link struct {
	Href   string `json:"href"`
	Method string `json:"method"`
}

// LinkInfo is a Link together with its relation name, produced only when
// enumerating a resource's link table.
type LinkInfo struct {
	Rel    string `json:"rel"`
	Href   string `json:"href"`
	Method string `json:"method"`
}

// parseLinks builds a link table from the raw _links value. A missing or
// null value yields a nil table, which is a valid "no links advertised"
// state. Entries that are not objects are skipped; a missing method
// defaults to GET.
func parseLinks(raw any) map[string]Link {
	rels, ok := raw.(map[string]any)
	if !ok || len(rels) == 0 {
		return nil
	}
	table := make(map[string]Link, len(rels))
	for rel, v := range rels {
		obj, ok := v.(map[string]any)
		if !ok {
			continue
		}
		link := Link{Method: "GET"}
		if href, ok := obj["href"].(string); ok {
			link.Href = href
		}
		if method, ok := obj["method"].(string); ok && method != "" {
			link.Method = method
		}
		table[rel] = link
	}
	if len(table) == 0 {
		return nil
	}
	return table
}

// linkInfos returns a snapshot of the table as LinkInfo values, sorted by
// relation name for stable output.
func linkInfos(table map[string]Link) []LinkInfo {
	if len(table) == 0 {
		return nil
	}
	infos := make([]LinkInfo, 0, len(table))
	for rel, link := range table {
		infos = append(infos, LinkInfo{Rel: rel, Href: link.Href, Method: link.Method})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Rel < infos[j].Rel })
	return infos
}
