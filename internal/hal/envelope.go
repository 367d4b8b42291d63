package hal

const (
	linksKey    = "_links"
	embeddedKey = "_embedded"
)

// splitEnvelope separates the hypermedia envelope from the domain payload.
// The payload is a fresh map that never contained the envelope keys, so a
// caller holding the original parsed document sees no mutation. A nil
// document yields an empty payload with no links and no embeds.
func splitEnvelope(doc map[string]any) (data map[string]any, links map[string]Link, embeds map[string][]map[string]any) {
	data = make(map[string]any, len(doc))
	for k, v := range doc {
		switch k {
		case linksKey:
			links = parseLinks(v)
		case embeddedKey:
			embeds = parseEmbeds(v)
		default:
			data[k] = v
		}
	}
	return data, links, embeds
}

// parseEmbeds builds the embedded map from the raw _embedded value. Each
// relation holds an ordered list of raw hypermedia documents. A single
// embedded object is treated as a one-element list, matching how HAL
// servers inline singular relations.
func parseEmbeds(raw any) map[string][]map[string]any {
	rels, ok := raw.(map[string]any)
	if !ok || len(rels) == 0 {
		return nil
	}
	embeds := make(map[string][]map[string]any, len(rels))
	for rel, v := range rels {
		switch docs := v.(type) {
		case []any:
			list := make([]map[string]any, 0, len(docs))
			for _, d := range docs {
				if obj, ok := d.(map[string]any); ok {
					list = append(list, obj)
				}
			}
			embeds[rel] = list
		case map[string]any:
			embeds[rel] = []map[string]any{docs}
		}
	}
	if len(embeds) == 0 {
		return nil
	}
	return embeds
}
