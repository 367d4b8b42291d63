package hal

// EmbedCollection lazily materializes the embedded documents of one
// relation into Resources. Requesting a relation absent from the embedded
// map yields an empty collection rather than a failure.
type EmbedCollection struct {
	rel       string
	raw       []map[string]any
	transport Transport
}

// Rel returns the relation name this collection was requested under.
func (c *EmbedCollection) Rel() string {
	return c.rel
}

// Len returns the number of embedded documents without materializing them.
func (c *EmbedCollection) Len() int {
	return len(c.raw)
}

// GetAllClients materializes one new Resource per embedded document, in
// source order. Nothing is memoized: every call builds fresh instances
// from the raw documents.
func (c *EmbedCollection) GetAllClients() []*Resource {
	if len(c.raw) == 0 {
		return nil
	}
	clients := make([]*Resource, 0, len(c.raw))
	for _, doc := range c.raw {
		data, links, embeds := splitEnvelope(doc)
		clients = append(clients, &Resource{
			data:      data,
			links:     links,
			embeds:    embeds,
			transport: c.transport,
		})
	}
	return clients
}
