package hal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
)

// DocSuffix is appended to a relation name to find its documentation
// link by convention ("orders" documents itself under "orders-doc").
const DocSuffix = "-doc"

// Resource is one successfully parsed hypermedia document: the domain
// payload with its envelope stripped, the link table, and the embedded
// documents. Navigation operations issue a new request through the
// transport and produce a brand-new Resource; instances are transient
// and never shared or cached across requests.
type Resource struct {
	data      map[string]any
	links     map[string]Link
	embeds    map[string][]map[string]any
	transport Transport
}

// Load fetches the resource at url with a GET request and parses it into
// a Resource. This is the entry point for the root of an API.
func Load(ctx context.Context, transport Transport, url string) (*Resource, error) {
	resp, err := fetch(ctx, transport, &Request{Method: http.MethodGet, URL: url})
	if err != nil {
		return nil, err
	}
	return newResource(resp, transport)
}

// LoadRaw fetches url with a GET request and returns the unparsed
// response, bypassing classification and envelope parsing entirely.
func LoadRaw(ctx context.Context, transport Transport, url string) (*Response, error) {
	return fetch(ctx, transport, &Request{Method: http.MethodGet, URL: url})
}

// fetch sends one request through the transport with the hypermedia
// Accept header set on every exchange.
func fetch(ctx context.Context, transport Transport, req *Request) (*Response, error) {
	if req.Header == nil {
		req.Header = make(map[string]string, 2)
	}
	req.Header["Accept"] = MediaTypeHal
	resp, err := transport.Fetch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// newResource classifies the response and splits the envelope into a
// Resource. Non-success responses and unsupported content types surface
// as typed errors.
func newResource(resp *Response, transport Transport) (*Resource, error) {
	doc, err := classify(resp)
	if err != nil {
		return nil, err
	}
	data, links, embeds := splitEnvelope(doc)
	return &Resource{
		data:      data,
		links:     links,
		embeds:    embeds,
		transport: transport,
	}, nil
}

// GetData returns the domain payload with the envelope keys removed. The
// same map is returned on every call; callers share it, so treat it as
// read-only.
func (r *Resource) GetData() map[string]any {
	return r.data
}

// HasLink reports whether the link table contains rel. Relation names
// compare by exact string equality.
func (r *Resource) HasLink(rel string) bool {
	_, ok := r.links[rel]
	return ok
}

// GetLink resolves rel in the link table. Returns a *RelationError when
// the relation is absent.
func (r *Resource) GetLink(rel string) (Link, error) {
	link, ok := r.links[rel]
	if !ok {
		return Link{}, &RelationError{Rel: rel}
	}
	return link, nil
}

// GetAllLinks returns a snapshot of the link table as LinkInfo values,
// sorted by relation name.
func (r *Resource) GetAllLinks() []LinkInfo {
	return linkInfos(r.links)
}

// HasLinkDoc reports whether a documentation link exists for rel by the
// DocSuffix convention.
func (r *Resource) HasLinkDoc(rel string) bool {
	return r.HasLink(rel + DocSuffix)
}

// LoadLinkDoc follows the documentation link for rel.
func (r *Resource) LoadLinkDoc(ctx context.Context, rel string) (*Resource, error) {
	return r.LoadLink(ctx, rel+DocSuffix)
}

// HasEmbed reports whether the embedded map contains rel.
func (r *Resource) HasEmbed(rel string) bool {
	_, ok := r.embeds[rel]
	return ok
}

// GetEmbed returns the embed collection for rel. An absent relation
// yields an empty collection, never a failure.
func (r *Resource) GetEmbed(rel string) *EmbedCollection {
	return &EmbedCollection{rel: rel, raw: r.embeds[rel], transport: r.transport}
}

// GetAllEmbeds returns one collection per embedded relation, sorted by
// relation name.
func (r *Resource) GetAllEmbeds() []*EmbedCollection {
	if len(r.embeds) == 0 {
		return nil
	}
	rels := make([]string, 0, len(r.embeds))
	for rel := range r.embeds {
		rels = append(rels, rel)
	}
	sort.Strings(rels)
	collections := make([]*EmbedCollection, 0, len(rels))
	for _, rel := range rels {
		collections = append(collections, r.GetEmbed(rel))
	}
	return collections
}

// LoadLink follows rel with no query rewrite and no body.
func (r *Resource) LoadLink(ctx context.Context, rel string) (*Resource, error) {
	return r.load(ctx, rel, nil, nil)
}

// LoadLinkWithQuery follows rel after replacing the link's query string
// with the supplied arguments.
func (r *Resource) LoadLinkWithQuery(ctx context.Context, rel string, query map[string]any) (*Resource, error) {
	return r.load(ctx, rel, query, nil)
}

// LoadLinkWithBody follows rel sending payload as a JSON request body.
func (r *Resource) LoadLinkWithBody(ctx context.Context, rel string, payload any) (*Resource, error) {
	return r.load(ctx, rel, nil, jsonBody{payload})
}

// LoadLinkWithQueryAndBody combines the query rewrite with a JSON body.
func (r *Resource) LoadLinkWithQueryAndBody(ctx context.Context, rel string, query map[string]any, payload any) (*Resource, error) {
	return r.load(ctx, rel, query, jsonBody{payload})
}

// LoadLinkWithForm follows rel sending payload flattened into a multipart
// form body, used for file uploads.
func (r *Resource) LoadLinkWithForm(ctx context.Context, rel string, payload map[string]any) (*Resource, error) {
	return r.load(ctx, rel, nil, formBody{payload})
}

// LoadLinkWithQueryAndForm combines the query rewrite with a multipart
// form body.
func (r *Resource) LoadLinkWithQueryAndForm(ctx context.Context, rel string, query map[string]any, payload map[string]any) (*Resource, error) {
	return r.load(ctx, rel, query, formBody{payload})
}

// LoadLinkRaw follows rel and returns the unparsed response.
func (r *Resource) LoadLinkRaw(ctx context.Context, rel string) (*Response, error) {
	return r.doRequest(ctx, rel, nil, nil)
}

// LoadLinkWithQueryRaw follows rel with a query rewrite and returns the
// unparsed response.
func (r *Resource) LoadLinkWithQueryRaw(ctx context.Context, rel string, query map[string]any) (*Response, error) {
	return r.doRequest(ctx, rel, query, nil)
}

// LoadLinkWithBodyRaw follows rel with a JSON body and returns the
// unparsed response.
func (r *Resource) LoadLinkWithBodyRaw(ctx context.Context, rel string, payload any) (*Response, error) {
	return r.doRequest(ctx, rel, nil, jsonBody{payload})
}

// LoadLinkWithQueryAndBodyRaw combines query rewrite and JSON body,
// returning the unparsed response.
func (r *Resource) LoadLinkWithQueryAndBodyRaw(ctx context.Context, rel string, query map[string]any, payload any) (*Response, error) {
	return r.doRequest(ctx, rel, query, jsonBody{payload})
}

// LoadLinkWithFormRaw follows rel with a multipart form body and returns
// the unparsed response.
func (r *Resource) LoadLinkWithFormRaw(ctx context.Context, rel string, payload map[string]any) (*Response, error) {
	return r.doRequest(ctx, rel, nil, formBody{payload})
}

// LoadLinkWithQueryAndFormRaw combines query rewrite and form body,
// returning the unparsed response.
func (r *Resource) LoadLinkWithQueryAndFormRaw(ctx context.Context, rel string, query map[string]any, payload map[string]any) (*Response, error) {
	return r.doRequest(ctx, rel, query, formBody{payload})
}

// load follows rel and parses the outcome into a new Resource.
func (r *Resource) load(ctx context.Context, rel string, query map[string]any, body requestBody) (*Resource, error) {
	resp, err := r.doRequest(ctx, rel, query, body)
	if err != nil {
		return nil, err
	}
	return newResource(resp, r.transport)
}

// doRequest resolves rel, applies the query rewrite, encodes the body,
// and performs exactly one exchange through the transport.
func (r *Resource) doRequest(ctx context.Context, rel string, query map[string]any, body requestBody) (*Response, error) {
	link, err := r.GetLink(rel)
	if err != nil {
		return nil, err
	}
	link, err = composeQuery(link, query)
	if err != nil {
		return nil, err
	}

	req := &Request{Method: link.Method, URL: link.Href}
	if body != nil {
		data, contentType, err := body.encode()
		if err != nil {
			return nil, err
		}
		req.Body = bytes.NewReader(data)
		if contentType != "" {
			req.Header = map[string]string{"Content-Type": contentType}
		}
	}
	return fetch(ctx, r.transport, req)
}

// requestBody encodes a navigation payload into body bytes plus the
// content type to send, if any.
type requestBody interface {
	encode() ([]byte, string, error)
}

type jsonBody struct {
	payload any
}

func (b jsonBody) encode() ([]byte, string, error) {
	data, err := json.Marshal(b.payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal request body: %w", err)
	}
	return data, MediaTypeJSON, nil
}

type formBody struct {
	payload map[string]any
}

func (b formBody) encode() ([]byte, string, error) {
	return encodeForm(b.payload)
}
