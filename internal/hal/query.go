package hal

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// composeQuery rewrites the link's query string to exactly the supplied
// key/value pairs. This is a replace, not a merge: any query already on
// the href is dropped. A nil query returns the link unchanged.
func composeQuery(link Link, query map[string]any) (Link, error) {
	if query == nil {
		return link, nil
	}
	u, err := url.Parse(link.Href)
	if err != nil {
		return Link{}, fmt.Errorf("invalid link href %q: %w", link.Href, err)
	}
	values := url.Values{}
	for key, value := range query {
		values.Set(key, queryValue(value))
	}
	u.RawQuery = values.Encode()
	link.Href = u.String()
	return link, nil
}

// queryValue converts a query argument to its string form. Scalars use
// their natural rendering; anything else is JSON-encoded.
func queryValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(data)
	}
}
