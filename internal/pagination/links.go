// Link header construction. Given the current page and the collection's key
// extrema, up to four navigation relations are emitted, each reusing the
// request's query string with only the cursor replaced:
//
//	first: after=min-1   (page starting at the very first item)
//	last:  before=max+1  (page ending at the very last item)
//	next:  after=<key of last item in page>
//	prev:  before=<key of first item in page>
//
// When the current page is empty but a cursor was supplied (every candidate
// row between the cursor and the page boundary was filtered out), the
// adjacent boundary is derived from the cursor itself: next falls back to
// after=before-1 and prev to before=after+1, since there is no row to read a
// key from.
package pagination

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Extrema is the result of a collection's cheap min/max key query. Empty
// reports a collection with no rows, in which case no first/last links are
// emitted.
type Extrema struct {
	Min, Max int
	Empty    bool
}

// LinksFor renders the Link header value for one page of src-derived items.
// path is the request path, query the original query values (before/after
// included; they are replaced per relation). before/after are the cursors as
// requested. An empty string means no links apply (empty collection, no
// cursors).
func LinksFor[T any](src Source[T], page Page[T], path string, query url.Values, before, after *int, ext Extrema) string {
	type link struct {
		rel string
		key int
		// cursor parameter the relation sets: "after" or "before"
		param string
	}
	var links []link

	if !ext.Empty {
		links = append(links,
			link{rel: "first", param: "after", key: ext.Min - 1},
			link{rel: "last", param: "before", key: ext.Max + 1},
		)
	}

	if page.HasNext {
		if n := len(page.Items); n > 0 {
			links = append(links, link{rel: "next", param: "after", key: src.Key(page.Items[n-1])})
		} else if before != nil {
			links = append(links, link{rel: "next", param: "after", key: *before - 1})
		}
	}
	if page.HasPrev {
		if len(page.Items) > 0 {
			links = append(links, link{rel: "prev", param: "before", key: src.Key(page.Items[0])})
		} else if after != nil {
			links = append(links, link{rel: "prev", param: "before", key: *after + 1})
		}
	}

	if len(links) == 0 {
		return ""
	}
	sort.Slice(links, func(i, j int) bool { return links[i].rel < links[j].rel })

	parts := make([]string, 0, len(links))
	for _, l := range links {
		q := cloneValues(query)
		q.Del("before")
		q.Del("after")
		q.Set(l.param, strconv.Itoa(l.key))
		parts = append(parts, "<"+path+"?"+q.Encode()+">; rel="+l.rel)
	}
	return strings.Join(parts, ", ")
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
