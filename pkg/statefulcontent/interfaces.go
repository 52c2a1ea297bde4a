package statefulcontent

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Fetcher retrieves a raw Contentful collection payload. A fetcher is bound to
// one API mode by its host and credentials; the core treats preview and
// delivery fetchers alike.
type Fetcher interface {
	// FetchEntries returns the JSON body of an entries collection response
	FetchEntries(ctx context.Context, query Query) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, query Query) ([]byte, error)

// FetchEntries calls f.
func (f FetcherFunc) FetchEntries(ctx context.Context, query Query) ([]byte, error) {
	return f(ctx, query)
}

// Metrics receives resolution and fetch outcomes.
type Metrics interface {
	// FetchCompleted is called after every fetch, err is nil on success
	FetchCompleted(mode APIMode, contentType string, err error)

	// StateResolved is called with the resolved state of a root entity
	StateResolved(contentType string, state ResourceState)

	// ResolutionSkipped is called when a delivery fetch failed and the
	// entity kept its previous state
	ResolutionSkipped(contentType string, err error)
}

// DefaultInclude is the link depth used for course queries: course, lessons,
// lesson modules and their assets.
const DefaultInclude = 3

// MaxInclude is the deepest link resolution the Contentful API supports.
const MaxInclude = 10

// Query selects entries of one content type.
type Query struct {
	ContentType string
	// ID filters on sys.id when set
	ID Identifier
	// Slug filters on fields.slug equality when set
	Slug string
	// FieldEquals adds further fields.<key>=<value> filters
	FieldEquals map[FieldKey]string
	Include     int
	Locale      string
	Limit       int
}

// Values encodes the query as Contentful URL parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("content_type", q.ContentType)
	if q.ID != "" {
		v.Set("sys.id", string(q.ID))
	}
	if q.Slug != "" {
		v.Set("fields.slug", q.Slug)
	}
	for key, value := range q.FieldEquals {
		v.Set("fields."+string(key), value)
	}
	v.Set("include", strconv.Itoa(q.Include))
	if q.Locale != "" {
		v.Set("locale", q.Locale)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// Key identifies the logical request, independent of API mode.
func (q Query) Key() string {
	parts := []string{q.ContentType}
	if q.ID != "" {
		parts = append(parts, "id="+string(q.ID))
	}
	parts = append(parts, q.Slug, q.Locale)
	keys := make([]string, 0, len(q.FieldEquals))
	for key := range q.FieldEquals {
		keys = append(keys, string(key))
	}
	sort.Strings(keys)
	for _, key := range keys {
		parts = append(parts, key+"="+q.FieldEquals[FieldKey(key)])
	}
	return strings.Join(parts, "/")
}
