// Package memory provides an in-memory Contentful space implementing
// statefulcontent.Fetcher. It answers entries queries with payloads shaped
// like the Contentful delivery and preview APIs, including linked entries
// and assets up to the requested include depth.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/tendant/stateful-content/pkg/statefulcontent"
)

type entry struct {
	ID          string         `json:"id"`
	ContentType string         `json:"contentType"`
	Fields      map[string]any `json:"fields"`
}

type asset struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Space is an in-memory set of entries and assets for one API mode.
type Space struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]entry
	assets  map[string]asset
	err     error
	hook    func(ctx context.Context, query statefulcontent.Query) error
}

// NewSpace returns an empty space.
func NewSpace() *Space {
	return &Space{
		entries: make(map[string]entry),
		assets:  make(map[string]asset),
	}
}

// Link returns an entry link value for use in fields.
func Link(id string) map[string]any {
	return map[string]any{"sys": map[string]any{"type": "Link", "linkType": "Entry", "id": id}}
}

// AssetLink returns an asset link value for use in fields.
func AssetLink(id string) map[string]any {
	return map[string]any{"sys": map[string]any{"type": "Link", "linkType": "Asset", "id": id}}
}

// Links returns an array of entry links.
func Links(ids ...string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = Link(id)
	}
	return out
}

// PutEntry adds or replaces an entry. Entries are returned in insertion order.
func (s *Space) PutEntry(id, contentType string, fields map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		s.order = append(s.order, id)
	}
	cp := make(map[string]any, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	s.entries[id] = entry{ID: id, ContentType: contentType, Fields: cp}
}

// SetField changes a single field of an existing entry.
func (s *Space) SetField(id, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("entry %s not found", id)
	}
	fields := make(map[string]any, len(e.Fields)+1)
	for k, v := range e.Fields {
		fields[k] = v
	}
	fields[key] = value
	e.Fields = fields
	s.entries[id] = e
	return nil
}

// PutAsset adds or replaces an asset.
func (s *Space) PutAsset(id, title, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[id] = asset{ID: id, Title: title, URL: url}
}

// Delete removes an entry or asset.
func (s *Space) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.assets, id)
	if _, ok := s.entries[id]; !ok {
		return
	}
	delete(s.entries, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
}

// Clone returns an independent copy of the space, handy for deriving a
// preview space from a published one.
func (s *Space) Clone() *Space {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := NewSpace()
	out.order = append(out.order, s.order...)
	for id, e := range s.entries {
		fields := make(map[string]any, len(e.Fields))
		for k, v := range e.Fields {
			fields[k] = v
		}
		out.entries[id] = entry{ID: e.ID, ContentType: e.ContentType, Fields: fields}
	}
	for id, a := range s.assets {
		out.assets[id] = a
	}
	return out
}

// FailWith makes every following fetch return err. A nil err clears it.
func (s *Space) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// SetHook installs a function run at the start of every fetch. A non-nil
// return value fails the fetch. Tests use it to block or observe requests.
func (s *Space) SetHook(hook func(ctx context.Context, query statefulcontent.Query) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = hook
}

// FetchEntries implements statefulcontent.Fetcher.
func (s *Space) FetchEntries(ctx context.Context, query statefulcontent.Query) ([]byte, error) {
	s.mu.RLock()
	hook, failure := s.hook, s.err
	s.mu.RUnlock()

	if hook != nil {
		if err := hook(ctx, query); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if failure != nil {
		return nil, failure
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []entry
	for _, id := range s.order {
		e := s.entries[id]
		if e.ContentType != query.ContentType || !s.matches(e, query) {
			continue
		}
		items = append(items, e)
		if query.Limit > 0 && len(items) == query.Limit {
			break
		}
	}

	includedEntries, includedAssets := s.includes(items, query.Include)

	body := map[string]any{
		"sys":   map[string]any{"type": "Array"},
		"total": len(items),
		"skip":  0,
		"limit": query.Limit,
		"items": s.render(items, query.Locale),
		"includes": map[string]any{
			"Entry": s.render(includedEntries, query.Locale),
			"Asset": renderAssets(includedAssets),
		},
	}
	return json.Marshal(body)
}

func (s *Space) matches(e entry, query statefulcontent.Query) bool {
	if query.ID != "" && statefulcontent.Identifier(e.ID) != query.ID {
		return false
	}
	if query.Slug != "" && e.Fields["slug"] != query.Slug {
		return false
	}
	for key, want := range query.FieldEquals {
		k := string(key)
		if field, ok := strings.CutSuffix(k, ".sys.id"); ok {
			if !containsLink(e.Fields[field], want) {
				return false
			}
			continue
		}
		if fmt.Sprint(e.Fields[k]) != want {
			return false
		}
	}
	return true
}

// includes walks links breadth first, depth levels deep.
func (s *Space) includes(items []entry, depth int) ([]entry, []asset) {
	seen := make(map[string]bool, len(items))
	for _, e := range items {
		seen[e.ID] = true
	}
	var entries []entry
	var assets []asset
	frontier := items
	for level := 0; level < depth && len(frontier) > 0; level++ {
		var next []entry
		for _, e := range frontier {
			for _, link := range linksIn(e.Fields) {
				if seen[link.id] {
					continue
				}
				seen[link.id] = true
				if link.asset {
					if a, ok := s.assets[link.id]; ok {
						assets = append(assets, a)
					}
					continue
				}
				if target, ok := s.entries[link.id]; ok {
					entries = append(entries, target)
					next = append(next, target)
				}
			}
		}
		frontier = next
	}
	return entries, assets
}

func (s *Space) render(entries []entry, locale string) []any {
	out := make([]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"sys": map[string]any{
				"id":     e.ID,
				"type":   "Entry",
				"locale": locale,
				"contentType": map[string]any{
					"sys": map[string]any{"type": "Link", "linkType": "ContentType", "id": e.ContentType},
				},
			},
			"fields": e.Fields,
		})
	}
	return out
}

func renderAssets(assets []asset) []any {
	out := make([]any, 0, len(assets))
	for _, a := range assets {
		out = append(out, map[string]any{
			"sys": map[string]any{"id": a.ID, "type": "Asset"},
			"fields": map[string]any{
				"title": a.Title,
				"file":  map[string]any{"url": a.URL},
			},
		})
	}
	return out
}

type linkRef struct {
	id    string
	asset bool
}

func linksIn(fields map[string]any) []linkRef {
	var out []linkRef
	for _, v := range fields {
		out = append(out, linksOf(v)...)
	}
	return out
}

func linksOf(v any) []linkRef {
	switch t := v.(type) {
	case map[string]any:
		sys, ok := t["sys"].(map[string]any)
		if !ok || sys["type"] != "Link" {
			return nil
		}
		id, _ := sys["id"].(string)
		return []linkRef{{id: id, asset: sys["linkType"] == "Asset"}}
	case []any:
		var out []linkRef
		for _, item := range t {
			out = append(out, linksOf(item)...)
		}
		return out
	}
	return nil
}

func containsLink(v any, id string) bool {
	for _, l := range linksOf(v) {
		if l.id == id {
			return true
		}
	}
	return false
}

type fixtureSpace struct {
	Entries []entry `json:"entries"`
	Assets  []asset `json:"assets"`
}

// Fixtures is the on-disk format read by LoadFixtures.
type Fixtures struct {
	Preview  fixtureSpace `json:"preview"`
	Delivery fixtureSpace `json:"delivery"`
}

// LoadFixtures reads a preview and a delivery space from JSON.
func LoadFixtures(r io.Reader) (preview, delivery *Space, err error) {
	var f Fixtures
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, nil, fmt.Errorf("failed to decode fixtures: %w", err)
	}
	return f.Preview.space(), f.Delivery.space(), nil
}

func (f fixtureSpace) space() *Space {
	s := NewSpace()
	for _, e := range f.Entries {
		s.PutEntry(e.ID, e.ContentType, e.Fields)
	}
	for _, a := range f.Assets {
		s.PutAsset(a.ID, a.Title, a.URL)
	}
	return s
}
