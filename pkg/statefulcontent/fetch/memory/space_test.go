package memory

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/stateful-content/pkg/statefulcontent"
)

type payload struct {
	Total    int `json:"total"`
	Items    []map[string]any
	Includes struct {
		Entry []map[string]any `json:"Entry"`
		Asset []map[string]any `json:"Asset"`
	} `json:"includes"`
}

func fetch(t *testing.T, s *Space, q statefulcontent.Query) payload {
	t.Helper()
	body, err := s.FetchEntries(context.Background(), q)
	require.NoError(t, err)
	var p payload
	require.NoError(t, json.Unmarshal(body, &p))
	return p
}

func seeded() *Space {
	s := NewSpace()
	s.PutEntry("c1", "course", map[string]any{"title": "Intro", "slug": "intro", "image": AssetLink("a1"), "lessons": Links("l1")})
	s.PutEntry("c2", "course", map[string]any{"title": "Other", "slug": "other"})
	s.PutEntry("l1", "lesson", map[string]any{"title": "Basics", "slug": "basics", "modules": Links("m1")})
	s.PutEntry("m1", "lessonCopy", map[string]any{"copy": "Hello"})
	s.PutAsset("a1", "Cover", "//images.example.com/cover.png")
	return s
}

func TestFetchEntriesFilters(t *testing.T) {
	s := seeded()

	p := fetch(t, s, statefulcontent.Query{ContentType: "course"})
	assert.Equal(t, 2, p.Total)

	p = fetch(t, s, statefulcontent.Query{ContentType: "course", Slug: "intro"})
	require.Len(t, p.Items, 1)

	p = fetch(t, s, statefulcontent.Query{ContentType: "course", ID: "c1"})
	require.Len(t, p.Items, 1)

	p = fetch(t, s, statefulcontent.Query{ContentType: "course", ID: "c1", Slug: "other"})
	assert.Empty(t, p.Items)

	p = fetch(t, s, statefulcontent.Query{ContentType: "course", Limit: 1})
	assert.Len(t, p.Items, 1)

	p = fetch(t, s, statefulcontent.Query{ContentType: "course", FieldEquals: map[statefulcontent.FieldKey]string{"lessons.sys.id": "l1"}})
	require.Len(t, p.Items, 1)

	p = fetch(t, s, statefulcontent.Query{ContentType: "course", FieldEquals: map[statefulcontent.FieldKey]string{"title": "Other"}})
	require.Len(t, p.Items, 1)
}

func TestFetchEntriesIncludes(t *testing.T) {
	s := seeded()

	p := fetch(t, s, statefulcontent.Query{ContentType: "course", Slug: "intro", Include: 1})
	assert.Len(t, p.Includes.Entry, 1)
	assert.Len(t, p.Includes.Asset, 1)

	p = fetch(t, s, statefulcontent.Query{ContentType: "course", Slug: "intro", Include: 2})
	assert.Len(t, p.Includes.Entry, 2)

	p = fetch(t, s, statefulcontent.Query{ContentType: "course", Slug: "intro"})
	assert.Empty(t, p.Includes.Entry)
}

func TestFetchEntriesDecodes(t *testing.T) {
	s := seeded()
	body, err := s.FetchEntries(context.Background(), statefulcontent.Query{ContentType: "course", Slug: "intro", Include: 3})
	require.NoError(t, err)

	coll, err := statefulcontent.DecodeCollection[*statefulcontent.Course](body, 3)
	require.NoError(t, err)
	require.Len(t, coll.Items, 1)
	c := coll.Items[0]
	assert.Equal(t, "https://images.example.com/cover.png", c.Image.URL)
	require.Len(t, c.Lessons, 1)
	require.Len(t, c.Lessons[0].Modules, 1)
}

func TestSpaceMutations(t *testing.T) {
	s := seeded()
	clone := s.Clone()

	require.NoError(t, clone.SetField("c1", "title", "Changed"))
	assert.Error(t, clone.SetField("missing", "title", "x"))
	clone.Delete("c2")

	p := fetch(t, s, statefulcontent.Query{ContentType: "course"})
	assert.Len(t, p.Items, 2)
	assert.Equal(t, "Intro", p.Items[0]["fields"].(map[string]any)["title"])

	p = fetch(t, clone, statefulcontent.Query{ContentType: "course"})
	require.Len(t, p.Items, 1)
	assert.Equal(t, "Changed", p.Items[0]["fields"].(map[string]any)["title"])
}

func TestFailureInjection(t *testing.T) {
	s := seeded()
	boom := errors.New("boom")

	s.FailWith(boom)
	_, err := s.FetchEntries(context.Background(), statefulcontent.Query{ContentType: "course"})
	assert.ErrorIs(t, err, boom)

	s.FailWith(nil)
	var seen []string
	s.SetHook(func(ctx context.Context, q statefulcontent.Query) error {
		seen = append(seen, q.Slug)
		return nil
	})
	_, err = s.FetchEntries(context.Background(), statefulcontent.Query{ContentType: "course", Slug: "intro"})
	require.NoError(t, err)
	assert.Equal(t, []string{"intro"}, seen)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.FetchEntries(ctx, statefulcontent.Query{ContentType: "course"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadFixtures(t *testing.T) {
	fixtures := `{
		"preview": {"entries": [{"id": "c1", "contentType": "course", "fields": {"title": "Draft", "slug": "intro"}}]},
		"delivery": {"entries": [], "assets": [{"id": "a1", "title": "Cover", "url": "https://example.com/a.png"}]}
	}`

	preview, delivery, err := LoadFixtures(strings.NewReader(fixtures))
	require.NoError(t, err)

	p := fetch(t, preview, statefulcontent.Query{ContentType: "course"})
	assert.Len(t, p.Items, 1)
	p = fetch(t, delivery, statefulcontent.Query{ContentType: "course"})
	assert.Empty(t, p.Items)

	_, _, err = LoadFixtures(strings.NewReader("{"))
	assert.Error(t, err)
}
