package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bytesite/internal/domain/content"
)

func article(slug, date string, published bool, tags ...string) content.Article {
	d, err := time.Parse(time.DateOnly, date)
	if err != nil {
		panic(err)
	}
	return content.Article{
		Meta: content.ArticleMeta{
			Title:     "Title " + slug,
			Slug:      slug,
			Date:      d,
			Tags:      tags,
			Published: published,
		},
		Body: content.Body{Raw: "body of " + slug},
	}
}

func slugs(arts []content.Article) []string {
	out := make([]string, 0, len(arts))
	for _, a := range arts {
		out = append(out, a.Meta.Slug)
	}
	return out
}

func newCatalog(t *testing.T, arts ...content.Article) *Catalog {
	t.Helper()
	st, err := NewStore(arts)
	require.NoError(t, err)
	return New(st)
}

func fixture(t *testing.T) *Catalog {
	return newCatalog(t,
		article("jan", "2024-01-01", true, "go", "release"),
		article("feb", "2024-02-01", true, "go"),
		article("mar", "2024-03-01", true, "privacy"),
		article("apr-draft", "2024-04-01", false, "go", "secret"),
	)
}

func TestNewStore_RejectsDuplicateSlug(t *testing.T) {
	_, err := NewStore([]content.Article{
		article("same", "2024-01-01", true),
		article("same", "2024-02-01", true),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateSlug)
}

func TestNewStore_RejectsEmptySlug(t *testing.T) {
	_, err := NewStore([]content.Article{article(" ", "2024-01-01", true)})
	require.Error(t, err)
}

func TestNewStore_CopiesInput(t *testing.T) {
	in := []content.Article{article("a", "2024-01-01", true, "go")}
	c := newCatalog(t, in...)

	in[0].Meta.Title = "changed"
	in[0].Meta.Tags[0] = "rust"

	got, ok := c.FindBySlug("a")
	require.True(t, ok)
	assert.Equal(t, "Title a", got.Meta.Title)
	assert.Equal(t, []string{"go"}, got.Meta.Tags)
}

func TestQueryResultsDoNotAliasStore(t *testing.T) {
	c := newCatalog(t,
		article("a", "2024-01-01", true, "go", "web"),
		article("b", "2024-02-01", false, "go"),
	)

	got := c.ListPublished()
	require.Len(t, got, 1)
	got[0].Meta.Tags[0] = "mutated"
	got[0].Meta.Title = "mutated"

	byTag := c.ListByTag("go")
	byTag[0].Meta.Tags[1] = "mutated"

	draft, ok := c.FindBySlug("b")
	require.True(t, ok)
	draft.Meta.Tags[0] = "mutated"

	recent := c.ListRecent(1)
	recent[0].Meta.Tags = append(recent[0].Meta.Tags[:0], "mutated")

	again, ok := c.FindBySlug("a")
	require.True(t, ok)
	assert.Equal(t, "Title a", again.Meta.Title)
	assert.Equal(t, []string{"go", "web"}, again.Meta.Tags)
	assert.Equal(t, []string{"go", "web"}, c.ListAllTags())
	assert.Equal(t, []string{"a"}, slugs(c.ListByTag("go")))

	draftAgain, _ := c.FindBySlug("b")
	assert.Equal(t, []string{"go"}, draftAgain.Meta.Tags)
}

func TestListPublished_SortedNewestFirst(t *testing.T) {
	c := fixture(t)
	got := c.ListPublished()
	assert.Equal(t, []string{"mar", "feb", "jan"}, slugs(got))
	for _, a := range got {
		assert.True(t, a.Meta.Published)
	}
}

func TestListPublished_TieBreakBySlug(t *testing.T) {
	c := newCatalog(t,
		article("zeta", "2024-05-01", true),
		article("alpha", "2024-05-01", true),
		article("mid", "2024-05-01", true),
		article("older", "2024-04-30", true),
	)
	assert.Equal(t, []string{"alpha", "mid", "zeta", "older"}, slugs(c.ListPublished()))
}

func TestListPublished_Empty(t *testing.T) {
	c := New(nil)
	assert.Empty(t, c.ListPublished())
	assert.Empty(t, c.ListAllTags())
	assert.Empty(t, c.ListRecent(3))
	_, ok := c.FindBySlug("anything")
	assert.False(t, ok)
}

func TestFindBySlug(t *testing.T) {
	c := fixture(t)

	got, ok := c.FindBySlug("feb")
	require.True(t, ok)
	assert.Equal(t, "feb", got.Meta.Slug)
	assert.Equal(t, "/blog/feb", got.URL())

	_, ok = c.FindBySlug("missing")
	assert.False(t, ok)

	_, ok = c.FindBySlug("FEB")
	assert.False(t, ok, "lookup is exact")
}

// Direct lookup resolves unpublished articles even though every listing
// hides them.
func TestFindBySlug_ResolvesUnpublished(t *testing.T) {
	c := fixture(t)

	got, ok := c.FindBySlug("apr-draft")
	require.True(t, ok)
	assert.False(t, got.Meta.Published)

	assert.NotContains(t, slugs(c.ListPublished()), "apr-draft")
	assert.NotContains(t, slugs(c.ListByTag("go")), "apr-draft")
	assert.NotContains(t, slugs(c.ListRecent(10)), "apr-draft")
}

func TestListByTag(t *testing.T) {
	c := fixture(t)

	assert.Equal(t, []string{"feb", "jan"}, slugs(c.ListByTag("go")))
	assert.Equal(t, []string{"mar"}, slugs(c.ListByTag("privacy")))
	assert.Empty(t, c.ListByTag("secret"), "tag only used by a draft")
	assert.Empty(t, c.ListByTag("nope"))
	assert.Empty(t, c.ListByTag("Go"), "tags match exactly")
}

func TestListAllTags_PublishedOnly(t *testing.T) {
	c := fixture(t)
	assert.Equal(t, []string{"go", "privacy", "release"}, c.ListAllTags())
}

func TestListRecent(t *testing.T) {
	c := fixture(t)

	assert.Equal(t, []string{"mar", "feb"}, slugs(c.ListRecent(2)))
	assert.Equal(t, []string{"mar", "feb", "jan"}, slugs(c.ListRecent(3)))
	assert.Equal(t, []string{"mar", "feb", "jan"}, slugs(c.ListRecent(50)))
	assert.Empty(t, c.ListRecent(0))
	assert.Empty(t, c.ListRecent(-1))
}

func TestListRecent_IsPrefixOfListPublished(t *testing.T) {
	c := fixture(t)
	all := c.ListPublished()
	for n := 0; n <= len(all)+2; n++ {
		got := c.ListRecent(n)
		want := all[:min(n, len(all))]
		assert.Equal(t, slugs(want), slugs(got), "n=%d", n)
	}
}

func TestListRecent_AppendDoesNotLeak(t *testing.T) {
	c := fixture(t)
	recent := c.ListRecent(1)
	_ = append(recent, article("x", "2020-01-01", true))
	assert.Equal(t, []string{"mar", "feb", "jan"}, slugs(c.ListPublished()))
}

func TestTagCounts(t *testing.T) {
	c := fixture(t)
	assert.Equal(t, []TagCount{
		{Name: "go", Count: 2},
		{Name: "privacy", Count: 1},
		{Name: "release", Count: 1},
	}, c.TagCounts())
}

func TestQueries_Idempotent(t *testing.T) {
	c := fixture(t)

	assert.Equal(t, c.ListPublished(), c.ListPublished())
	assert.Equal(t, c.ListByTag("go"), c.ListByTag("go"))
	assert.Equal(t, c.ListAllTags(), c.ListAllTags())
	assert.Equal(t, c.ListRecent(2), c.ListRecent(2))
	assert.Equal(t, c.TagCounts(), c.TagCounts())

	a1, ok1 := c.FindBySlug("jan")
	a2, ok2 := c.FindBySlug("jan")
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, a1, a2)

	assert.Equal(t, 4, c.Len())
}

func TestRecentTwo_SkipsNewerDraft(t *testing.T) {
	c := newCatalog(t,
		article("first", "2024-01-01", true),
		article("second", "2024-02-01", true),
		article("third", "2024-03-01", true),
		article("draft", "2024-04-01", false),
	)

	got := c.ListRecent(2)
	require.Len(t, got, 2)
	assert.Equal(t, "third", got[0].Meta.Slug)
	assert.Equal(t, "second", got[1].Meta.Slug)
}
