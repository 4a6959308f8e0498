package internal

import (
	"context"
	"testing"

	"github.com/bcms/bcms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolverFixture() (*ContentResolver, *MemoryRepository) {
	repo := NewMemoryRepository()
	repo.PutLanguage(&bcms.Language{ID: "l-en", Code: "en", Name: "English", NativeName: "English", Default: true})
	repo.PutLanguage(&bcms.Language{ID: "l-de", Code: "de", Name: "German", NativeName: "Deutsch"})
	return NewContentResolver(memoryRepositories(repo)), repo
}

func TestParse_Primitives(t *testing.T) {
	resolver, _ := newResolverFixture()
	props := []bcms.Prop{
		stringProp("p-title", "title", false),
		stringProp("p-tags", "tags", true),
		numberProp("p-count", "count"),
		enumProp("p-size", "size", "S", "M", "L"),
	}
	values := []bcms.PropValue{
		{ID: "p-title", Data: []string{"Hello"}},
		{ID: "p-tags", Data: []string{"a", "b"}},
		{ID: "p-count", Data: []int{7}},
		{ID: "p-size", Data: []string{"M"}},
	}

	tree := resolver.Parse(context.Background(), bcms.ParseRequest{Props: props, Values: values, MaxDepth: 1, Level: "props"})

	assert.Equal(t, "Hello", tree["title"])
	assert.Equal(t, []any{"a", "b"}, tree["tags"])
	assert.Equal(t, float64(7), tree["count"])
	assert.Equal(t, map[string]any{"items": []string{"S", "M", "L"}, "selected": "M"}, tree["size"])
}

func TestParse_MediaLeniency(t *testing.T) {
	resolver, repo := newResolverFixture()
	repo.PutMedia(&bcms.Media{ID: "m-1", Name: "cat.png", MimeType: "image/png", Path: "animals", AltText: "A cat", Width: 10, Height: 20})
	props := []bcms.Prop{mediaProp("p-cover", "cover", false), mediaProp("p-gallery", "gallery", true), mediaProp("p-photo", "photo", false)}
	values := []bcms.PropValue{
		{ID: "p-cover", Data: []bcms.PropMediaRef{{ID: "m-missing"}}},
		{ID: "p-gallery", Data: []bcms.PropMediaRef{{ID: "m-missing"}, {ID: "m-1", AltText: "Override"}}},
		{ID: "p-photo", Data: []bcms.PropMediaRef{{ID: "m-1"}}},
	}

	tree := resolver.Parse(context.Background(), bcms.ParseRequest{Props: props, Values: values, MaxDepth: 1, Level: "props"})

	_, hasCover := tree["cover"]
	assert.False(t, hasCover)

	gallery, ok := tree["gallery"].([]any)
	require.True(t, ok)
	require.Len(t, gallery, 1)
	item := gallery[0].(map[string]any)
	assert.Equal(t, "m-1", item["_id"])
	assert.Equal(t, "Override", item["altText"])
	assert.Equal(t, "https://cdn.example.com/animals/cat.png", item["src"])

	photo, ok := tree["photo"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "A cat", photo["altText"])
	assert.Equal(t, 10, photo["width"])
}

func TestParse_MediaLookupFailureIsOmitted(t *testing.T) {
	repos := memoryRepositories(NewMemoryRepository())
	repos.Media = brokenRepository{}
	resolver := NewContentResolver(repos)

	tree := resolver.Parse(context.Background(), bcms.ParseRequest{
		Props:  []bcms.Prop{mediaProp("p", "cover", false)},
		Values: []bcms.PropValue{{ID: "p", Data: []bcms.PropMediaRef{{ID: "m"}}}},
		Level:  "props",
	})
	assert.Empty(t, tree)
}

func TestParse_GroupPointer(t *testing.T) {
	resolver, repo := newResolverFixture()
	repo.PutGroup(&bcms.Group{ID: "g-slide", Label: "Slide", Props: []bcms.Prop{stringProp("s-caption", "caption", false)}})
	props := []bcms.Prop{
		groupPointerProp("p-slides", "slides", "g-slide", true),
		groupPointerProp("p-hero", "hero", "g-slide", false),
		groupPointerProp("p-missing", "missing", "g-missing", false),
	}
	data := groupValue("g-slide",
		[]bcms.PropValue{{ID: "s-caption", Data: []string{"one"}}},
		[]bcms.PropValue{{ID: "s-caption", Data: []string{"two"}}},
	)
	values := []bcms.PropValue{
		{ID: "p-slides", Data: data},
		{ID: "p-hero", Data: data},
		{ID: "p-missing", Data: groupValue("g-missing")},
	}

	// Group nesting does not consume depth, so it resolves even at MaxDepth 0.
	tree := resolver.Parse(context.Background(), bcms.ParseRequest{Props: props, Values: values, MaxDepth: 0, Level: "props"})

	assert.Equal(t, []bcms.ResolvedTree{{"caption": "one"}, {"caption": "two"}}, tree["slides"])
	assert.Equal(t, bcms.ResolvedTree{"caption": "one"}, tree["hero"])
	assert.NotContains(t, tree, "missing")
}

func TestParse_EntryPointerDepth(t *testing.T) {
	resolver, repo := newResolverFixture()
	repo.PutTemplate(&bcms.Template{ID: "t-node", Props: append(titleSlugProps(), entryPointerProp("p-next", "next", "t-node", false))})

	node := func(id, title, next string) *bcms.Entry {
		return &bcms.Entry{ID: id, TemplateID: "t-node", Meta: []bcms.EntryMeta{{Lng: "en", Props: []bcms.PropValue{
			{ID: "p-title", Data: []string{title}},
			{ID: "p-slug", Data: []string{id}},
			{ID: "p-next", Data: []string{next}},
		}}}}
	}
	repo.PutEntry(node("e-b", "B", "e-c"))
	repo.PutEntry(node("e-c", "C", "e-d"))
	a := node("e-a", "A", "e-b")
	template, _ := repo.FindTemplateByID(context.Background(), "t-node")

	tree := resolver.Parse(context.Background(), bcms.ParseRequest{
		Props:    template.Props,
		Values:   a.Meta[0].Props,
		MaxDepth: 1,
		Level:    "props",
	})

	next, ok := tree["next"].(bcms.ResolvedTree)
	require.True(t, ok)
	assert.Equal(t, "e-b", next["_id"])

	b, ok := next["en"].(bcms.ResolvedTree)
	require.True(t, ok)
	assert.Equal(t, "B", b["title"])
	assert.Equal(t, "e-c", b["next"])
}

func TestParse_EntryPointerLanguages(t *testing.T) {
	resolver, repo := newResolverFixture()
	repo.PutTemplate(&bcms.Template{ID: "t-author", Props: titleSlugProps()})
	repo.PutEntry(&bcms.Entry{ID: "e-author", TemplateID: "t-author", Meta: []bcms.EntryMeta{
		{Lng: "en", Props: []bcms.PropValue{{ID: "p-title", Data: []string{"Jane"}}, {ID: "p-slug", Data: []string{"jane"}}}},
		{Lng: "de", Props: []bcms.PropValue{{ID: "p-title", Data: []string{"Johanna"}}, {ID: "p-slug", Data: []string{"johanna"}}}},
		{Lng: "xx", Props: []bcms.PropValue{}},
	}})
	repo.PutEntry(&bcms.Entry{ID: "e-orphan", TemplateID: "t-gone"})
	props := []bcms.Prop{entryPointerProp("p-authors", "authors", "t-author", true)}
	values := []bcms.PropValue{{ID: "p-authors", Data: []string{"e-missing", "e-author", "e-orphan"}}}
	ctx := context.Background()

	tree := resolver.Parse(ctx, bcms.ParseRequest{Props: props, Values: values, MaxDepth: 2, Level: "props"})
	authors, ok := tree["authors"].([]bcms.ResolvedTree)
	require.True(t, ok)
	require.Len(t, authors, 1)
	assert.Equal(t, "e-author", authors[0]["_id"])
	assert.Contains(t, authors[0], "en")
	assert.Contains(t, authors[0], "de")
	assert.NotContains(t, authors[0], "xx")

	tree = resolver.Parse(ctx, bcms.ParseRequest{Props: props, Values: values, MaxDepth: 2, Level: "props", OnlyLanguage: "de"})
	authors = tree["authors"].([]bcms.ResolvedTree)
	require.Len(t, authors, 1)
	assert.NotContains(t, authors[0], "en")
	assert.Equal(t, "Johanna", authors[0]["de"].(bcms.ResolvedTree)["title"])

	tree = resolver.Parse(ctx, bcms.ParseRequest{Props: props, Values: values, MaxDepth: 0, Level: "props"})
	assert.Equal(t, []string{"e-missing", "e-author", "e-orphan"}, tree["authors"])
}

func TestParse_MissingValueIsOmitted(t *testing.T) {
	resolver, _ := newResolverFixture()
	props := []bcms.Prop{stringProp("a", "a", false), stringProp("b", "b", false)}

	tree := resolver.Parse(context.Background(), bcms.ParseRequest{
		Props:  props,
		Values: []bcms.PropValue{{ID: "b", Data: []string{"x"}}},
		Level:  "props",
	})
	assert.Equal(t, bcms.ResolvedTree{"b": "x"}, tree)
}
