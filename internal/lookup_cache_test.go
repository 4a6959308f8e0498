package internal

import (
	"context"
	"testing"
	"time"

	"github.com/bcms/bcms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingGroups counts lookups reaching the backend.
type countingGroups struct {
	*MemoryRepository
	calls int
}

func (c *countingGroups) FindGroupByID(ctx context.Context, id string) (*bcms.Group, error) {
	c.calls++
	return c.MemoryRepository.FindGroupByID(ctx, id)
}

func TestCachedRepositories_ServesHitsFromCache(t *testing.T) {
	backend := &countingGroups{MemoryRepository: NewMemoryRepository()}
	backend.PutGroup(&bcms.Group{ID: "g", Label: "G"})
	repos := memoryRepositories(backend.MemoryRepository)
	repos.Groups = backend

	cached := NewCachedRepositories(repos, time.Minute)
	groups := cached.Repositories().Groups
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		group, err := groups.FindGroupByID(ctx, "g")
		require.NoError(t, err)
		assert.Equal(t, "G", group.Label)
	}
	assert.Equal(t, 1, backend.calls)

	cached.InvalidateGroup("g")
	_, err := groups.FindGroupByID(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, 2, backend.calls)
}

func TestCachedRepositories_AbsentIsNotCached(t *testing.T) {
	backend := &countingGroups{MemoryRepository: NewMemoryRepository()}
	repos := memoryRepositories(backend.MemoryRepository)
	repos.Groups = backend
	groups := NewCachedRepositories(repos, time.Minute).Repositories().Groups
	ctx := context.Background()

	group, err := groups.FindGroupByID(ctx, "g")
	require.NoError(t, err)
	assert.Nil(t, group)

	backend.PutGroup(&bcms.Group{ID: "g", Label: "Late"})
	group, err = groups.FindGroupByID(ctx, "g")
	require.NoError(t, err)
	require.NotNil(t, group)
	assert.Equal(t, "Late", group.Label)
	assert.Equal(t, 2, backend.calls)
}

func TestLookupCache_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := newLookupCache(time.Second, cloneMedia)
	cache.nowFunc = func() time.Time { return now }
	calls := 0
	load := func(context.Context, string) (*bcms.Media, error) {
		calls++
		return &bcms.Media{ID: "m"}, nil
	}

	_, _ = cache.get(context.Background(), "m", load)
	_, _ = cache.get(context.Background(), "m", load)
	assert.Equal(t, 1, calls)

	now = now.Add(2 * time.Second)
	_, _ = cache.get(context.Background(), "m", load)
	assert.Equal(t, 2, calls)
}

func TestCachedRepositories_CopiesOnRead(t *testing.T) {
	repo := NewMemoryRepository()
	repo.PutTemplate(&bcms.Template{ID: "t", Props: titleSlugProps()})
	templates := NewCachedRepositories(memoryRepositories(repo), time.Minute).Repositories().Templates
	ctx := context.Background()

	first, err := templates.FindTemplateByID(ctx, "t")
	require.NoError(t, err)
	first.Props[0].Name = "mutated"

	second, err := templates.FindTemplateByID(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, "title", second.Props[0].Name)
}

func TestCachedRepositories_EngineUsesCache(t *testing.T) {
	repo := NewMemoryRepository()
	repo.PutLanguage(&bcms.Language{Code: "en"})
	repo.PutTemplate(&bcms.Template{ID: "t", Props: titleSlugProps()})
	engine := NewPropEngine(NewCachedRepositories(memoryRepositories(repo), time.Minute).Repositories(), nil)

	entry := &bcms.Entry{ID: "e", TemplateID: "t", Meta: []bcms.EntryMeta{{Lng: "en", Props: []bcms.PropValue{
		{ID: "p-title", Data: []string{"x"}},
		{ID: "p-slug", Data: []string{"x"}},
	}}}}
	assert.NoError(t, engine.CheckEntry(context.Background(), entry))
}
