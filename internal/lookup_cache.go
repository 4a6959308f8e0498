package internal

import (
	"context"
	"sync"
	"time"

	"github.com/bcms/bcms"
)

type cachedItem[T any] struct {
	value     *T
	expiresAt time.Time
}

// lookupCache is a read-through TTL cache keyed by id. Only hits are cached;
// absent objects and failures always reach the backend.
type lookupCache[T any] struct {
	mu      sync.RWMutex
	items   map[string]cachedItem[T]
	ttl     time.Duration
	clone   func(*T) *T
	nowFunc func() time.Time
}

func newLookupCache[T any](ttl time.Duration, clone func(*T) *T) *lookupCache[T] {
	return &lookupCache[T]{
		items:   make(map[string]cachedItem[T]),
		ttl:     ttl,
		clone:   clone,
		nowFunc: time.Now,
	}
}

func (c *lookupCache[T]) get(ctx context.Context, id string, load func(context.Context, string) (*T, error)) (*T, error) {
	now := c.nowFunc()

	c.mu.RLock()
	item, ok := c.items[id]
	c.mu.RUnlock()
	if ok && now.Before(item.expiresAt) {
		return c.clone(item.value), nil
	}

	value, err := load(ctx, id)
	if err != nil || value == nil {
		return value, err
	}

	c.mu.Lock()
	c.items[id] = cachedItem[T]{value: c.clone(value), expiresAt: now.Add(c.ttl)}
	c.mu.Unlock()
	return value, nil
}

func (c *lookupCache[T]) invalidate(id string) {
	c.mu.Lock()
	delete(c.items, id)
	c.mu.Unlock()
}

// CachedRepositories wraps the lookups of a Repositories bundle with
// read-through caches. List calls and media path resolution pass through.
type CachedRepositories struct {
	base      bcms.Repositories
	groups    *lookupCache[bcms.Group]
	templates *lookupCache[bcms.Template]
	entries   *lookupCache[bcms.Entry]
	media     *lookupCache[bcms.Media]
	languages *lookupCache[bcms.Language]
}

func NewCachedRepositories(base bcms.Repositories, ttl time.Duration) *CachedRepositories {
	return &CachedRepositories{
		base:      base,
		groups:    newLookupCache(ttl, cloneGroup),
		templates: newLookupCache(ttl, cloneTemplate),
		entries:   newLookupCache(ttl, cloneEntry),
		media:     newLookupCache(ttl, cloneMedia),
		languages: newLookupCache(ttl, cloneLanguage),
	}
}

// Repositories returns a bundle whose lookups go through the caches.
func (c *CachedRepositories) Repositories() bcms.Repositories {
	return bcms.Repositories{
		Groups:    cachedGroups{c},
		Entries:   cachedEntries{c},
		Templates: cachedTemplates{c},
		Media:     cachedMedia{c},
		Languages: cachedLanguages{c},
		MediaPath: c.base.MediaPath,
	}
}

// InvalidateGroup drops a cached group, e.g. after its props were migrated.
func (c *CachedRepositories) InvalidateGroup(id string) {
	c.groups.invalidate(id)
}

func (c *CachedRepositories) InvalidateTemplate(id string) {
	c.templates.invalidate(id)
}

func (c *CachedRepositories) InvalidateEntry(id string) {
	c.entries.invalidate(id)
}

type cachedGroups struct{ c *CachedRepositories }

func (g cachedGroups) FindGroupByID(ctx context.Context, id string) (*bcms.Group, error) {
	return g.c.groups.get(ctx, id, g.c.base.Groups.FindGroupByID)
}

func (g cachedGroups) ListGroups(ctx context.Context) ([]*bcms.Group, error) {
	return g.c.base.Groups.ListGroups(ctx)
}

type cachedTemplates struct{ c *CachedRepositories }

func (t cachedTemplates) FindTemplateByID(ctx context.Context, id string) (*bcms.Template, error) {
	return t.c.templates.get(ctx, id, t.c.base.Templates.FindTemplateByID)
}

func (t cachedTemplates) ListTemplates(ctx context.Context) ([]*bcms.Template, error) {
	return t.c.base.Templates.ListTemplates(ctx)
}

type cachedEntries struct{ c *CachedRepositories }

func (e cachedEntries) FindEntryByID(ctx context.Context, id string) (*bcms.Entry, error) {
	return e.c.entries.get(ctx, id, e.c.base.Entries.FindEntryByID)
}

type cachedMedia struct{ c *CachedRepositories }

func (m cachedMedia) FindMediaByID(ctx context.Context, id string) (*bcms.Media, error) {
	return m.c.media.get(ctx, id, m.c.base.Media.FindMediaByID)
}

type cachedLanguages struct{ c *CachedRepositories }

func (l cachedLanguages) FindLanguageByCode(ctx context.Context, code string) (*bcms.Language, error) {
	return l.c.languages.get(ctx, code, l.c.base.Languages.FindLanguageByCode)
}

func cloneMedia(media *bcms.Media) *bcms.Media {
	out := *media
	return &out
}

func cloneLanguage(language *bcms.Language) *bcms.Language {
	out := *language
	return &out
}
