package internal

import (
	"context"
	"sort"
	"sync"

	"github.com/bcms/bcms"
)

// MemoryRepository keeps groups, templates, entries, media and languages in
// process. It implements every lookup interface of bcms.Repositories except
// MediaPathResolver. Objects are copied on the way in and out.
type MemoryRepository struct {
	mu        sync.RWMutex
	groups    map[string]*bcms.Group
	templates map[string]*bcms.Template
	entries   map[string]*bcms.Entry
	media     map[string]*bcms.Media
	languages map[string]*bcms.Language
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		groups:    make(map[string]*bcms.Group),
		templates: make(map[string]*bcms.Template),
		entries:   make(map[string]*bcms.Entry),
		media:     make(map[string]*bcms.Media),
		languages: make(map[string]*bcms.Language),
	}
}

func (r *MemoryRepository) PutGroup(group *bcms.Group) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[group.ID] = cloneGroup(group)
}

func (r *MemoryRepository) PutTemplate(template *bcms.Template) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[template.ID] = cloneTemplate(template)
}

func (r *MemoryRepository) PutEntry(entry *bcms.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.ID] = cloneEntry(entry)
}

func (r *MemoryRepository) PutMedia(media *bcms.Media) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := *media
	r.media[media.ID] = &m
}

// PutLanguage stores a language under its code.
func (r *MemoryRepository) PutLanguage(language *bcms.Language) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := *language
	r.languages[language.Code] = &l
}

// InMemory reports that saved documents do not outlive the process. The
// file-backed repository inherits it: saves never reach the directory.
func (r *MemoryRepository) InMemory() bool {
	return true
}

// The Save methods satisfy the same writer contract as the database
// repositories. They never fail.

func (r *MemoryRepository) SaveGroup(_ context.Context, group *bcms.Group) error {
	r.PutGroup(group)
	return nil
}

func (r *MemoryRepository) SaveTemplate(_ context.Context, template *bcms.Template) error {
	r.PutTemplate(template)
	return nil
}

func (r *MemoryRepository) SaveEntry(_ context.Context, entry *bcms.Entry) error {
	r.PutEntry(entry)
	return nil
}

func (r *MemoryRepository) SaveMedia(_ context.Context, media *bcms.Media) error {
	r.PutMedia(media)
	return nil
}

func (r *MemoryRepository) SaveLanguage(_ context.Context, language *bcms.Language) error {
	r.PutLanguage(language)
	return nil
}

func (r *MemoryRepository) FindGroupByID(_ context.Context, id string) (*bcms.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	group, ok := r.groups[id]
	if !ok {
		return nil, nil
	}
	return cloneGroup(group), nil
}

// ListGroups returns all groups ordered by id.
func (r *MemoryRepository) ListGroups(_ context.Context) ([]*bcms.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*bcms.Group, 0, len(r.groups))
	for _, group := range r.groups {
		out = append(out, cloneGroup(group))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepository) FindTemplateByID(_ context.Context, id string) (*bcms.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	template, ok := r.templates[id]
	if !ok {
		return nil, nil
	}
	return cloneTemplate(template), nil
}

// ListTemplates returns all templates ordered by id.
func (r *MemoryRepository) ListTemplates(_ context.Context) ([]*bcms.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*bcms.Template, 0, len(r.templates))
	for _, template := range r.templates {
		out = append(out, cloneTemplate(template))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepository) FindEntryByID(_ context.Context, id string) (*bcms.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[id]
	if !ok {
		return nil, nil
	}
	return cloneEntry(entry), nil
}

// ListEntries returns all entries ordered by id.
func (r *MemoryRepository) ListEntries(_ context.Context) ([]*bcms.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*bcms.Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, cloneEntry(entry))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepository) FindMediaByID(_ context.Context, id string) (*bcms.Media, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	media, ok := r.media[id]
	if !ok {
		return nil, nil
	}
	m := *media
	return &m, nil
}

func (r *MemoryRepository) FindLanguageByCode(_ context.Context, code string) (*bcms.Language, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	language, ok := r.languages[code]
	if !ok {
		return nil, nil
	}
	l := *language
	return &l, nil
}

// ListMedia returns all media ordered by id.
func (r *MemoryRepository) ListMedia(_ context.Context) ([]*bcms.Media, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*bcms.Media, 0, len(r.media))
	for _, media := range r.media {
		out = append(out, cloneMedia(media))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListLanguages returns all languages ordered by code.
func (r *MemoryRepository) ListLanguages(_ context.Context) ([]*bcms.Language, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*bcms.Language, 0, len(r.languages))
	for _, language := range r.languages {
		out = append(out, cloneLanguage(language))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func cloneGroup(group *bcms.Group) *bcms.Group {
	out := *group
	out.Props = bcms.CloneProps(group.Props)
	return &out
}

func cloneTemplate(template *bcms.Template) *bcms.Template {
	out := *template
	out.Props = bcms.CloneProps(template.Props)
	return &out
}

func cloneEntry(entry *bcms.Entry) *bcms.Entry {
	out := *entry
	if entry.Meta != nil {
		out.Meta = make([]bcms.EntryMeta, len(entry.Meta))
		for i, meta := range entry.Meta {
			out.Meta[i] = bcms.EntryMeta{Lng: meta.Lng, Props: bcms.ClonePropValues(meta.Props)}
		}
	}
	return &out
}
