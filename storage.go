package bcms

import (
	"context"
	"errors"
)

// ErrRepositoryUnavailable is returned by repositories that refuse to serve
// lookups, e.g. while a circuit breaker is open.
var ErrRepositoryUnavailable = errors.New("repository unavailable")

// Lookups return (nil, nil) when the requested object does not exist. A
// non-nil error always means the lookup itself failed.

type GroupRepository interface {
	FindGroupByID(ctx context.Context, id string) (*Group, error)
	ListGroups(ctx context.Context) ([]*Group, error)
}

type EntryRepository interface {
	FindEntryByID(ctx context.Context, id string) (*Entry, error)
}

type TemplateRepository interface {
	FindTemplateByID(ctx context.Context, id string) (*Template, error)
	ListTemplates(ctx context.Context) ([]*Template, error)
}

type MediaRepository interface {
	FindMediaByID(ctx context.Context, id string) (*Media, error)
}

type LanguageRepository interface {
	FindLanguageByCode(ctx context.Context, code string) (*Language, error)
}

// MediaPathResolver turns a media object into the path or URL clients use
// to fetch it.
type MediaPathResolver interface {
	ResolveMediaPath(ctx context.Context, media *Media) (string, error)
}

// Repositories bundles the collaborators the engine reads from.
type Repositories struct {
	Groups    GroupRepository
	Entries   EntryRepository
	Templates TemplateRepository
	Media     MediaRepository
	Languages LanguageRepository
	MediaPath MediaPathResolver
}

// Validate reports the first missing collaborator.
func (r Repositories) Validate() error {
	switch {
	case r.Groups == nil:
		return errors.New("repositories: groups repository is required")
	case r.Entries == nil:
		return errors.New("repositories: entries repository is required")
	case r.Templates == nil:
		return errors.New("repositories: templates repository is required")
	case r.Media == nil:
		return errors.New("repositories: media repository is required")
	case r.Languages == nil:
		return errors.New("repositories: languages repository is required")
	case r.MediaPath == nil:
		return errors.New("repositories: media path resolver is required")
	}
	return nil
}

// CacheInvalidator is implemented by engines that cache lookups. Callers
// that write a group, template or entry drop the cached copy with it.
type CacheInvalidator interface {
	InvalidateGroup(id string)
	InvalidateTemplate(id string)
	InvalidateEntry(id string)
}

// PropEngine validates, migrates and resolves prop schemas and values.
type PropEngine interface {
	// CheckPropValues validates values against props. It returns the first
	// violation as a *PropError, or nil.
	CheckPropValues(ctx context.Context, props []Prop, values []PropValue, level string) error
	// TestInfiniteLoop reports a group-pointer cycle reachable from props.
	TestInfiniteLoop(ctx context.Context, props []Prop, path []PropPathEntry, level string) error
	// ApplyPropChanges applies changes in order to a private copy of props.
	ApplyPropChanges(ctx context.Context, props []Prop, changes []PropChange, level string) ([]Prop, error)
	// Parse resolves values into a client-facing tree. It never fails;
	// unresolved references are omitted.
	Parse(ctx context.Context, req ParseRequest) ResolvedTree

	UpdateGroupProps(ctx context.Context, group *Group, changes []PropChange) ([]Prop, error)
	UpdateTemplateProps(ctx context.Context, template *Template, changes []PropChange) ([]Prop, error)
	CheckEntry(ctx context.Context, entry *Entry) error
	ParseEntry(ctx context.Context, entry *Entry, maxDepth int, onlyLanguage string) (ResolvedTree, error)
}
