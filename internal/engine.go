package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/bcms/bcms"
	"go.uber.org/zap"
)

// propEngine implements bcms.PropEngine on top of the five components.
// UpdateGroupProps and UpdateTemplateProps run their migrator and detector
// against the uncached repositories so a schema is never accepted on the
// strength of a stale group.
type propEngine struct {
	config    *bcms.Config
	repos     bcms.Repositories
	validator *PropValidator
	detector  *CycleDetector
	migrator  *SchemaMigrator
	resolver  *ContentResolver

	writeDetector *CycleDetector
	writeMigrator *SchemaMigrator
	cache         *CachedRepositories
}

// NewPropEngine wires the engine components to repos. A nil config means
// bcms.DefaultConfig().
func NewPropEngine(repos bcms.Repositories, config *bcms.Config) bcms.PropEngine {
	if config == nil {
		config = bcms.DefaultConfig()
	}
	return newPropEngine(repos, repos, nil, config)
}

// NewCachedPropEngine serves lookups through a read-through cache over base.
// The write-side helpers read base directly. The engine implements
// bcms.CacheInvalidator; callers that save a group or template must
// invalidate it so later reads see the new props.
func NewCachedPropEngine(base bcms.Repositories, ttl time.Duration, config *bcms.Config) bcms.PropEngine {
	if config == nil {
		config = bcms.DefaultConfig()
	}
	cache := NewCachedRepositories(base, ttl)
	return newPropEngine(cache.Repositories(), base, cache, config)
}

func newPropEngine(repos, writeRepos bcms.Repositories, cache *CachedRepositories, config *bcms.Config) *propEngine {
	factory := NewPropFactory()
	return &propEngine{
		config:        config,
		repos:         repos,
		validator:     NewPropValidator(repos.Groups, repos.Entries),
		detector:      NewCycleDetector(repos.Groups),
		migrator:      NewSchemaMigrator(factory, repos.Groups, repos.Templates),
		resolver:      NewContentResolver(repos),
		writeDetector: NewCycleDetector(writeRepos.Groups),
		writeMigrator: NewSchemaMigrator(factory, writeRepos.Groups, writeRepos.Templates),
		cache:         cache,
	}
}

func (e *propEngine) InvalidateGroup(id string) {
	if e.cache != nil {
		e.cache.InvalidateGroup(id)
	}
}

func (e *propEngine) InvalidateTemplate(id string) {
	if e.cache != nil {
		e.cache.InvalidateTemplate(id)
	}
}

func (e *propEngine) InvalidateEntry(id string) {
	if e.cache != nil {
		e.cache.InvalidateEntry(id)
	}
}

func (e *propEngine) CheckPropValues(ctx context.Context, props []bcms.Prop, values []bcms.PropValue, level string) error {
	return e.validator.CheckPropValues(ctx, props, values, level)
}

func (e *propEngine) TestInfiniteLoop(ctx context.Context, props []bcms.Prop, path []bcms.PropPathEntry, level string) error {
	return e.detector.TestInfiniteLoop(ctx, props, path, level)
}

func (e *propEngine) ApplyPropChanges(ctx context.Context, props []bcms.Prop, changes []bcms.PropChange, level string) ([]bcms.Prop, error) {
	return e.migrator.ApplyPropChanges(ctx, props, changes, level)
}

func (e *propEngine) Parse(ctx context.Context, req bcms.ParseRequest) bcms.ResolvedTree {
	return e.resolver.Parse(ctx, req)
}

// UpdateGroupProps migrates the group props and rejects results that point
// back at the group, directly or through other groups.
func (e *propEngine) UpdateGroupProps(ctx context.Context, group *bcms.Group, changes []bcms.PropChange) ([]bcms.Prop, error) {
	props, err := e.writeMigrator.ApplyPropChanges(ctx, group.Props, changes, "group")
	if err != nil {
		return nil, err
	}

	path := []bcms.PropPathEntry{{GroupID: group.ID, Label: group.Label}}
	if err := e.writeDetector.TestInfiniteLoop(ctx, props, path, "group.props"); err != nil {
		return nil, err
	}

	zap.S().Infow("group props updated", "groupId", group.ID, "changes", len(changes), "props", len(props))
	return props, nil
}

func (e *propEngine) UpdateTemplateProps(ctx context.Context, template *bcms.Template, changes []bcms.PropChange) ([]bcms.Prop, error) {
	props, err := e.writeMigrator.ApplyPropChanges(ctx, template.Props, changes, "template")
	if err != nil {
		return nil, err
	}
	if err := e.writeDetector.TestInfiniteLoop(ctx, props, nil, "template.props"); err != nil {
		return nil, err
	}

	zap.S().Infow("template props updated", "templateId", template.ID, "changes", len(changes), "props", len(props))
	return props, nil
}

// CheckEntry validates every language meta of entry against its template.
func (e *propEngine) CheckEntry(ctx context.Context, entry *bcms.Entry) error {
	template, err := e.findTemplate(ctx, entry.TemplateID, "entry")
	if err != nil {
		return err
	}

	for _, meta := range entry.Meta {
		level := "entry.meta." + meta.Lng

		language, err := e.repos.Languages.FindLanguageByCode(ctx, meta.Lng)
		if err != nil {
			return bcms.NewLookupError(level, fmt.Sprintf("Failed to find language %q.", meta.Lng), err)
		}
		if language == nil {
			return bcms.NewNotFoundError(bcms.ErrCodeLanguageNotFound, level,
				fmt.Sprintf("Language with code %q does not exist.", meta.Lng))
		}

		if err := e.validator.CheckPropValues(ctx, template.Props, meta.Props, level); err != nil {
			return err
		}
	}
	return nil
}

// ParseEntry resolves entry the same way an ENTRY_POINTER slot would. A
// negative maxDepth falls back to the configured default.
func (e *propEngine) ParseEntry(ctx context.Context, entry *bcms.Entry, maxDepth int, onlyLanguage string) (bcms.ResolvedTree, error) {
	template, err := e.findTemplate(ctx, entry.TemplateID, "entry")
	if err != nil {
		return nil, err
	}
	if maxDepth < 0 {
		maxDepth = e.config.Resolver.MaxDepth
	}
	return e.resolver.resolveEntry(ctx, entry, template, maxDepth, 0, onlyLanguage, "entry"), nil
}

func (e *propEngine) findTemplate(ctx context.Context, id, level string) (*bcms.Template, error) {
	template, err := e.repos.Templates.FindTemplateByID(ctx, id)
	if err != nil {
		return nil, bcms.NewLookupError(level, fmt.Sprintf("Failed to find template %q.", id), err)
	}
	if template == nil {
		return nil, bcms.NewNotFoundError(bcms.ErrCodeTemplateNotFound, level,
			fmt.Sprintf("Template with ID %q does not exist.", id))
	}
	return template, nil
}
