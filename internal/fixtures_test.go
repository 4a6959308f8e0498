package internal

import (
	"context"
	"errors"

	"github.com/bcms/bcms"
)

var errLookupBroken = errors.New("lookup broken")

// brokenRepository fails every lookup.
type brokenRepository struct{}

func (brokenRepository) FindGroupByID(context.Context, string) (*bcms.Group, error) {
	return nil, errLookupBroken
}

func (brokenRepository) ListGroups(context.Context) ([]*bcms.Group, error) {
	return nil, errLookupBroken
}

func (brokenRepository) FindEntryByID(context.Context, string) (*bcms.Entry, error) {
	return nil, errLookupBroken
}

func (brokenRepository) FindTemplateByID(context.Context, string) (*bcms.Template, error) {
	return nil, errLookupBroken
}

func (brokenRepository) ListTemplates(context.Context) ([]*bcms.Template, error) {
	return nil, errLookupBroken
}

func (brokenRepository) FindMediaByID(context.Context, string) (*bcms.Media, error) {
	return nil, errLookupBroken
}

func (brokenRepository) FindLanguageByCode(context.Context, string) (*bcms.Language, error) {
	return nil, errLookupBroken
}

func memoryRepositories(repo *MemoryRepository) bcms.Repositories {
	return bcms.Repositories{
		Groups:    repo,
		Entries:   repo,
		Templates: repo,
		Media:     repo,
		Languages: repo,
		MediaPath: StaticMediaPathResolver{BaseURL: "https://cdn.example.com"},
	}
}

func stringProp(id, name string, array bool) bcms.Prop {
	return bcms.Prop{ID: id, Name: name, Label: name, Array: array, Required: true, Type: bcms.PropTypeString, DefaultData: bcms.PropStringData{}}
}

func numberProp(id, name string) bcms.Prop {
	return bcms.Prop{ID: id, Name: name, Label: name, Required: true, Type: bcms.PropTypeNumber, DefaultData: bcms.PropNumberData{}}
}

func enumProp(id, name string, items ...string) bcms.Prop {
	return bcms.Prop{ID: id, Name: name, Label: name, Required: true, Type: bcms.PropTypeEnumeration, DefaultData: bcms.PropEnumData{Items: items}}
}

func mediaProp(id, name string, array bool) bcms.Prop {
	return bcms.Prop{ID: id, Name: name, Label: name, Array: array, Required: true, Type: bcms.PropTypeMedia, DefaultData: bcms.PropMediaData{}}
}

func groupPointerProp(id, name, groupID string, array bool) bcms.Prop {
	return bcms.Prop{
		ID: id, Name: name, Label: name, Array: array, Required: true,
		Type:        bcms.PropTypeGroupPointer,
		DefaultData: bcms.PropGroupPointerData{GroupID: groupID, Items: []bcms.PropGroupPointerItem{}},
	}
}

func entryPointerProp(id, name, templateID string, array bool) bcms.Prop {
	return bcms.Prop{
		ID: id, Name: name, Label: name, Array: array, Required: true,
		Type:        bcms.PropTypeEntryPointer,
		DefaultData: bcms.PropEntryPointerData{TemplateID: templateID, EntryIDs: []string{}, DisplayProp: "title"},
	}
}

// titleSlugProps returns the protected prefix every template starts with.
func titleSlugProps() []bcms.Prop {
	return []bcms.Prop{
		stringProp("p-title", "title", false),
		stringProp("p-slug", "slug", false),
	}
}

func groupValue(groupID string, items ...[]bcms.PropValue) map[string]any {
	list := make([]any, 0, len(items))
	for _, values := range items {
		list = append(list, map[string]any{"values": values})
	}
	return map[string]any{"groupId": groupID, "items": list}
}
