package internal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bcms/bcms"
	"go.uber.org/zap"
)

// SchemaMigrator applies ordered add/remove/update changes to a prop list.
type SchemaMigrator struct {
	factory   *PropFactory
	groups    bcms.GroupRepository
	templates bcms.TemplateRepository
}

func NewSchemaMigrator(factory *PropFactory, groups bcms.GroupRepository, templates bcms.TemplateRepository) *SchemaMigrator {
	return &SchemaMigrator{factory: factory, groups: groups, templates: templates}
}

// ApplyPropChanges applies changes in order to a deep copy of props and
// returns the copy. The caller's slice is never modified. The first failing
// change aborts the batch.
func (m *SchemaMigrator) ApplyPropChanges(ctx context.Context, props []bcms.Prop, changes []bcms.PropChange, level string) ([]bcms.Prop, error) {
	out := bcms.CloneProps(props)

	for i, change := range changes {
		changeLevel := fmt.Sprintf("%s.change.%d", level, i)

		var err error
		switch {
		case change.Remove != "":
			out = m.remove(out, change.Remove, changeLevel)
		case change.Add != nil:
			out, err = m.add(ctx, out, change.Add, changeLevel+".add")
		case change.Update != nil:
			out, err = m.update(out, change.Update, changeLevel+".update")
		default:
			err = bcms.NewMigrationError(bcms.ErrCodeInvalidChange, changeLevel,
				"Change must contain one of add, remove or update.")
		}
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

// hasProtectedPrefix reports whether indices 0 and 1 hold the title and slug
// props and must not be removed, updated or moved.
func hasProtectedPrefix(props []bcms.Prop) bool {
	return len(props) > 0 && props[0].Name == "title"
}

func (m *SchemaMigrator) remove(props []bcms.Prop, id, level string) []bcms.Prop {
	index := indexOfProp(props, id)
	if index < 0 {
		zap.S().Debugw("prop to remove not found", "level", level, "propId", id)
		return props
	}
	if hasProtectedPrefix(props) && index <= 1 {
		zap.S().Debugw("ignoring removal of protected prop", "level", level, "propId", id, "index", index)
		return props
	}

	zap.S().Debugw("removing prop", "level", level, "propId", id, "name", props[index].Name)
	return append(props[:index], props[index+1:]...)
}

type groupPointerChangeData struct {
	GroupID string `json:"groupId"`
}

type entryPointerChangeData struct {
	TemplateID string `json:"templateId"`
}

func (m *SchemaMigrator) add(ctx context.Context, props []bcms.Prop, change *bcms.PropChangeAdd, level string) ([]bcms.Prop, error) {
	prop := m.factory.Create(change.Type, change.Array)
	if prop == nil {
		return nil, bcms.NewMigrationError(bcms.ErrCodePropTypeUnknown, level,
			fmt.Sprintf("Invalid prop type %q.", change.Type))
	}

	prop.Label = change.Label
	prop.Name = toSlugUnderscore(change.Label)
	prop.Required = change.Required
	if prop.Name == "" {
		return nil, bcms.NewMigrationError(bcms.ErrCodeInvalidChange, level,
			"Prop label must contain at least one letter or digit.")
	}
	if indexOfPropName(props, prop.Name) >= 0 {
		return nil, bcms.NewMigrationError(bcms.ErrCodePropNameDuplicate, level,
			fmt.Sprintf("Prop with name %q already exists.", prop.Name))
	}

	hasData := len(change.DefaultData) > 0 && string(change.DefaultData) != "null"

	switch change.Type {
	case bcms.PropTypeGroupPointer:
		var data groupPointerChangeData
		if hasData {
			if err := json.Unmarshal(change.DefaultData, &data); err != nil {
				return nil, bcms.NewMigrationError(bcms.ErrCodeInvalidChange, level, "Invalid defaultData.").WithCause(err)
			}
		}
		if data.GroupID == "" {
			return nil, bcms.NewMigrationError(bcms.ErrCodeInvalidChange, level, `Missing "defaultData.groupId".`)
		}
		group, err := m.groups.FindGroupByID(ctx, data.GroupID)
		if err != nil {
			return nil, bcms.NewLookupError(level, fmt.Sprintf("Failed to find group %q.", data.GroupID), err)
		}
		if group == nil {
			return nil, bcms.NewNotFoundError(bcms.ErrCodeGroupNotFound, level,
				fmt.Sprintf("Group with ID %q does not exist.", data.GroupID))
		}
		prop.DefaultData = bcms.PropGroupPointerData{GroupID: group.ID, Items: []bcms.PropGroupPointerItem{}}

	case bcms.PropTypeEntryPointer:
		var data entryPointerChangeData
		if hasData {
			if err := json.Unmarshal(change.DefaultData, &data); err != nil {
				return nil, bcms.NewMigrationError(bcms.ErrCodeInvalidChange, level, "Invalid defaultData.").WithCause(err)
			}
		}
		// A supplied templateId is rejected and an absent one falls through
		// to the template lookup. Kept as observed in production.
		if !hasData || data.TemplateID != "" {
			return nil, bcms.NewMigrationError(bcms.ErrCodeInvalidChange, level, `Missing "defaultData.templateId".`)
		}
		template, err := m.templates.FindTemplateByID(ctx, data.TemplateID)
		if err != nil {
			return nil, bcms.NewLookupError(level, fmt.Sprintf("Failed to find template %q.", data.TemplateID), err)
		}
		if template == nil {
			return nil, bcms.NewNotFoundError(bcms.ErrCodeTemplateNotFound, level,
				fmt.Sprintf("Template with ID %q does not exist.", data.TemplateID))
		}
		prop.DefaultData = bcms.PropEntryPointerData{
			TemplateID:  template.ID,
			EntryIDs:    []string{},
			DisplayProp: "title",
		}

	default:
		if hasData {
			defaultData, err := bcms.UnmarshalPropDefaultData(change.Type, change.DefaultData)
			if err != nil {
				return nil, bcms.NewMigrationError(bcms.ErrCodeInvalidChange, level, "Invalid defaultData.").WithCause(err)
			}
			prop.DefaultData = defaultData
		}
	}

	zap.S().Debugw("adding prop", "level", level, "name", prop.Name, "type", prop.Type)
	return append(props, *prop), nil
}

func (m *SchemaMigrator) update(props []bcms.Prop, change *bcms.PropChangeUpdate, level string) ([]bcms.Prop, error) {
	index := indexOfProp(props, change.ID)
	if index < 0 {
		return nil, bcms.NewMigrationError(bcms.ErrCodePropNotFound, level,
			fmt.Sprintf("Prop with ID %q does not exist.", change.ID))
	}
	if hasProtectedPrefix(props) && index <= 1 {
		zap.S().Debugw("ignoring update of protected prop", "level", level, "propId", change.ID, "index", index)
		return props, nil
	}

	prop := &props[index]
	if change.Label != "" && change.Label != prop.Label {
		name := toSlugUnderscore(change.Label)
		if name == "" {
			return nil, bcms.NewMigrationError(bcms.ErrCodeInvalidChange, level,
				"Prop label must contain at least one letter or digit.")
		}
		if other := indexOfPropName(props, name); other >= 0 && other != index {
			return nil, bcms.NewMigrationError(bcms.ErrCodePropNameDuplicate, level,
				fmt.Sprintf("Prop with name %q already exists.", name))
		}
		prop.Label = change.Label
		prop.Name = name
	}
	prop.Required = change.Required

	if change.EnumItems != nil && prop.Type == bcms.PropTypeEnumeration {
		prop.DefaultData = bcms.PropEnumData{Items: append([]string{}, change.EnumItems...)}
	}

	switch {
	case change.Move > 0:
		if index < len(props)-1 {
			props[index], props[index+1] = props[index+1], props[index]
		}
	case change.Move < 0:
		// Moving up is only honoured from index 3 on, whether or not the
		// protected prefix is active.
		if index >= 3 {
			props[index], props[index-1] = props[index-1], props[index]
		}
	}

	zap.S().Debugw("updated prop", "level", level, "propId", change.ID, "move", change.Move)
	return props, nil
}

func indexOfProp(props []bcms.Prop, id string) int {
	for i := range props {
		if props[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfPropName(props []bcms.Prop, name string) int {
	for i := range props {
		if props[i].Name == name {
			return i
		}
	}
	return -1
}
