package internal

import (
	"context"
	"fmt"

	"github.com/bcms/bcms"
)

// PropValidator checks stored values against a prop list. Validation is
// fail-fast: the first violation is returned and nothing else is inspected.
type PropValidator struct {
	groups  bcms.GroupRepository
	entries bcms.EntryRepository
}

// NewPropValidator creates a validator reading nested schemas from groups and
// pointer targets from entries.
func NewPropValidator(groups bcms.GroupRepository, entries bcms.EntryRepository) *PropValidator {
	return &PropValidator{groups: groups, entries: entries}
}

// CheckPropValues validates values against props. level prefixes every error
// path.
func (v *PropValidator) CheckPropValues(ctx context.Context, props []bcms.Prop, values []bcms.PropValue, level string) error {
	if len(props) != len(values) {
		return bcms.NewValidationError(bcms.ErrCodePropLengthMismatch, level,
			fmt.Sprintf("Props and values are not the same length (props: %d, values: %d).", len(props), len(values))).
			WithDetail("props", len(props)).
			WithDetail("values", len(values))
	}

	for i := range props {
		prop := &props[i]
		propLevel := level + "." + prop.Name

		value, found := findPropValue(values, prop.ID)
		if !found {
			return bcms.NewValidationError(bcms.ErrCodePropValueMissing, propLevel, "No value found.")
		}

		data, err := normalizeJSON(value.Data)
		if err != nil {
			return bcms.NewValidationError(bcms.ErrCodePropTypeMismatch, propLevel, "Value data is not valid JSON.").WithCause(err)
		}

		if err := v.checkValue(ctx, prop, data, propLevel); err != nil {
			return err
		}
	}

	return nil
}

func (v *PropValidator) checkValue(ctx context.Context, prop *bcms.Prop, data any, level string) error {
	switch prop.Type {
	case bcms.PropTypeString:
		return checkPrimitiveArray(data, level, "strings", isString)
	case bcms.PropTypeNumber:
		return checkPrimitiveArray(data, level, "numbers", isNumber)
	case bcms.PropTypeBoolean:
		return checkPrimitiveArray(data, level, "booleans", isBool)
	case bcms.PropTypeDate:
		return checkPrimitiveArray(data, level, "numbers", isNumber)
	case bcms.PropTypeEnumeration:
		// Membership in defaultData.items is not enforced so that values
		// written before an enum change stay valid.
		return checkPrimitiveArray(data, level, "strings", isString)
	case bcms.PropTypeMedia:
		return checkMediaValue(data, level)
	case bcms.PropTypeGroupPointer:
		return v.checkGroupPointerValue(ctx, prop, data, level)
	case bcms.PropTypeEntryPointer:
		return v.checkEntryPointerValue(ctx, prop, data, level)
	default:
		return bcms.NewValidationError(bcms.ErrCodePropTypeUnknown, level,
			fmt.Sprintf("Unknown prop type %q.", prop.Type))
	}
}

func (v *PropValidator) checkGroupPointerValue(ctx context.Context, prop *bcms.Prop, data any, level string) error {
	pointer, ok := prop.DefaultData.(bcms.PropGroupPointerData)
	if !ok {
		return bcms.NewValidationError(bcms.ErrCodePropTypeMismatch, level, "Prop defaultData is not a group pointer.")
	}

	value, err := decodeGroupPointerValue(data)
	if err != nil {
		return bcms.NewValidationError(bcms.ErrCodePropTypeMismatch, level,
			fmt.Sprintf("Invalid group pointer value: %v.", err))
	}

	if value.GroupID != pointer.GroupID {
		return bcms.NewReferenceError(bcms.ErrCodePropTypeMismatch, level,
			fmt.Sprintf("Expected group ID %q but got %q.", pointer.GroupID, value.GroupID))
	}

	group, err := v.groups.FindGroupByID(ctx, value.GroupID)
	if err != nil {
		return bcms.NewLookupError(level, fmt.Sprintf("Failed to find group %q.", value.GroupID), err)
	}
	if group == nil {
		return bcms.NewNotFoundError(bcms.ErrCodeGroupNotFound, level,
			fmt.Sprintf("Group with ID %q does not exist.", value.GroupID))
	}

	for i, itemValues := range value.Items {
		if err := v.CheckPropValues(ctx, group.Props, itemValues, fmt.Sprintf("%s.items.%d", level, i)); err != nil {
			return err
		}
	}

	return nil
}

func (v *PropValidator) checkEntryPointerValue(ctx context.Context, prop *bcms.Prop, data any, level string) error {
	pointer, ok := prop.DefaultData.(bcms.PropEntryPointerData)
	if !ok {
		return bcms.NewValidationError(bcms.ErrCodePropTypeMismatch, level, "Prop defaultData is not an entry pointer.")
	}

	entryIDs, ok := stringList(data)
	if !ok {
		return bcms.NewValidationError(bcms.ErrCodePropTypeMismatch, level, `Expected "data" to be an array of strings.`)
	}

	for i, entryID := range entryIDs {
		entryLevel := fmt.Sprintf("%s.%d", level, i)
		entry, err := v.entries.FindEntryByID(ctx, entryID)
		if err != nil {
			return bcms.NewLookupError(entryLevel, fmt.Sprintf("Failed to find entry %q.", entryID), err)
		}
		if entry == nil {
			return bcms.NewNotFoundError(bcms.ErrCodeEntryNotFound, entryLevel,
				fmt.Sprintf("Entry with ID %q does not exist.", entryID))
		}
		if entry.TemplateID != pointer.TemplateID {
			return bcms.NewReferenceError(bcms.ErrCodeTemplateMismatch, entryLevel,
				fmt.Sprintf("Entry %q belongs to template %q but template %q was expected.",
					entryID, entry.TemplateID, pointer.TemplateID)).
				WithDetail("expectedTemplateId", pointer.TemplateID).
				WithDetail("actualTemplateId", entry.TemplateID)
		}
	}

	return nil
}

func checkMediaValue(data any, level string) error {
	list, ok := data.([]any)
	if !ok {
		return bcms.NewValidationError(bcms.ErrCodePropTypeMismatch, level, `Expected "data" to be an array of media objects.`)
	}
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return bcms.NewValidationError(bcms.ErrCodePropTypeMismatch, fmt.Sprintf("%s.%d", level, i),
				"Expected a media object.")
		}
		if _, ok := obj["id"].(string); !ok {
			return bcms.NewValidationError(bcms.ErrCodePropTypeMismatch, fmt.Sprintf("%s.%d", level, i),
				`Expected "id" to be a string.`)
		}
		if alt, exists := obj["altText"]; exists && alt != nil {
			if _, ok := alt.(string); !ok {
				return bcms.NewValidationError(bcms.ErrCodePropTypeMismatch, fmt.Sprintf("%s.%d", level, i),
					`Expected "altText" to be a string.`)
			}
		}
	}
	return nil
}

func checkPrimitiveArray(data any, level, kind string, accept func(any) bool) error {
	list, ok := data.([]any)
	if !ok {
		return bcms.NewValidationError(bcms.ErrCodePropTypeMismatch, level,
			fmt.Sprintf("Expected \"data\" to be an array of %s.", kind))
	}
	for i, item := range list {
		if !accept(item) {
			return bcms.NewValidationError(bcms.ErrCodePropTypeMismatch, level,
				fmt.Sprintf("Expected \"data\" to be an array of %s.", kind)).
				WithDetail("index", i)
		}
	}
	return nil
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func isNumber(v any) bool {
	_, ok := v.(float64)
	return ok
}

func isBool(v any) bool {
	_, ok := v.(bool)
	return ok
}

func findPropValue(values []bcms.PropValue, id string) (bcms.PropValue, bool) {
	for _, value := range values {
		if value.ID == id {
			return value, true
		}
	}
	return bcms.PropValue{}, false
}
