package internal

import (
	"github.com/bcms/bcms"
	"github.com/google/uuid"
)

// PropFactory constructs props with empty, type-shaped default data.
type PropFactory struct {
	newID func() string
}

// NewPropFactory creates a factory that assigns UUID v7 ids.
func NewPropFactory() *PropFactory {
	return &PropFactory{newID: newPropID}
}

func newPropID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Create returns a fresh prop of the given type, or nil when the type is not
// supported.
func (f *PropFactory) Create(propType bcms.PropType, array bool) *bcms.Prop {
	switch propType {
	case bcms.PropTypeString:
		return f.String(array)
	case bcms.PropTypeNumber:
		return f.Number(array)
	case bcms.PropTypeBoolean:
		return f.Bool(array)
	case bcms.PropTypeDate:
		return f.Date(array)
	case bcms.PropTypeEnumeration:
		return f.Enum(array)
	case bcms.PropTypeMedia:
		return f.Media(array)
	case bcms.PropTypeGroupPointer:
		return f.GroupPointer(array)
	case bcms.PropTypeEntryPointer:
		return f.EntryPointer(array)
	default:
		return nil
	}
}

func (f *PropFactory) base(propType bcms.PropType, array bool, data bcms.PropDefaultData) *bcms.Prop {
	return &bcms.Prop{
		ID:          f.newID(),
		Name:        "",
		Label:       "",
		Array:       array,
		Required:    true,
		Type:        propType,
		DefaultData: data,
	}
}

func (f *PropFactory) String(array bool) *bcms.Prop {
	return f.base(bcms.PropTypeString, array, bcms.PropStringData{})
}

func (f *PropFactory) Number(array bool) *bcms.Prop {
	return f.base(bcms.PropTypeNumber, array, bcms.PropNumberData{})
}

func (f *PropFactory) Bool(array bool) *bcms.Prop {
	return f.base(bcms.PropTypeBoolean, array, bcms.PropBoolData{})
}

func (f *PropFactory) Date(array bool) *bcms.Prop {
	return f.base(bcms.PropTypeDate, array, bcms.PropDateData{})
}

func (f *PropFactory) Enum(array bool) *bcms.Prop {
	return f.base(bcms.PropTypeEnumeration, array, bcms.PropEnumData{Items: []string{}})
}

func (f *PropFactory) Media(array bool) *bcms.Prop {
	return f.base(bcms.PropTypeMedia, array, bcms.PropMediaData{})
}

func (f *PropFactory) GroupPointer(array bool) *bcms.Prop {
	return f.base(bcms.PropTypeGroupPointer, array, bcms.PropGroupPointerData{
		GroupID: "",
		Items:   []bcms.PropGroupPointerItem{},
	})
}

func (f *PropFactory) EntryPointer(array bool) *bcms.Prop {
	return f.base(bcms.PropTypeEntryPointer, array, bcms.PropEntryPointerData{
		TemplateID:  "",
		EntryIDs:    []string{},
		DisplayProp: "title",
	})
}
