package bcms

import (
	"encoding/json"
	"fmt"
)

// PropType is the closed set of field types a Prop can carry.
type PropType string

const (
	PropTypeString       PropType = "STRING"
	PropTypeNumber       PropType = "NUMBER"
	PropTypeBoolean      PropType = "BOOLEAN"
	PropTypeDate         PropType = "DATE"
	PropTypeEnumeration  PropType = "ENUMERATION"
	PropTypeMedia        PropType = "MEDIA"
	PropTypeGroupPointer PropType = "GROUP_POINTER"
	PropTypeEntryPointer PropType = "ENTRY_POINTER"
)

// PropTypes lists every supported type in declaration order.
var PropTypes = []PropType{
	PropTypeString,
	PropTypeNumber,
	PropTypeBoolean,
	PropTypeDate,
	PropTypeEnumeration,
	PropTypeMedia,
	PropTypeGroupPointer,
	PropTypeEntryPointer,
}

// IsValid reports whether t is one of the supported prop types.
func (t PropType) IsValid() bool {
	for _, known := range PropTypes {
		if known == t {
			return true
		}
	}
	return false
}

// Prop is a named, typed slot in a content schema.
type Prop struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Label       string          `json:"label"`
	Array       bool            `json:"array"`
	Required    bool            `json:"required"`
	Type        PropType        `json:"type"`
	DefaultData PropDefaultData `json:"defaultData"`
}

// UnmarshalJSON decodes defaultData according to the prop type so that
// callers always receive the concrete PropDefaultData for that type.
func (p *Prop) UnmarshalJSON(data []byte) error {
	type propAlias struct {
		ID          string          `json:"id"`
		Name        string          `json:"name"`
		Label       string          `json:"label"`
		Array       bool            `json:"array"`
		Required    bool            `json:"required"`
		Type        PropType        `json:"type"`
		DefaultData json.RawMessage `json:"defaultData"`
	}

	var alias propAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	defaultData, err := UnmarshalPropDefaultData(alias.Type, alias.DefaultData)
	if err != nil {
		return fmt.Errorf("prop %q: %w", alias.Name, err)
	}

	p.ID = alias.ID
	p.Name = alias.Name
	p.Label = alias.Label
	p.Array = alias.Array
	p.Required = alias.Required
	p.Type = alias.Type
	p.DefaultData = defaultData
	return nil
}

// Clone returns a deep copy of the prop.
func (p Prop) Clone() Prop {
	out := p
	if p.DefaultData != nil {
		out.DefaultData = p.DefaultData.clone()
	}
	return out
}

// CloneProps deep copies a prop list. A nil list stays nil.
func CloneProps(props []Prop) []Prop {
	if props == nil {
		return nil
	}
	out := make([]Prop, len(props))
	for i, p := range props {
		out[i] = p.Clone()
	}
	return out
}

// PropDefaultData is the type-dependent default payload of a Prop. The set of
// implementations is closed; each one reports the PropType it belongs to.
type PropDefaultData interface {
	PropType() PropType
	clone() PropDefaultData
}

type PropStringData []string

func (PropStringData) PropType() PropType { return PropTypeString }
func (d PropStringData) clone() PropDefaultData {
	return append(PropStringData{}, d...)
}

type PropNumberData []float64

func (PropNumberData) PropType() PropType { return PropTypeNumber }
func (d PropNumberData) clone() PropDefaultData {
	return append(PropNumberData{}, d...)
}

type PropBoolData []bool

func (PropBoolData) PropType() PropType { return PropTypeBoolean }
func (d PropBoolData) clone() PropDefaultData {
	return append(PropBoolData{}, d...)
}

// PropDateData holds unix millisecond timestamps.
type PropDateData []float64

func (PropDateData) PropType() PropType { return PropTypeDate }
func (d PropDateData) clone() PropDefaultData {
	return append(PropDateData{}, d...)
}

type PropEnumData struct {
	Items []string `json:"items"`
}

func (PropEnumData) PropType() PropType { return PropTypeEnumeration }
func (d PropEnumData) clone() PropDefaultData {
	return PropEnumData{Items: append([]string{}, d.Items...)}
}

// PropMediaRef references a media object from a MEDIA prop.
type PropMediaRef struct {
	ID      string `json:"id"`
	AltText string `json:"altText"`
}

type PropMediaData []PropMediaRef

func (PropMediaData) PropType() PropType { return PropTypeMedia }
func (d PropMediaData) clone() PropDefaultData {
	return append(PropMediaData{}, d...)
}

// PropGroupPointerItem is one nested instance of a group.
type PropGroupPointerItem struct {
	Values []PropValue `json:"values"`
}

type PropGroupPointerData struct {
	GroupID string                 `json:"groupId"`
	Items   []PropGroupPointerItem `json:"items"`
}

func (PropGroupPointerData) PropType() PropType { return PropTypeGroupPointer }
func (d PropGroupPointerData) clone() PropDefaultData {
	out := PropGroupPointerData{GroupID: d.GroupID, Items: make([]PropGroupPointerItem, len(d.Items))}
	for i, item := range d.Items {
		out.Items[i] = PropGroupPointerItem{Values: ClonePropValues(item.Values)}
	}
	return out
}

type PropEntryPointerData struct {
	TemplateID  string   `json:"templateId"`
	EntryIDs    []string `json:"entryIds"`
	DisplayProp string   `json:"displayProp"`
}

func (PropEntryPointerData) PropType() PropType { return PropTypeEntryPointer }
func (d PropEntryPointerData) clone() PropDefaultData {
	return PropEntryPointerData{
		TemplateID:  d.TemplateID,
		EntryIDs:    append([]string{}, d.EntryIDs...),
		DisplayProp: d.DisplayProp,
	}
}

// UnmarshalPropDefaultData decodes a raw defaultData payload into the
// concrete type for t. An empty payload yields the empty default.
func UnmarshalPropDefaultData(t PropType, raw json.RawMessage) (PropDefaultData, error) {
	empty := len(raw) == 0 || string(raw) == "null"

	var (
		target PropDefaultData
		err    error
	)
	switch t {
	case PropTypeString:
		d := PropStringData{}
		if !empty {
			err = json.Unmarshal(raw, &d)
		}
		target = d
	case PropTypeNumber:
		d := PropNumberData{}
		if !empty {
			err = json.Unmarshal(raw, &d)
		}
		target = d
	case PropTypeBoolean:
		d := PropBoolData{}
		if !empty {
			err = json.Unmarshal(raw, &d)
		}
		target = d
	case PropTypeDate:
		d := PropDateData{}
		if !empty {
			err = json.Unmarshal(raw, &d)
		}
		target = d
	case PropTypeEnumeration:
		d := PropEnumData{Items: []string{}}
		if !empty {
			err = json.Unmarshal(raw, &d)
		}
		target = d
	case PropTypeMedia:
		d := PropMediaData{}
		if !empty {
			err = json.Unmarshal(raw, &d)
		}
		target = d
	case PropTypeGroupPointer:
		d := PropGroupPointerData{Items: []PropGroupPointerItem{}}
		if !empty {
			err = json.Unmarshal(raw, &d)
		}
		target = d
	case PropTypeEntryPointer:
		d := PropEntryPointerData{EntryIDs: []string{}}
		if !empty {
			err = json.Unmarshal(raw, &d)
		}
		target = d
	default:
		return nil, fmt.Errorf("unknown prop type: %s", t)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s defaultData: %w", t, err)
	}
	return target, nil
}

// PropValue is a stored data unit. ID references Prop.ID of the schema the
// value list was written against; Data is a JSON-like payload whose shape
// depends on the prop type.
type PropValue struct {
	ID   string `json:"id"`
	Data any    `json:"data"`
}

// ClonePropValues copies the value list. Data payloads are shared; the engine
// never mutates them.
func ClonePropValues(values []PropValue) []PropValue {
	if values == nil {
		return nil
	}
	return append([]PropValue{}, values...)
}

// Group is a reusable nested schema referenced from GROUP_POINTER props.
type Group struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label"`
	Desc  string `json:"desc,omitempty"`
	Props []Prop `json:"props"`
}

// Template is the root schema of entries. By convention Props[0] and
// Props[1] are the protected title and slug props.
type Template struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Label  string `json:"label"`
	Desc   string `json:"desc,omitempty"`
	Single bool   `json:"singleEntry,omitempty"`
	Props  []Prop `json:"props"`
}

// EntryMeta is the per-language value list of an entry.
type EntryMeta struct {
	Lng   string      `json:"lng"`
	Props []PropValue `json:"props"`
}

// Entry is a content record conforming to a template, per language.
type Entry struct {
	ID         string      `json:"id"`
	TemplateID string      `json:"templateId"`
	Meta       []EntryMeta `json:"meta"`
}

// Media is a stored media object as seen by the engine.
type Media struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimetype"`
	Path     string `json:"path"`
	AltText  string `json:"altText,omitempty"`
	Caption  string `json:"caption,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// Language is a content language known to the system.
type Language struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"nativeName"`
	Default    bool   `json:"def"`
}

// PropChange is one schema migration step. Exactly one of Remove, Add and
// Update is expected to be set; when several are, Remove wins over Add and
// Add over Update.
type PropChange struct {
	Add    *PropChangeAdd    `json:"add,omitempty"`
	Remove string            `json:"remove,omitempty"`
	Update *PropChangeUpdate `json:"update,omitempty"`
}

// PropChangeAdd describes a prop to append. DefaultData is interpreted per
// type: {"groupId"} for GROUP_POINTER, {"templateId"} for ENTRY_POINTER,
// {"items"} for ENUMERATION and a primitive array otherwise.
type PropChangeAdd struct {
	Label       string          `json:"label"`
	Type        PropType        `json:"type"`
	Array       bool            `json:"array"`
	Required    bool            `json:"required"`
	DefaultData json.RawMessage `json:"defaultData,omitempty"`
}

// PropChangeUpdate edits an existing prop. Move > 0 moves it one slot
// later, Move < 0 one slot earlier.
type PropChangeUpdate struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Required  bool     `json:"required"`
	Move      int      `json:"move"`
	EnumItems []string `json:"enumItems,omitempty"`
}

// PropPathEntry is one step of a group-pointer descent.
type PropPathEntry struct {
	GroupID string `json:"groupId"`
	Label   string `json:"label"`
}

// ParseRequest carries the inputs of a resolution pass.
type ParseRequest struct {
	Props        []Prop
	Values       []PropValue
	MaxDepth     int
	Depth        int
	Level        string
	OnlyLanguage string
}

// ResolvedTree is the client-facing output of a resolution pass, keyed by
// prop name.
type ResolvedTree map[string]any
