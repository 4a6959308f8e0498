package internal

import (
	"encoding/json"
	"fmt"

	"github.com/bcms/bcms"
)

// normalizeJSON converts a value into its generic JSON form ([]any,
// map[string]any, float64, string, bool, nil) so typed Go payloads and
// payloads decoded from JSON are inspected the same way.
func normalizeJSON(value any) (any, error) {
	switch v := value.(type) {
	case nil, string, bool, float64:
		return v, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			n, err := normalizeJSON(item)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			n, err := normalizeJSON(item)
			if err != nil {
				return nil, err
			}
			out[key] = n
		}
		return out, nil
	case json.RawMessage:
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			return nil, fmt.Errorf("failed to unmarshal JSON data: %w", err)
		}
		return decoded, nil
	default:
		jsonBytes, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON data: %w", err)
		}
		var decoded any
		if err := json.Unmarshal(jsonBytes, &decoded); err != nil {
			return nil, fmt.Errorf("failed to unmarshal JSON data: %w", err)
		}
		return decoded, nil
	}
}

// decodePropValues reads a generic JSON list of {"id", "data"} objects.
func decodePropValues(raw any) ([]bcms.PropValue, bool) {
	list, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	values := make([]bcms.PropValue, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		id, ok := obj["id"].(string)
		if !ok {
			return nil, false
		}
		values = append(values, bcms.PropValue{ID: id, Data: obj["data"]})
	}
	return values, true
}

// groupPointerValue is the decoded GROUP_POINTER value payload.
type groupPointerValue struct {
	GroupID string
	Items   [][]bcms.PropValue
}

func decodeGroupPointerValue(raw any) (*groupPointerValue, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected an object")
	}
	groupID, ok := obj["groupId"].(string)
	if !ok {
		return nil, fmt.Errorf("expected \"groupId\" to be a string")
	}
	out := &groupPointerValue{GroupID: groupID}

	rawItems, exists := obj["items"]
	if !exists || rawItems == nil {
		return out, nil
	}
	items, ok := rawItems.([]any)
	if !ok {
		return nil, fmt.Errorf("expected \"items\" to be an array")
	}
	for i, rawItem := range items {
		item, ok := rawItem.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected \"items.%d\" to be an object", i)
		}
		values, ok := decodePropValues(item["values"])
		if !ok {
			return nil, fmt.Errorf("expected \"items.%d.values\" to be a list of prop values", i)
		}
		out.Items = append(out.Items, values)
	}
	return out, nil
}

// stringList returns the elements of a generic JSON array when all of them
// are strings.
func stringList(raw any) ([]string, bool) {
	list, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
