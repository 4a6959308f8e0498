package internal

import (
	"context"
	"fmt"

	"github.com/bcms/bcms"
	"go.uber.org/zap"
)

// ContentResolver materialises stored values into client-facing trees.
// Resolution is best-effort: any reference that cannot be followed is left
// out of the tree and the rest is still returned.
type ContentResolver struct {
	repos bcms.Repositories
}

func NewContentResolver(repos bcms.Repositories) *ContentResolver {
	return &ContentResolver{repos: repos}
}

// Parse resolves req.Values against req.Props. GROUP_POINTER nesting does not
// count against MaxDepth; ENTRY_POINTER nesting does.
func (r *ContentResolver) Parse(ctx context.Context, req bcms.ParseRequest) bcms.ResolvedTree {
	tree := bcms.ResolvedTree{}

	for i := range req.Props {
		prop := &req.Props[i]
		level := req.Level + "." + prop.Name

		value, found := findPropValue(req.Values, prop.ID)
		if !found {
			zap.S().Debugw("omitting prop without value", "level", level, "propId", prop.ID)
			continue
		}
		data, err := normalizeJSON(value.Data)
		if err != nil {
			zap.S().Warnw("omitting prop with undecodable value", "level", level, "error", err)
			continue
		}

		resolved, ok := r.resolveProp(ctx, prop, data, req, level)
		if !ok {
			continue
		}
		tree[prop.Name] = resolved
	}

	return tree
}

func (r *ContentResolver) resolveProp(ctx context.Context, prop *bcms.Prop, data any, req bcms.ParseRequest, level string) (any, bool) {
	switch prop.Type {
	case bcms.PropTypeString, bcms.PropTypeNumber, bcms.PropTypeBoolean, bcms.PropTypeDate:
		return resolvePrimitive(prop, data, level)
	case bcms.PropTypeEnumeration:
		return resolveEnum(prop, data, level)
	case bcms.PropTypeMedia:
		return r.resolveMedia(ctx, prop, data, level)
	case bcms.PropTypeGroupPointer:
		return r.resolveGroupPointer(ctx, prop, data, req, level)
	case bcms.PropTypeEntryPointer:
		return r.resolveEntryPointer(ctx, prop, data, req, level)
	default:
		zap.S().Debugw("omitting prop of unknown type", "level", level, "type", prop.Type)
		return nil, false
	}
}

func resolvePrimitive(prop *bcms.Prop, data any, level string) (any, bool) {
	list, ok := data.([]any)
	if !ok {
		zap.S().Debugw("omitting primitive prop with non-array data", "level", level)
		return nil, false
	}
	if prop.Array {
		return list, true
	}
	if len(list) == 0 {
		return nil, false
	}
	return list[0], true
}

func resolveEnum(prop *bcms.Prop, data any, level string) (any, bool) {
	items := []string{}
	if enum, ok := prop.DefaultData.(bcms.PropEnumData); ok && enum.Items != nil {
		items = append(items, enum.Items...)
	}

	var selected any
	if list, ok := data.([]any); ok && len(list) > 0 {
		selected = list[0]
	} else if !ok {
		zap.S().Debugw("enumeration prop has non-array data", "level", level)
	}

	return map[string]any{
		"items":    items,
		"selected": selected,
	}, true
}

func (r *ContentResolver) resolveMedia(ctx context.Context, prop *bcms.Prop, data any, level string) (any, bool) {
	list, ok := data.([]any)
	if !ok {
		zap.S().Debugw("omitting media prop with non-array data", "level", level)
		return nil, false
	}

	resolved := make([]any, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		mediaID, _ := obj["id"].(string)
		altText, _ := obj["altText"].(string)

		media, err := r.repos.Media.FindMediaByID(ctx, mediaID)
		if err != nil {
			zap.S().Warnw("media lookup failed", "level", level, "index", i, "mediaId", mediaID, "error", err)
			continue
		}
		if media == nil {
			zap.S().Debugw("omitting missing media", "level", level, "index", i, "mediaId", mediaID)
			continue
		}

		src, err := r.repos.MediaPath.ResolveMediaPath(ctx, media)
		if err != nil {
			zap.S().Warnw("media path resolution failed", "level", level, "mediaId", mediaID, "error", err)
			continue
		}

		if altText == "" {
			altText = media.AltText
		}
		resolved = append(resolved, map[string]any{
			"_id":      media.ID,
			"src":      src,
			"altText":  altText,
			"name":     media.Name,
			"mimetype": media.MimeType,
			"width":    media.Width,
			"height":   media.Height,
			"caption":  media.Caption,
		})
	}

	if len(resolved) == 0 {
		return nil, false
	}
	if prop.Array {
		return resolved, true
	}
	return resolved[0], true
}

func (r *ContentResolver) resolveGroupPointer(ctx context.Context, prop *bcms.Prop, data any, req bcms.ParseRequest, level string) (any, bool) {
	pointer, ok := prop.DefaultData.(bcms.PropGroupPointerData)
	if !ok {
		return nil, false
	}
	value, err := decodeGroupPointerValue(data)
	if err != nil {
		zap.S().Debugw("omitting undecodable group pointer", "level", level, "error", err)
		return nil, false
	}

	group, err := r.repos.Groups.FindGroupByID(ctx, pointer.GroupID)
	if err != nil {
		zap.S().Warnw("group lookup failed", "level", level, "groupId", pointer.GroupID, "error", err)
		return nil, false
	}
	if group == nil {
		zap.S().Debugw("omitting missing group", "level", level, "groupId", pointer.GroupID)
		return nil, false
	}

	items := make([]bcms.ResolvedTree, 0, len(value.Items))
	for i, values := range value.Items {
		items = append(items, r.Parse(ctx, bcms.ParseRequest{
			Props:        group.Props,
			Values:       values,
			MaxDepth:     req.MaxDepth,
			Depth:        req.Depth,
			Level:        fmt.Sprintf("%s.items.%d", level, i),
			OnlyLanguage: req.OnlyLanguage,
		}))
	}

	if prop.Array {
		return items, true
	}
	if len(items) == 0 {
		return nil, false
	}
	return items[0], true
}

func (r *ContentResolver) resolveEntryPointer(ctx context.Context, prop *bcms.Prop, data any, req bcms.ParseRequest, level string) (any, bool) {
	entryIDs, ok := stringList(data)
	if !ok {
		zap.S().Debugw("omitting entry pointer with non-string ids", "level", level)
		return nil, false
	}

	if req.Depth >= req.MaxDepth {
		if prop.Array {
			return entryIDs, true
		}
		if len(entryIDs) == 0 {
			return nil, false
		}
		return entryIDs[0], true
	}

	resolved := make([]bcms.ResolvedTree, 0, len(entryIDs))
	for _, entryID := range entryIDs {
		entry, err := r.repos.Entries.FindEntryByID(ctx, entryID)
		if err != nil {
			zap.S().Warnw("entry lookup failed", "level", level, "entryId", entryID, "error", err)
			continue
		}
		if entry == nil {
			zap.S().Debugw("omitting missing entry", "level", level, "entryId", entryID)
			continue
		}
		template, err := r.repos.Templates.FindTemplateByID(ctx, entry.TemplateID)
		if err != nil {
			zap.S().Warnw("template lookup failed", "level", level, "templateId", entry.TemplateID, "error", err)
			continue
		}
		if template == nil {
			zap.S().Debugw("omitting entry with missing template", "level", level, "entryId", entryID, "templateId", entry.TemplateID)
			continue
		}

		resolved = append(resolved, r.resolveEntry(ctx, entry, template, req.MaxDepth, req.Depth+1, req.OnlyLanguage, level))
	}

	if len(resolved) == 0 {
		return nil, false
	}
	if prop.Array {
		return resolved, true
	}
	return resolved[0], true
}

// resolveEntry parses every language meta of entry against template at
// depth. Metas in unknown languages are skipped.
func (r *ContentResolver) resolveEntry(ctx context.Context, entry *bcms.Entry, template *bcms.Template, maxDepth, depth int, onlyLanguage, level string) bcms.ResolvedTree {
	out := bcms.ResolvedTree{"_id": entry.ID}

	for _, meta := range entry.Meta {
		if onlyLanguage != "" && meta.Lng != onlyLanguage {
			continue
		}
		language, err := r.repos.Languages.FindLanguageByCode(ctx, meta.Lng)
		if err != nil {
			zap.S().Warnw("language lookup failed", "level", level, "lng", meta.Lng, "error", err)
			continue
		}
		if language == nil {
			zap.S().Debugw("omitting meta in unknown language", "level", level, "entryId", entry.ID, "lng", meta.Lng)
			continue
		}

		out[meta.Lng] = r.Parse(ctx, bcms.ParseRequest{
			Props:        template.Props,
			Values:       meta.Props,
			MaxDepth:     maxDepth,
			Depth:        depth,
			Level:        level + "." + meta.Lng,
			OnlyLanguage: onlyLanguage,
		})
	}

	return out
}
