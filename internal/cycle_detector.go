package internal

import (
	"context"
	"fmt"
	"strings"

	"github.com/bcms/bcms"
)

// CycleDetector walks the group-pointer graph reachable from a prop list.
type CycleDetector struct {
	groups bcms.GroupRepository
}

func NewCycleDetector(groups bcms.GroupRepository) *CycleDetector {
	return &CycleDetector{groups: groups}
}

// TestInfiniteLoop returns a cycle error when a GROUP_POINTER prop reaches a
// group already present in path. path holds the groups of the current descent;
// each branch works on its own copy so siblings pointing at the same group are
// not reported.
func (d *CycleDetector) TestInfiniteLoop(ctx context.Context, props []bcms.Prop, path []bcms.PropPathEntry, level string) error {
	for i := range props {
		prop := &props[i]
		if prop.Type != bcms.PropTypeGroupPointer {
			continue
		}
		propLevel := level + "." + prop.Name

		pointer, ok := prop.DefaultData.(bcms.PropGroupPointerData)
		if !ok {
			return bcms.NewValidationError(bcms.ErrCodePropTypeMismatch, propLevel, "Prop defaultData is not a group pointer.")
		}

		group, err := d.groups.FindGroupByID(ctx, pointer.GroupID)
		if err != nil {
			return bcms.NewLookupError(propLevel, fmt.Sprintf("Failed to find group %q.", pointer.GroupID), err)
		}
		if group == nil {
			return bcms.NewNotFoundError(bcms.ErrCodeGroupNotFound, propLevel,
				fmt.Sprintf("Group with ID %q does not exist.", pointer.GroupID))
		}

		if pathContains(path, group.ID) {
			return bcms.NewCycleError(propLevel,
				fmt.Sprintf("Pointer loop detected: %s.", renderLoop(path, group.Label))).
				WithDetail("groupId", group.ID)
		}

		branch := make([]bcms.PropPathEntry, len(path), len(path)+1)
		copy(branch, path)
		branch = append(branch, bcms.PropPathEntry{GroupID: group.ID, Label: group.Label})

		if err := d.TestInfiniteLoop(ctx, group.Props, branch, propLevel); err != nil {
			return err
		}
	}
	return nil
}

func pathContains(path []bcms.PropPathEntry, groupID string) bool {
	for _, entry := range path {
		if entry.GroupID == groupID {
			return true
		}
	}
	return false
}

func renderLoop(path []bcms.PropPathEntry, offending string) string {
	labels := make([]string, 0, len(path)+1)
	for _, entry := range path {
		labels = append(labels, entry.Label)
	}
	labels = append(labels, offending)
	return strings.Join(labels, " -> ")
}
