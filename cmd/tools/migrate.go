package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/bcms/bcms"
	"github.com/spf13/cobra"
)

type templateWriter interface {
	SaveTemplate(ctx context.Context, template *bcms.Template) error
}

type groupWriter interface {
	SaveGroup(ctx context.Context, group *bcms.Group) error
}

func newMigrateCmd(a *app) *cobra.Command {
	var (
		template bool
		save     bool
	)

	cmd := &cobra.Command{
		Use:   "migrate <groupId> <changes.json>",
		Short: "Apply prop changes to a group or template",
		Long: `migrate applies the change list in changes.json to a group (or a template
with --template) and prints the migrated props. The result is checked for
pointer loops. With --save it is written back to the store.

changes.json holds an array of changes:
  [{"add": {"label": "Hero", "type": "MEDIA"}}, {"remove": "<propId>"}]`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			changes, err := readChanges(args[1])
			if err != nil {
				return err
			}
			if err := a.openEngine(ctx); err != nil {
				return err
			}

			var props []bcms.Prop
			if template {
				props, err = a.migrateTemplate(ctx, args[0], changes, save)
			} else {
				props, err = a.migrateGroup(ctx, args[0], changes, save)
			}
			if err != nil {
				return err
			}

			output, err := json.MarshalIndent(props, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal props: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(output))
			return nil
		},
	}

	cmd.Flags().BoolVar(&template, "template", false, "the id names a template instead of a group")
	cmd.Flags().BoolVar(&save, "save", false, "write the migrated props back to the store")
	return cmd
}

func (a *app) migrateGroup(ctx context.Context, id string, changes []bcms.PropChange, save bool) ([]bcms.Prop, error) {
	group, err := a.store.FindGroupByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find group: %w", err)
	}
	if group == nil {
		return nil, fmt.Errorf("group %q not found", id)
	}

	props, err := a.engine.UpdateGroupProps(ctx, group, changes)
	if err != nil {
		return nil, err
	}
	if save {
		writer, ok := a.store.(groupWriter)
		if !ok {
			return nil, fmt.Errorf("store %T cannot save groups", a.store)
		}
		group.Props = props
		if err := writer.SaveGroup(ctx, group); err != nil {
			return nil, err
		}
		if invalidator, ok := a.engine.(bcms.CacheInvalidator); ok {
			invalidator.InvalidateGroup(group.ID)
		}
	}
	return props, nil
}

func (a *app) migrateTemplate(ctx context.Context, id string, changes []bcms.PropChange, save bool) ([]bcms.Prop, error) {
	template, err := a.store.FindTemplateByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find template: %w", err)
	}
	if template == nil {
		return nil, fmt.Errorf("template %q not found", id)
	}

	props, err := a.engine.UpdateTemplateProps(ctx, template, changes)
	if err != nil {
		return nil, err
	}
	if save {
		writer, ok := a.store.(templateWriter)
		if !ok {
			return nil, fmt.Errorf("store %T cannot save templates", a.store)
		}
		template.Props = props
		if err := writer.SaveTemplate(ctx, template); err != nil {
			return nil, err
		}
		if invalidator, ok := a.engine.(bcms.CacheInvalidator); ok {
			invalidator.InvalidateTemplate(template.ID)
		}
	}
	return props, nil
}

func readChanges(path string) ([]bcms.PropChange, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read changes: %w", err)
	}
	var changes []bcms.PropChange
	if err := json.Unmarshal(data, &changes); err != nil {
		return nil, fmt.Errorf("decode changes %s: %w", path, err)
	}
	return changes, nil
}
