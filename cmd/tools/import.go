package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/bcms/bcms"
	"github.com/bcms/bcms/factory"
	"github.com/bcms/bcms/internal"
	"github.com/spf13/cobra"
)

// contentWriter is implemented by the database stores.
type contentWriter interface {
	groupWriter
	templateWriter
	SaveEntry(ctx context.Context, entry *bcms.Entry) error
	SaveMedia(ctx context.Context, media *bcms.Media) error
	SaveLanguage(ctx context.Context, language *bcms.Language) error
}

func newImportCmd(a *app) *cobra.Command {
	var skipValidation bool

	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Copy a content directory into the configured database",
		Long: `import loads the JSON documents under dir, checks every group and template
for pointer loops and every entry against its template, then writes all
documents to the configured database. Run init-db first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			source, err := internal.NewFileRepository(args[0])
			if err != nil {
				return fmt.Errorf("load %s: %w", args[0], err)
			}

			if !skipValidation {
				if err := validateSource(ctx, a.config, source); err != nil {
					return err
				}
			}

			target := *a.config
			target.Content.Directory = ""
			store, closeStore, err := factory.OpenStore(ctx, &target)
			if err != nil {
				return err
			}
			a.close = closeStore

			writer, ok := store.(contentWriter)
			if !ok {
				return fmt.Errorf("store %T cannot save content", store)
			}
			counts, err := copyContent(ctx, source, writer)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d languages, %d media, %d groups, %d templates, %d entries\n",
				counts[0], counts[1], counts[2], counts[3], counts[4])
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipValidation, "skip-validation", false, "write documents without checking them")
	return cmd
}

func validateSource(ctx context.Context, config *bcms.Config, source *internal.FileRepository) error {
	engine, err := factory.NewPropEngineWithStore(ctx, config, source)
	if err != nil {
		return err
	}

	groups, err := source.ListGroups(ctx)
	if err != nil {
		return err
	}
	for _, group := range groups {
		path := []bcms.PropPathEntry{{GroupID: group.ID, Label: group.Label}}
		if err := engine.TestInfiniteLoop(ctx, group.Props, path, "group."+group.Name); err != nil {
			return fmt.Errorf("group %s: %w", group.ID, err)
		}
	}

	templates, err := source.ListTemplates(ctx)
	if err != nil {
		return err
	}
	for _, template := range templates {
		if err := engine.TestInfiniteLoop(ctx, template.Props, nil, "template."+template.Name); err != nil {
			return fmt.Errorf("template %s: %w", template.ID, err)
		}
	}

	entries, err := source.ListEntries(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, entry := range entries {
		if err := engine.CheckEntry(ctx, entry); err != nil {
			errs = append(errs, fmt.Errorf("entry %s: %w", entry.ID, err))
		}
	}
	return errors.Join(errs...)
}

// copyContent writes every document of source to w in dependency order and
// returns the counts of languages, media, groups, templates and entries.
func copyContent(ctx context.Context, source *internal.FileRepository, w contentWriter) ([5]int, error) {
	var counts [5]int

	languages, err := source.ListLanguages(ctx)
	if err != nil {
		return counts, err
	}
	for _, language := range languages {
		if err := w.SaveLanguage(ctx, language); err != nil {
			return counts, err
		}
		counts[0]++
	}

	media, err := source.ListMedia(ctx)
	if err != nil {
		return counts, err
	}
	for _, m := range media {
		if err := w.SaveMedia(ctx, m); err != nil {
			return counts, err
		}
		counts[1]++
	}

	groups, err := source.ListGroups(ctx)
	if err != nil {
		return counts, err
	}
	for _, group := range groups {
		if err := w.SaveGroup(ctx, group); err != nil {
			return counts, err
		}
		counts[2]++
	}

	templates, err := source.ListTemplates(ctx)
	if err != nil {
		return counts, err
	}
	for _, template := range templates {
		if err := w.SaveTemplate(ctx, template); err != nil {
			return counts, err
		}
		counts[3]++
	}

	entries, err := source.ListEntries(ctx)
	if err != nil {
		return counts, err
	}
	for _, entry := range entries {
		if err := w.SaveEntry(ctx, entry); err != nil {
			return counts, err
		}
		counts[4]++
	}
	return counts, nil
}
