package internal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bcms/bcms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLRepository(t *testing.T, driver, file string) *SQLRepository {
	t.Helper()
	cfg := bcms.DefaultConfig().Database
	cfg.Driver = driver
	cfg.DSN = filepath.Join(t.TempDir(), file)

	repo, err := OpenSQLRepository(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	require.NoError(t, repo.CreateTables(context.Background(), cfg.TableNames))
	return repo
}

func TestSQLRepository_Drivers(t *testing.T) {
	drivers := []struct {
		driver string
		file   string
	}{
		{driver: bcms.DriverSQLite, file: "bcms.db"},
		{driver: bcms.DriverDuckDB, file: "bcms.duckdb"},
	}

	for _, d := range drivers {
		t.Run(d.driver, func(t *testing.T) {
			repo := openTestSQLRepository(t, d.driver, d.file)
			ctx := context.Background()

			group := &bcms.Group{ID: "g-1", Name: "card", Label: "Card", Props: []bcms.Prop{enumProp("p", "size", "S", "M")}}
			require.NoError(t, repo.SaveGroup(ctx, group))
			require.NoError(t, repo.SaveGroup(ctx, &bcms.Group{ID: "g-0", Label: "First"}))
			require.NoError(t, repo.SaveTemplate(ctx, &bcms.Template{ID: "t-1", Props: titleSlugProps()}))
			require.NoError(t, repo.SaveEntry(ctx, &bcms.Entry{ID: "e-1", TemplateID: "t-1", Meta: []bcms.EntryMeta{{Lng: "en"}}}))
			require.NoError(t, repo.SaveMedia(ctx, &bcms.Media{ID: "m-1", Name: "cat.png", Width: 5}))
			require.NoError(t, repo.SaveLanguage(ctx, &bcms.Language{ID: "l-1", Code: "en", Name: "English"}))

			found, err := repo.FindGroupByID(ctx, "g-1")
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, group.Props, found.Props)

			missing, err := repo.FindGroupByID(ctx, "nope")
			require.NoError(t, err)
			assert.Nil(t, missing)

			// Saving again replaces the document.
			group.Label = "Card v2"
			require.NoError(t, repo.SaveGroup(ctx, group))
			found, err = repo.FindGroupByID(ctx, "g-1")
			require.NoError(t, err)
			assert.Equal(t, "Card v2", found.Label)

			groups, err := repo.ListGroups(ctx)
			require.NoError(t, err)
			require.Len(t, groups, 2)
			assert.Equal(t, "g-0", groups[0].ID)

			templates, err := repo.ListTemplates(ctx)
			require.NoError(t, err)
			assert.Len(t, templates, 1)

			entry, err := repo.FindEntryByID(ctx, "e-1")
			require.NoError(t, err)
			require.NotNil(t, entry)
			assert.Equal(t, "t-1", entry.TemplateID)

			entries, err := repo.ListEntries(ctx)
			require.NoError(t, err)
			assert.Len(t, entries, 1)

			media, err := repo.FindMediaByID(ctx, "m-1")
			require.NoError(t, err)
			require.NotNil(t, media)
			assert.Equal(t, 5, media.Width)

			language, err := repo.FindLanguageByCode(ctx, "en")
			require.NoError(t, err)
			require.NotNil(t, language)
			assert.Equal(t, "English", language.Name)
		})
	}
}

func TestOpenSQLRepository_UnsupportedDriver(t *testing.T) {
	cfg := bcms.DefaultConfig().Database
	cfg.Driver = bcms.DriverPgx

	_, err := OpenSQLRepository(cfg)
	assert.Error(t, err)
}
