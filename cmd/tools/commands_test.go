package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/bcms/bcms"
	"github.com/bcms/bcms/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	pageTemplate = `{"id":"t-page","name":"page","label":"Page","props":[
		{"id":"p-title","name":"title","label":"Title","type":"STRING","required":true,"defaultData":[]},
		{"id":"p-slug","name":"slug","label":"Slug","type":"STRING","required":true,"defaultData":[]},
		{"id":"p-card","name":"card","label":"Card","type":"GROUP_POINTER","required":false,"defaultData":{"groupId":"g-card","items":[]}}
	]}`
	cardGroup = `{"id":"g-card","name":"card","label":"Card","props":[
		{"id":"p-heading","name":"heading","label":"Heading","type":"STRING","required":true,"defaultData":[]}
	]}`
	homeEntry = `{"id":"e-home","templateId":"t-page","meta":[{"lng":"en","props":[
		{"id":"p-title","data":["Home"]},
		{"id":"p-slug","data":["home"]},
		{"id":"p-card","data":{"groupId":"g-card","items":[{"values":[{"id":"p-heading","data":["Welcome"]}]}]}}
	]}]}`
	english = `{"id":"l-en","code":"en","name":"English","nativeName":"English","def":true}`
)

func writeDocument(t *testing.T, dir, collection, name, body string) {
	t.Helper()
	path := filepath.Join(dir, collection)
	require.NoError(t, os.MkdirAll(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, name+".json"), []byte(body), 0o644))
}

func contentDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeDocument(t, dir, "languages", "en", english)
	writeDocument(t, dir, "groups", "card", cardGroup)
	writeDocument(t, dir, "templates", "page", pageTemplate)
	writeDocument(t, dir, "entries", "home", homeEntry)
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckCycles_Clean(t *testing.T) {
	out, err := run(t, "check-cycles", "--content-dir", contentDir(t))
	require.NoError(t, err, out)
	assert.Contains(t, out, "checked 1 groups and 1 templates")
}

func TestCheckCycles_ReportsLoop(t *testing.T) {
	dir := contentDir(t)
	writeDocument(t, dir, "groups", "a", `{"id":"g-a","name":"a","label":"A","props":[
		{"id":"p-b","name":"b","label":"B","type":"GROUP_POINTER","defaultData":{"groupId":"g-b","items":[]}}
	]}`)
	writeDocument(t, dir, "groups", "b", `{"id":"g-b","name":"b","label":"B","props":[
		{"id":"p-a","name":"a","label":"A","type":"GROUP_POINTER","defaultData":{"groupId":"g-a","items":[]}}
	]}`)

	out, err := run(t, "check-cycles", "--content-dir", dir)
	require.Error(t, err)
	assert.Contains(t, out, "Pointer loop detected: A -> B -> A.")
	assert.Contains(t, out, "Pointer loop detected: B -> A -> B.")
}

func TestValidateEntries(t *testing.T) {
	dir := contentDir(t)
	out, err := run(t, "validate-entries", "--content-dir", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "validated 1 entries, 0 invalid")

	writeDocument(t, dir, "entries", "broken", `{"id":"e-broken","templateId":"t-page","meta":[{"lng":"en","props":[
		{"id":"p-title","data":["Broken"]}
	]}]}`)
	out, err = run(t, "validate-entries", "--content-dir", dir)
	require.Error(t, err)
	assert.Contains(t, out, "e-broken: [entry.meta.en] -> Props and values are not the same length")
}

func TestResolve(t *testing.T) {
	out, err := run(t, "resolve", "e-home", "--content-dir", contentDir(t), "--lng", "en")
	require.NoError(t, err, out)

	var tree map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &tree))
	assert.Equal(t, "e-home", tree["_id"])
	assert.Equal(t, map[string]any{
		"title": "Home",
		"slug":  "home",
		"card":  map[string]any{"heading": "Welcome"},
	}, tree["en"])
}

func TestResolve_UnknownEntry(t *testing.T) {
	_, err := run(t, "resolve", "nope", "--content-dir", contentDir(t))
	assert.ErrorContains(t, err, `entry "nope" not found`)
}

func TestMigrate(t *testing.T) {
	dir := contentDir(t)
	changes := filepath.Join(t.TempDir(), "changes.json")
	require.NoError(t, os.WriteFile(changes, []byte(`[{"add":{"label":"Sub Heading","type":"STRING"}}]`), 0o644))

	out, err := run(t, "migrate", "g-card", changes, "--content-dir", dir)
	require.NoError(t, err, out)

	var props []bcms.Prop
	require.NoError(t, json.Unmarshal([]byte(out), &props))
	require.Len(t, props, 2)
	assert.Equal(t, "sub_heading", props[1].Name)
}

func TestMigrate_Template(t *testing.T) {
	dir := contentDir(t)
	changes := filepath.Join(t.TempDir(), "changes.json")
	require.NoError(t, os.WriteFile(changes, []byte(`[{"remove":"p-card"}]`), 0o644))

	out, err := run(t, "migrate", "t-page", changes, "--template", "--content-dir", dir)
	require.NoError(t, err, out)

	var props []bcms.Prop
	require.NoError(t, json.Unmarshal([]byte(out), &props))
	assert.Len(t, props, 2)
}

func TestMigrate_RejectsLoop(t *testing.T) {
	dir := contentDir(t)
	changes := filepath.Join(t.TempDir(), "changes.json")
	require.NoError(t, os.WriteFile(changes, []byte(`[{"add":{"label":"Self","type":"GROUP_POINTER","defaultData":{"groupId":"g-card"}}}]`), 0o644))

	_, err := run(t, "migrate", "g-card", changes, "--content-dir", dir)
	var propErr *bcms.PropError
	require.ErrorAs(t, err, &propErr)
	assert.Equal(t, bcms.ErrCodeInfiniteLoop, propErr.Code)
}

func TestInitDBAndImport_SQLite(t *testing.T) {
	t.Setenv("BCMS_DATABASE_DRIVER", bcms.DriverSQLite)
	dsn := filepath.Join(t.TempDir(), "bcms.db")
	t.Setenv("BCMS_DATABASE_DSN", dsn)

	out, err := run(t, "init-db")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Database initialized successfully.")

	out, err = run(t, "import", contentDir(t))
	require.NoError(t, err, out)
	assert.Contains(t, out, "imported 1 languages, 0 media, 1 groups, 1 templates, 1 entries")

	cfg := bcms.DefaultConfig().Database
	cfg.Driver = bcms.DriverSQLite
	cfg.DSN = dsn
	repo, err := internal.OpenSQLRepository(cfg)
	require.NoError(t, err)
	defer repo.Close()

	entry, err := repo.FindEntryByID(t.Context(), "e-home")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "t-page", entry.TemplateID)

	// The imported database serves the same commands.
	out, err = run(t, "validate-entries")
	require.NoError(t, err, out)
	assert.Contains(t, out, "validated 1 entries, 0 invalid")
}

func TestImport_RejectsInvalidEntries(t *testing.T) {
	t.Setenv("BCMS_DATABASE_DRIVER", bcms.DriverSQLite)
	t.Setenv("BCMS_DATABASE_DSN", filepath.Join(t.TempDir(), "bcms.db"))

	dir := contentDir(t)
	writeDocument(t, dir, "entries", "orphan", `{"id":"e-orphan","templateId":"t-missing","meta":[]}`)

	_, err := run(t, "import", dir)
	assert.ErrorContains(t, err, "e-orphan")
}
