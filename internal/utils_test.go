package internal

import (
	"testing"

	"github.com/bcms/bcms"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "trim quotes and spaces", input: `  "a" . "b" .. "c"  `, expected: pgx.Identifier{"a", "b", "c"}.Sanitize()},
		{name: "mixed quoted and plain", input: `foo."Bar baz"`, expected: pgx.Identifier{"foo", "Bar baz"}.Sanitize()},
		{name: "all empty parts fallback", input: "...", expected: pgx.Identifier{"..."}.Sanitize()},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeIdentifier(tt.input))
		})
	}
}

func TestCreateDocumentTableStatements(t *testing.T) {
	names := bcms.DefaultConfig().Database.TableNames
	stmts := CreateDocumentTableStatements(names, "JSONB")

	assert.Len(t, stmts, 5)
	assert.Equal(t, `CREATE TABLE IF NOT EXISTS "bcms_groups" (id TEXT PRIMARY KEY, data JSONB NOT NULL)`, stmts[0])
	assert.Contains(t, stmts[4], `"bcms_languages"`)
}

func TestDocumentQueries(t *testing.T) {
	table := sanitizeIdentifier("public.bcms_groups")

	assert.Equal(t, `SELECT data FROM "public"."bcms_groups" WHERE id = $1`, findDocumentQuery(table))
	assert.Equal(t, `SELECT data FROM "public"."bcms_groups" ORDER BY id`, listDocumentsQuery(table))
	assert.Contains(t, upsertDocumentQuery(table), "ON CONFLICT (id) DO UPDATE")
}
