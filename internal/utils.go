package internal

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bcms/bcms"
	"github.com/jackc/pgx/v5"
)

func sanitizeIdentifier(name string) string {
	if name == "" {
		return ""
	}
	parts := strings.Split(name, ".")
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.Trim(part, " \"")
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}
	if len(clean) == 0 {
		clean = []string{name}
	}
	return pgx.Identifier(clean).Sanitize()
}

// documentTables maps each content collection to its sanitized table name.
func documentTables(names bcms.TableNames) map[string]string {
	return map[string]string{
		CollectionGroups:    sanitizeIdentifier(names.Groups),
		CollectionTemplates: sanitizeIdentifier(names.Templates),
		CollectionEntries:   sanitizeIdentifier(names.Entries),
		CollectionMedia:     sanitizeIdentifier(names.Media),
		CollectionLanguages: sanitizeIdentifier(names.Languages),
	}
}

// Document tables share one layout: the lookup key and the JSON document.
func findDocumentQuery(table string) string {
	return fmt.Sprintf("SELECT data FROM %s WHERE id = $1", table)
}

func listDocumentsQuery(table string) string {
	return fmt.Sprintf("SELECT data FROM %s ORDER BY id", table)
}

func upsertDocumentQuery(table string) string {
	return fmt.Sprintf("INSERT INTO %s (id, data) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data", table)
}

// CreateDocumentTableStatements returns the DDL for the document tables.
// jsonType is the column type of the data column, e.g. JSONB or TEXT.
func CreateDocumentTableStatements(names bcms.TableNames, jsonType string) []string {
	tables := documentTables(names)
	stmts := make([]string, 0, len(tables))
	for _, collection := range []string{CollectionGroups, CollectionTemplates, CollectionEntries, CollectionMedia, CollectionLanguages} {
		stmts = append(stmts, fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS %s (id TEXT PRIMARY KEY, data %s NOT NULL)", tables[collection], jsonType))
	}
	return stmts
}

func decodeDocument[T any](data []byte) (*T, error) {
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &out, nil
}
