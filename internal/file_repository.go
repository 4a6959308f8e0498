package internal

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bcms/bcms"
	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"
)

//go:embed schemas/*.json
var documentSchemaFS embed.FS

// Content collections as laid out under a content directory.
const (
	CollectionGroups    = "groups"
	CollectionTemplates = "templates"
	CollectionEntries   = "entries"
	CollectionMedia     = "media"
	CollectionLanguages = "languages"
)

var collectionSchemaFiles = map[string]string{
	CollectionGroups:    "schemas/group.json",
	CollectionTemplates: "schemas/template.json",
	CollectionEntries:   "schemas/entry.json",
	CollectionMedia:     "schemas/media.json",
	CollectionLanguages: "schemas/language.json",
}

// FileRepository serves content loaded from JSON documents on disk. The
// directory holds one sub-directory per collection; every *.json file in it
// contains a single document or an array of documents. Documents are checked
// against the collection's JSON Schema before they are decoded.
type FileRepository struct {
	*MemoryRepository
	dir string
}

// NewFileRepository loads every collection under dir. Missing collection
// directories are treated as empty.
func NewFileRepository(dir string) (*FileRepository, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read content directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content path is not a directory: %s", dir)
	}

	schemas, err := loadDocumentSchemas()
	if err != nil {
		return nil, err
	}

	repo := &FileRepository{MemoryRepository: NewMemoryRepository(), dir: dir}
	for _, collection := range []string{CollectionLanguages, CollectionMedia, CollectionGroups, CollectionTemplates, CollectionEntries} {
		count, err := repo.loadCollection(collection, schemas[collection])
		if err != nil {
			return nil, err
		}
		zap.S().Debugw("loaded content collection", "dir", dir, "collection", collection, "documents", count)
	}

	return repo, nil
}

// Dir returns the directory the repository was loaded from.
func (r *FileRepository) Dir() string {
	return r.dir
}

func (r *FileRepository) loadCollection(collection string, schema *jsonschema.Resolved) (int, error) {
	collectionDir := filepath.Join(r.dir, collection)
	files, err := os.ReadDir(collectionDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read %s directory: %w", collection, err)
	}

	var names []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".json") {
			names = append(names, file.Name())
		}
	}
	sort.Strings(names)

	count := 0
	for _, name := range names {
		path := filepath.Join(collectionDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, fmt.Errorf("failed to read %s: %w", path, err)
		}

		documents, err := splitDocuments(data)
		if err != nil {
			return 0, fmt.Errorf("failed to parse %s: %w", path, err)
		}

		for i, raw := range documents {
			if err := validateDocument(schema, raw); err != nil {
				return 0, fmt.Errorf("invalid document %d in %s: %w", i, path, err)
			}
			if err := r.putDocument(collection, raw); err != nil {
				return 0, fmt.Errorf("failed to decode document %d in %s: %w", i, path, err)
			}
			count++
		}
	}
	return count, nil
}

func (r *FileRepository) putDocument(collection string, raw json.RawMessage) error {
	switch collection {
	case CollectionGroups:
		var group bcms.Group
		if err := json.Unmarshal(raw, &group); err != nil {
			return err
		}
		r.PutGroup(&group)
	case CollectionTemplates:
		var template bcms.Template
		if err := json.Unmarshal(raw, &template); err != nil {
			return err
		}
		r.PutTemplate(&template)
	case CollectionEntries:
		var entry bcms.Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return err
		}
		r.PutEntry(&entry)
	case CollectionMedia:
		var media bcms.Media
		if err := json.Unmarshal(raw, &media); err != nil {
			return err
		}
		r.PutMedia(&media)
	case CollectionLanguages:
		var language bcms.Language
		if err := json.Unmarshal(raw, &language); err != nil {
			return err
		}
		r.PutLanguage(&language)
	default:
		return fmt.Errorf("unknown collection %q", collection)
	}
	return nil
}

// splitDocuments returns the documents of a file holding either one JSON
// object or an array of them.
func splitDocuments(data []byte) ([]json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var documents []json.RawMessage
		if err := json.Unmarshal(data, &documents); err != nil {
			return nil, err
		}
		return documents, nil
	}
	var document json.RawMessage
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, err
	}
	return []json.RawMessage{document}, nil
}

func loadDocumentSchemas() (map[string]*jsonschema.Resolved, error) {
	out := make(map[string]*jsonschema.Resolved, len(collectionSchemaFiles))
	for collection, file := range collectionSchemaFiles {
		data, err := documentSchemaFS.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", file, err)
		}
		var schema jsonschema.Schema
		if err := json.Unmarshal(data, &schema); err != nil {
			return nil, fmt.Errorf("failed to unmarshal into jsonschema.Schema: %w", err)
		}
		resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to resolve JSON schema %s: %w", file, err)
		}
		out[collection] = resolved
	}
	return out, nil
}

func validateDocument(schema *jsonschema.Resolved, raw json.RawMessage) error {
	var document any
	if err := json.Unmarshal(raw, &document); err != nil {
		return fmt.Errorf("failed to unmarshal JSON data: %w", err)
	}
	if err := schema.Validate(document); err != nil {
		return fmt.Errorf("JSON validation failed: %w", err)
	}
	return nil
}
