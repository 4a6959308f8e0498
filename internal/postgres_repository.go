package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bcms/bcms"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// documentPool is the subset of pgxpool.Pool the repository needs.
type documentPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresRepository serves lookups from JSONB document tables. Every table
// has the layout (id TEXT PRIMARY KEY, data JSONB); languages are keyed by
// code.
type PostgresRepository struct {
	pool    documentPool
	tables  map[string]string
	breaker *CircuitBreaker
}

// NewPostgresRepository creates a repository over pool. breaker may be nil.
func NewPostgresRepository(pool documentPool, names bcms.TableNames, breaker *CircuitBreaker) *PostgresRepository {
	return &PostgresRepository{
		pool:    pool,
		tables:  documentTables(names),
		breaker: breaker,
	}
}

func (r *PostgresRepository) FindGroupByID(ctx context.Context, id string) (*bcms.Group, error) {
	return findPostgresDocument[bcms.Group](ctx, r, CollectionGroups, id)
}

func (r *PostgresRepository) ListGroups(ctx context.Context) ([]*bcms.Group, error) {
	return listPostgresDocuments[bcms.Group](ctx, r, CollectionGroups)
}

func (r *PostgresRepository) FindTemplateByID(ctx context.Context, id string) (*bcms.Template, error) {
	return findPostgresDocument[bcms.Template](ctx, r, CollectionTemplates, id)
}

func (r *PostgresRepository) ListTemplates(ctx context.Context) ([]*bcms.Template, error) {
	return listPostgresDocuments[bcms.Template](ctx, r, CollectionTemplates)
}

func (r *PostgresRepository) FindEntryByID(ctx context.Context, id string) (*bcms.Entry, error) {
	return findPostgresDocument[bcms.Entry](ctx, r, CollectionEntries, id)
}

func (r *PostgresRepository) ListEntries(ctx context.Context) ([]*bcms.Entry, error) {
	return listPostgresDocuments[bcms.Entry](ctx, r, CollectionEntries)
}

func (r *PostgresRepository) FindMediaByID(ctx context.Context, id string) (*bcms.Media, error) {
	return findPostgresDocument[bcms.Media](ctx, r, CollectionMedia, id)
}

func (r *PostgresRepository) FindLanguageByCode(ctx context.Context, code string) (*bcms.Language, error) {
	return findPostgresDocument[bcms.Language](ctx, r, CollectionLanguages, code)
}

func (r *PostgresRepository) SaveGroup(ctx context.Context, group *bcms.Group) error {
	return r.save(ctx, CollectionGroups, group.ID, group)
}

func (r *PostgresRepository) SaveTemplate(ctx context.Context, template *bcms.Template) error {
	return r.save(ctx, CollectionTemplates, template.ID, template)
}

func (r *PostgresRepository) SaveEntry(ctx context.Context, entry *bcms.Entry) error {
	return r.save(ctx, CollectionEntries, entry.ID, entry)
}

func (r *PostgresRepository) SaveMedia(ctx context.Context, media *bcms.Media) error {
	return r.save(ctx, CollectionMedia, media.ID, media)
}

func (r *PostgresRepository) SaveLanguage(ctx context.Context, language *bcms.Language) error {
	return r.save(ctx, CollectionLanguages, language.Code, language)
}

// CreateTables creates the document tables when they do not exist.
func (r *PostgresRepository) CreateTables(ctx context.Context, names bcms.TableNames) error {
	for _, stmt := range CreateDocumentTableStatements(names, "JSONB") {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) save(ctx context.Context, collection, id string, document any) error {
	if err := r.breaker.Allow(); err != nil {
		return err
	}
	data, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("failed to encode %s %q: %w", collection, id, err)
	}
	_, err = r.pool.Exec(ctx, upsertDocumentQuery(r.tables[collection]), id, data)
	r.breaker.Observe(err)
	if err != nil {
		return fmt.Errorf("failed to save %s %q: %w", collection, id, err)
	}
	return nil
}

func findPostgresDocument[T any](ctx context.Context, r *PostgresRepository, collection, id string) (*T, error) {
	if err := r.breaker.Allow(); err != nil {
		zap.S().Warnw("postgres lookup rejected by circuit breaker", "collection", collection, "id", id)
		return nil, err
	}

	var data []byte
	err := r.pool.QueryRow(ctx, findDocumentQuery(r.tables[collection]), id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		r.breaker.RecordSuccess()
		return nil, nil
	}
	r.breaker.Observe(err)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s %q: %w", collection, id, err)
	}

	return decodeDocument[T](data)
}

func listPostgresDocuments[T any](ctx context.Context, r *PostgresRepository, collection string) ([]*T, error) {
	if err := r.breaker.Allow(); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, listDocumentsQuery(r.tables[collection]))
	if err != nil {
		r.breaker.RecordFailure()
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", collection, err)
		}
		doc, err := decodeDocument[T](data)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		r.breaker.RecordFailure()
		return nil, fmt.Errorf("error iterating %s rows: %w", collection, err)
	}

	r.breaker.RecordSuccess()
	return out, nil
}
