package internal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bcms/bcms"
	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// SQLRepository serves lookups from document tables over database/sql. It
// backs the sqlite, duckdb and lib/pq drivers; all of them accept $N
// placeholders. Documents are stored as JSON text.
type SQLRepository struct {
	db      *sql.DB
	driver  string
	tables  map[string]string
	breaker *CircuitBreaker
}

// OpenSQLRepository opens a database/sql handle for cfg.Driver and cfg.DSN.
func OpenSQLRepository(cfg bcms.DatabaseConfig) (*SQLRepository, error) {
	driverName, err := sqlDriverName(cfg.Driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	breaker := NewCircuitBreaker(cfg.BreakerThreshold, cfg.BreakerWindow, cfg.BreakerOpenFor)
	return NewSQLRepository(db, cfg.Driver, cfg.TableNames, breaker), nil
}

// NewSQLRepository wraps an open handle. breaker may be nil.
func NewSQLRepository(db *sql.DB, driver string, names bcms.TableNames, breaker *CircuitBreaker) *SQLRepository {
	return &SQLRepository{
		db:      db,
		driver:  driver,
		tables:  documentTables(names),
		breaker: breaker,
	}
}

func sqlDriverName(driver string) (string, error) {
	switch driver {
	case bcms.DriverSQLite:
		return "sqlite", nil
	case bcms.DriverDuckDB:
		return "duckdb", nil
	case bcms.DriverPostgres:
		return "postgres", nil
	default:
		return "", fmt.Errorf("unsupported database/sql driver %q", driver)
	}
}

// DB returns the underlying handle.
func (r *SQLRepository) DB() *sql.DB {
	return r.db
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// CreateTables creates the document tables when they do not exist.
func (r *SQLRepository) CreateTables(ctx context.Context, names bcms.TableNames) error {
	jsonType := "TEXT"
	if r.driver == bcms.DriverPostgres {
		jsonType = "JSONB"
	}
	for _, stmt := range CreateDocumentTableStatements(names, jsonType) {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

func (r *SQLRepository) FindGroupByID(ctx context.Context, id string) (*bcms.Group, error) {
	return findSQLDocument[bcms.Group](ctx, r, CollectionGroups, id)
}

func (r *SQLRepository) ListGroups(ctx context.Context) ([]*bcms.Group, error) {
	return listSQLDocuments[bcms.Group](ctx, r, CollectionGroups)
}

func (r *SQLRepository) FindTemplateByID(ctx context.Context, id string) (*bcms.Template, error) {
	return findSQLDocument[bcms.Template](ctx, r, CollectionTemplates, id)
}

func (r *SQLRepository) ListTemplates(ctx context.Context) ([]*bcms.Template, error) {
	return listSQLDocuments[bcms.Template](ctx, r, CollectionTemplates)
}

func (r *SQLRepository) FindEntryByID(ctx context.Context, id string) (*bcms.Entry, error) {
	return findSQLDocument[bcms.Entry](ctx, r, CollectionEntries, id)
}

func (r *SQLRepository) ListEntries(ctx context.Context) ([]*bcms.Entry, error) {
	return listSQLDocuments[bcms.Entry](ctx, r, CollectionEntries)
}

func (r *SQLRepository) FindMediaByID(ctx context.Context, id string) (*bcms.Media, error) {
	return findSQLDocument[bcms.Media](ctx, r, CollectionMedia, id)
}

func (r *SQLRepository) FindLanguageByCode(ctx context.Context, code string) (*bcms.Language, error) {
	return findSQLDocument[bcms.Language](ctx, r, CollectionLanguages, code)
}

func (r *SQLRepository) SaveGroup(ctx context.Context, group *bcms.Group) error {
	return r.save(ctx, CollectionGroups, group.ID, group)
}

func (r *SQLRepository) SaveTemplate(ctx context.Context, template *bcms.Template) error {
	return r.save(ctx, CollectionTemplates, template.ID, template)
}

func (r *SQLRepository) SaveEntry(ctx context.Context, entry *bcms.Entry) error {
	return r.save(ctx, CollectionEntries, entry.ID, entry)
}

func (r *SQLRepository) SaveMedia(ctx context.Context, media *bcms.Media) error {
	return r.save(ctx, CollectionMedia, media.ID, media)
}

func (r *SQLRepository) SaveLanguage(ctx context.Context, language *bcms.Language) error {
	return r.save(ctx, CollectionLanguages, language.Code, language)
}

func (r *SQLRepository) save(ctx context.Context, collection, id string, document any) error {
	if err := r.breaker.Allow(); err != nil {
		return err
	}
	data, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("failed to encode %s %q: %w", collection, id, err)
	}
	_, err = r.db.ExecContext(ctx, upsertDocumentQuery(r.tables[collection]), id, string(data))
	r.breaker.Observe(err)
	if err != nil {
		return fmt.Errorf("failed to save %s %q: %w", collection, id, err)
	}
	return nil
}

func findSQLDocument[T any](ctx context.Context, r *SQLRepository, collection, id string) (*T, error) {
	if err := r.breaker.Allow(); err != nil {
		return nil, err
	}

	var data string
	err := r.db.QueryRowContext(ctx, findDocumentQuery(r.tables[collection]), id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		r.breaker.RecordSuccess()
		return nil, nil
	}
	r.breaker.Observe(err)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s %q: %w", collection, id, err)
	}

	return decodeDocument[T]([]byte(data))
}

func listSQLDocuments[T any](ctx context.Context, r *SQLRepository, collection string) ([]*T, error) {
	if err := r.breaker.Allow(); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, listDocumentsQuery(r.tables[collection]))
	if err != nil {
		r.breaker.RecordFailure()
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", collection, err)
		}
		doc, err := decodeDocument[T]([]byte(data))
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
