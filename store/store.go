// Package store persists extracted products in SQLite, or in a remote libsql
// database when the DSN is a libsql:// or http(s):// URL.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/daltunay/perfumes/models"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// ErrNotFound is returned when no product has the requested slug.
var ErrNotFound = errors.New("product not found")

const productColumns = `id, slug, url, name, type, tags, cas_no, odour, solvent, synonyms, manufacturer, description, updated_at`

// Store is a product table. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open connects to dsn and runs Init.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("store: empty dsn")
	}

	driver := "sqlite"
	if isRemote(dsn) {
		driver = "libsql"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// One writer at a time; this also keeps ":memory:" on a single
		// connection.
		db.SetMaxOpenConns(1)
		if dsn != ":memory:" {
			if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
				db.Close()
				return nil, fmt.Errorf("store: enable wal: %w", err)
			}
		}
	}

	s := &Store{db: db, now: time.Now}
	if err := s.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func isRemote(dsn string) bool {
	for _, prefix := range []string{"libsql://", "https://", "http://", "wss://", "ws://"} {
		if strings.HasPrefix(dsn, prefix) {
			return true
		}
	}
	return false
}

// Init creates the products table and its indexes if they do not exist.
func (s *Store) Init(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: apply schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert inserts or replaces products by slug in one transaction. The
// products are only read; ID and UpdatedAt are visible through Get and List.
func (s *Store) Upsert(ctx context.Context, products []*models.Product) error {
	if len(products) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (slug, url, name, type, tags, cas_no, odour, solvent, synonyms, manufacturer, description, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (slug) DO UPDATE SET
			url = excluded.url,
			name = excluded.name,
			type = excluded.type,
			tags = excluded.tags,
			cas_no = excluded.cas_no,
			odour = excluded.odour,
			solvent = excluded.solvent,
			synonyms = excluded.synonyms,
			manufacturer = excluded.manufacturer,
			description = excluded.description,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("store: prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := s.now().UTC().Truncate(time.Millisecond)
	for _, p := range products {
		_, err := stmt.ExecContext(ctx,
			p.Slug, p.URL, p.Name,
			nullString(p.Type),
			encodeList(p.Tags),
			encodeList(p.CASNo),
			encodeList(p.Odour),
			nullString(p.Solvent),
			encodeList(p.Synonyms),
			nullString(p.Manufacturer),
			nullString(p.Description),
			now.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("store: upsert %s: %w", p.Slug, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// Get returns the product with the given slug, or ErrNotFound.
func (s *Store) Get(ctx context.Context, slug string) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE slug = ?`, slug)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", slug, err)
	}
	return p, nil
}

// List returns the products passing filter, ordered by name, then slug.
// Filtering happens after the scan since list fields are stored as JSON.
func (s *Store) List(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY name COLLATE NOCASE, slug`)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		if filter.Matches(p) {
			products = append(products, p)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	return products, nil
}

// Slugs returns the slug of every stored product.
func (s *Store) Slugs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT slug FROM products ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("store: slugs: %w", err)
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("store: scan slug: %w", err)
		}
		slugs = append(slugs, slug)
	}
	return slugs, rows.Err()
}

// Count returns the number of stored products.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*models.Product, error) {
	var (
		p                                 models.Product
		typ, solvent, manufacturer, descr sql.NullString
		tags, casNo, odour, synonyms      sql.NullString
		updatedAt                         int64
	)
	err := row.Scan(&p.ID, &p.Slug, &p.URL, &p.Name,
		&typ, &tags, &casNo, &odour, &solvent, &synonyms, &manufacturer, &descr, &updatedAt)
	if err != nil {
		return nil, err
	}

	p.Type = stringPtr(typ)
	p.Solvent = stringPtr(solvent)
	p.Manufacturer = stringPtr(manufacturer)
	p.Description = stringPtr(descr)
	for _, f := range []struct {
		dst *[]string
		src sql.NullString
	}{
		{&p.Tags, tags},
		{&p.CASNo, casNo},
		{&p.Odour, odour},
		{&p.Synonyms, synonyms},
	} {
		if *f.dst, err = decodeList(f.src); err != nil {
			return nil, fmt.Errorf("decode %s: %w", p.Slug, err)
		}
	}
	p.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	models.Normalize(&p)
	return &p, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// Lists are stored as JSON arrays; NULL means absent.
func encodeList(items []string) sql.NullString {
	if len(items) == 0 {
		return sql.NullString{}
	}
	b, _ := json.Marshal(items)
	return sql.NullString{String: string(b), Valid: true}
}

func decodeList(ns sql.NullString) ([]string, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(ns.String), &items); err != nil {
		return nil, err
	}
	return items, nil
}
