package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/leapstack-labs/portion/pkg/ratio"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// Dialect names the SQL backend of a store.
type Dialect string

// Supported dialects.
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// IsDSN reports whether path is a PostgreSQL connection URL.
func IsDSN(path string) bool {
	return strings.HasPrefix(path, "postgres://") || strings.HasPrefix(path, "postgresql://")
}

// SQLStore implements Store on database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

var _ Store = (*SQLStore)(nil)

// Open opens the store at path and applies pending migrations. A path of
// ":memory:" opens a private in-memory SQLite database.
func Open(ctx context.Context, path string, logger *slog.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	driver, dialect, dsn := "sqlite", DialectSQLite, path
	switch {
	case IsDSN(path):
		driver, dialect = "pgx", DialectPostgres
	case path == ":memory:":
		dsn = ":memory:?_pragma=foreign_keys(1)"
	default:
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
		dsn = path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// One connection keeps an in-memory database alive and serializes writers.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", dialect, err)
	}

	s := New(db, dialect, logger)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Debug("state store opened", slog.String("dialect", string(dialect)))
	return s, nil
}

// New wraps an open database. It does not run migrations.
func New(db *sql.DB, dialect Dialect, logger *slog.Logger) *SQLStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLStore{db: db, dialect: dialect, logger: logger}
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// rebind rewrites ? placeholders into $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SaveDocument stores doc and its measurements in one transaction.
func (s *SQLStore) SaveDocument(ctx context.Context, doc *Document) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	s.logger.Debug("saving document",
		slog.String("id", doc.ID),
		slog.String("source", doc.Source),
		slog.Int("measurements", len(doc.Measurements)))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.rebind(
		`INSERT INTO documents (id, source, body, token_count, diagnostic_count, parsed_at) VALUES (?, ?, ?, ?, ?, ?)`),
		doc.ID, doc.Source, doc.Text, doc.Tokens, doc.Diagnostics, doc.ParsedAt,
	); err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	insert := s.rebind(`INSERT INTO measurements
		(document_id, position, raw, span_start, span_end, value, unit, dimension, best, magnitude)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	for _, m := range doc.Measurements {
		mag, err := m.Magnitude.MarshalJSON()
		if err != nil {
			return fmt.Errorf("failed to encode magnitude: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insert,
			doc.ID, m.Position, m.Raw, m.Start, m.End, m.Value.String(), m.Unit, m.Dimension.String(), m.Best, string(mag),
		); err != nil {
			return fmt.Errorf("failed to insert measurement %d: %w", m.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document with its text and measurements.
func (s *SQLStore) GetDocument(ctx context.Context, id string) (*Document, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	doc := &Document{}
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, source, body, token_count, diagnostic_count, parsed_at FROM documents WHERE id = ?`), id,
	).Scan(&doc.ID, &doc.Source, &doc.Text, &doc.Tokens, &doc.Diagnostics, &doc.ParsedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	doc.ParsedAt = doc.ParsedAt.UTC()

	if doc.Measurements, err = s.listMeasurements(ctx, id); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *SQLStore) listMeasurements(ctx context.Context, id string) ([]Measurement, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT position, raw, span_start, span_end, value, unit, dimension, best, magnitude
		FROM measurements WHERE document_id = ? ORDER BY position`), id)
	if err != nil {
		return nil, fmt.Errorf("failed to list measurements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Measurement
	for rows.Next() {
		var (
			m                   Measurement
			value, dim, magJSON string
		)
		if err := rows.Scan(&m.Position, &m.Raw, &m.Start, &m.End, &value, &m.Unit, &dim, &m.Best, &magJSON); err != nil {
			return nil, fmt.Errorf("failed to scan measurement: %w", err)
		}
		if m.Value, err = ratio.Parse(value); err != nil {
			return nil, fmt.Errorf("measurement %d: %w", m.Position, err)
		}
		if err := m.Dimension.UnmarshalText([]byte(dim)); err != nil {
			return nil, fmt.Errorf("measurement %d: %w", m.Position, err)
		}
		if err := m.Magnitude.UnmarshalJSON([]byte(magJSON)); err != nil {
			return nil, fmt.Errorf("measurement %d: %w", m.Position, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListDocuments returns the most recently parsed documents without their
// text or measurements. A limit of zero or less returns all of them.
func (s *SQLStore) ListDocuments(ctx context.Context, limit int) ([]*Document, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	query := `SELECT id, source, token_count, diagnostic_count, parsed_at FROM documents ORDER BY parsed_at DESC, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []*Document
	for rows.Next() {
		doc := &Document{}
		var parsedAt time.Time
		if err := rows.Scan(&doc.ID, &doc.Source, &doc.Tokens, &doc.Diagnostics, &parsedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.ParsedAt = parsedAt.UTC()
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document and its measurements.
func (s *SQLStore) DeleteDocument(ctx context.Context, id string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM measurements WHERE document_id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete measurements: %w", err)
	}
	res, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM documents WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	return tx.Commit()
}
