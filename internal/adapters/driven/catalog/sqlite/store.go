// Package sqlite provides the corpus catalog: the landing zone for
// cleaned court decisions and the bookkeeping table of index builds.
//
// The adapter uses modernc.org/sqlite, a pure Go SQLite implementation
// that requires no CGO. The schema is managed through versioned
// migrations embedded in the migrations/ directory.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/arandu-labs/jurisrag/internal/adapters/driven/catalog/sqlite/migrations"
	"github.com/arandu-labs/jurisrag/internal/core/domain"
	"github.com/arandu-labs/jurisrag/internal/core/ports/driven"
)

var _ driven.CorpusCatalog = (*Store)(nil)

// Store is a SQLite-backed corpus catalog.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new catalog at the specified data directory.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".jurisrag", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "corpus.db")

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SaveDecisions upserts decisions by ID in a single transaction.
func (s *Store) SaveDecisions(ctx context.Context, docs []domain.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO decisions (id, text, title, court, code, article, decision_date, meta, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			title = excluded.title,
			court = excluded.court,
			code = excluded.code,
			article = excluded.article,
			decision_date = excluded.decision_date,
			meta = excluded.meta,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range docs {
		if docs[i].ID == "" {
			return fmt.Errorf("decision without ID: %w", domain.ErrInvalidInput)
		}
		var metaJSON *string
		if docs[i].Meta != nil {
			data, err := json.Marshal(docs[i].Meta)
			if err != nil {
				return fmt.Errorf("marshalling meta for %s: %w", docs[i].ID, err)
			}
			metaJSON = domain.StrPtr(string(data))
		}
		if _, err := stmt.ExecContext(ctx, docs[i].ID, docs[i].Text,
			docs[i].Title, docs[i].Court, docs[i].Code, docs[i].Article, docs[i].Date,
			metaJSON, now); err != nil {
			return fmt.Errorf("saving decision %s: %w", docs[i].ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListDecisions returns decisions ordered by ID, optionally filtered
// by tribunal.
func (s *Store) ListDecisions(ctx context.Context, tribunal string) ([]domain.Document, error) {
	query := `
		SELECT id, text, title, court, code, article, decision_date, meta
		FROM decisions
	`
	var args []any
	if tribunal != "" {
		query += " WHERE court = ? COLLATE NOCASE"
		args = append(args, tribunal)
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying decisions: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating decisions: %w", err)
	}

	return docs, nil
}

// CountDecisions returns the catalog size.
func (s *Store) CountDecisions(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM decisions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting decisions: %w", err)
	}
	return count, nil
}

// RecordIndexRun stores a completed index build generation.
func (s *Store) RecordIndexRun(ctx context.Context, run driven.IndexRun) error {
	if run.ID == "" {
		return fmt.Errorf("index run without ID: %w", domain.ErrInvalidInput)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO index_runs (id, backend, documents, chunks, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.Backend, run.Documents, run.Chunks, run.StartedAt, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("recording index run: %w", err)
	}
	return nil
}

// LastIndexRun returns the most recent build, or domain.ErrNotFound.
func (s *Store) LastIndexRun(ctx context.Context) (*driven.IndexRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, backend, documents, chunks, started_at, finished_at
		FROM index_runs ORDER BY finished_at DESC, id DESC LIMIT 1
	`)

	var run driven.IndexRun
	if err := row.Scan(&run.ID, &run.Backend, &run.Documents, &run.Chunks,
		&run.StartedAt, &run.FinishedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning index run: %w", err)
	}

	return &run, nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// scanDecision scans a decision from *sql.Rows.
func scanDecision(rows *sql.Rows) (*domain.Document, error) {
	var doc domain.Document
	var title, court, code, article, date, metaJSON sql.NullString

	if err := rows.Scan(&doc.ID, &doc.Text, &title, &court, &code,
		&article, &date, &metaJSON); err != nil {
		return nil, fmt.Errorf("scanning decision: %w", err)
	}

	if title.Valid {
		doc.Title = &title.String
	}
	if court.Valid {
		doc.Court = &court.String
	}
	if code.Valid {
		doc.Code = &code.String
	}
	if article.Valid {
		doc.Article = &article.String
	}
	if date.Valid {
		doc.Date = &date.String
	}
	if metaJSON.Valid && metaJSON.String != "" {
		if err := json.Unmarshal([]byte(metaJSON.String), &doc.Meta); err != nil {
			return nil, fmt.Errorf("unmarshaling meta: %w", err)
		}
	}

	return &doc, nil
}
