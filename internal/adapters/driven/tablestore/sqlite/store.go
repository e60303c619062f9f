// Package sqlite provides a SQLite-backed table store. Each document's
// extracted tables are persisted as rows keyed by source filename, which
// is the scoping key for lookups.
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

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/sift-labs/tableqa/internal/adapters/driven/tablestore/sqlite/migrations"
	"github.com/sift-labs/tableqa/internal/core/domain"
	"github.com/sift-labs/tableqa/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.TableStore = (*Store)(nil)

// Store is a SQLite-backed table store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the table store at the given data directory.
// If dataDir is empty, defaults to ~/.tableqa/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".tableqa", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "tables.db")

	// WAL mode for concurrent readers during ingestion.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// InsertTables stores the records in one transaction and returns how many
// were written.
func (s *Store) InsertTables(ctx context.Context, records []domain.TableRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO document_tables
			(table_id, content, content_type, source_filename, page_number, filename, parent_id, coordinates)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, record := range records {
		coords, err := marshalCoordinates(record.Metadata.Coordinates)
		if err != nil {
			return 0, fmt.Errorf("marshal coordinates for %s: %w", record.TableID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			record.TableID,
			record.Content,
			string(record.ContentType),
			record.SourceFilename,
			record.Metadata.PageNumber,
			record.Metadata.Filename,
			record.Metadata.ParentID,
			coords,
		); err != nil {
			return 0, fmt.Errorf("insert table %s: %w", record.TableID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(records), nil
}

// FindTables returns up to limit records matching the filter, in insertion
// order.
func (s *Store) FindTables(ctx context.Context, filter domain.TableFilter, limit int) ([]domain.TableRecord, error) {
	query := `
		SELECT table_id, content, content_type, source_filename, page_number, filename, parent_id, coordinates
		FROM document_tables
	`
	var args []any
	if filter.SourceFilename != "" {
		query += " WHERE source_filename = ?"
		args = append(args, filter.SourceFilename)
	}
	query += " ORDER BY id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var records []domain.TableRecord
	for rows.Next() {
		var record domain.TableRecord
		var contentType string
		var coords sql.NullString
		if err := rows.Scan(
			&record.TableID,
			&record.Content,
			&contentType,
			&record.SourceFilename,
			&record.Metadata.PageNumber,
			&record.Metadata.Filename,
			&record.Metadata.ParentID,
			&coords,
		); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		record.ContentType = domain.ContentType(contentType)
		if coords.Valid && coords.String != "" {
			if err := json.Unmarshal([]byte(coords.String), &record.Metadata.Coordinates); err != nil {
				return nil, fmt.Errorf("unmarshal coordinates for %s: %w", record.TableID, err)
			}
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// DeleteTables removes records matching the filter and returns the number
// removed.
func (s *Store) DeleteTables(ctx context.Context, filter domain.TableFilter) (int64, error) {
	query := "DELETE FROM document_tables"
	var args []any
	if filter.SourceFilename != "" {
		query += " WHERE source_filename = ?"
		args = append(args, filter.SourceFilename)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete tables: %w", err)
	}
	return result.RowsAffected()
}

// SourceFilenames returns the distinct source filenames with at least one
// stored table, sorted.
func (s *Store) SourceFilenames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT source_filename FROM document_tables ORDER BY source_filename")
	if err != nil {
		return nil, fmt.Errorf("query source filenames: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan source filename: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Count returns the total number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM document_tables").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count tables: %w", err)
	}
	return count, nil
}

// Ping validates the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate applies any pending up migrations in filename order.
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
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// marshalCoordinates encodes the bounding box as JSON, or NULL when absent.
func marshalCoordinates(coords [][]float64) (any, error) {
	if len(coords) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(coords)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}
