package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/mdindex/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/mdindex/internal/core/domain"
	"github.com/custodia-labs/mdindex/internal/core/ports/driven"
)

// DatabaseFileName is the name of the database inside the data directory.
const DatabaseFileName = "index.db"

// Ensure Store implements the interface.
var _ driven.SnapshotStore = (*Store)(nil)

// Store persists index snapshots in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// DefaultDataDir returns ~/.mdindex/data.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".mdindex", "data"), nil
}

// NewStore opens the snapshot database in dataDir, creating it if needed.
// If dataDir is empty, DefaultDataDir is used.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return nil, err
		}
		dataDir = dir
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFileName)

	// WAL lets readers load a snapshot while a rebuild is being saved.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
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

// SchemaVersion returns the highest applied migration.
func (s *Store) SchemaVersion() (int, error) {
	var version int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&version); err != nil {
		return 0, fmt.Errorf("getting schema version: %w", err)
	}
	return version, nil
}

// migrate applies every pending NNN_name.up.sql in order.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	currentVersion, err := s.SchemaVersion()
	if err != nil {
		return err
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
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

		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

// Save replaces the stored snapshot with snapshot.
func (s *Store) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("%w: nil snapshot", domain.ErrInvalidInput)
	}
	if snapshot.Stats.BuildID == "" {
		return fmt.Errorf("%w: snapshot has no build id", domain.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	// Cascades to every dependent table.
	if _, err := tx.ExecContext(ctx, "DELETE FROM builds"); err != nil {
		return fmt.Errorf("clearing previous snapshot: %w", err)
	}

	if err := insertBuild(ctx, tx, snapshot.Stats); err != nil {
		return err
	}
	if err := insertDocuments(ctx, tx, snapshot.Stats.BuildID, snapshot.Documents); err != nil {
		return err
	}
	if err := insertPostings(ctx, tx, snapshot.Stats.BuildID, snapshot.Postings); err != nil {
		return err
	}
	if err := insertReferences(ctx, tx, snapshot.Stats.BuildID, snapshot.References); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

func insertBuild(ctx context.Context, tx *sql.Tx, stats domain.IndexStats) error {
	warnings := stats.Warnings
	if warnings == nil {
		warnings = []domain.AmbiguousLinkWarning{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("marshalling warnings: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO builds (id, built_at, documents, terms, edges, warnings, term_settings)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, stats.BuildID, formatTime(stats.BuiltAt), stats.Documents, stats.Terms, stats.Edges,
		string(warningsJSON), stats.TermFingerprint)
	if err != nil {
		return fmt.Errorf("saving build: %w", err)
	}
	return nil
}

func insertDocuments(ctx context.Context, tx *sql.Tx, buildID string, docs []domain.Document) error {
	docStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (build_id, path, title, raw, front_matter, metadata, checksum, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing document insert: %w", err)
	}
	defer docStmt.Close()

	blockStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO blocks (build_id, path, block_offset, kind, level, language, text, raw, start_line, end_line)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing block insert: %w", err)
	}
	defer blockStmt.Close()

	for i := range docs {
		doc := &docs[i]

		var frontMatter sql.NullString
		if doc.FrontMatter != nil {
			data, err := json.Marshal(doc.FrontMatter)
			if err != nil {
				return fmt.Errorf("marshalling front matter of %s: %w", doc.Path, err)
			}
			frontMatter = sql.NullString{String: string(data), Valid: true}
		}

		metadataJSON, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata of %s: %w", doc.Path, err)
		}

		if _, err := docStmt.ExecContext(ctx, buildID, doc.Path, doc.Title, doc.Raw, frontMatter,
			string(metadataJSON), doc.Checksum, nullTime(doc.ModifiedAt)); err != nil {
			return fmt.Errorf("saving document %s: %w", doc.Path, err)
		}

		for offset, b := range doc.Blocks {
			if _, err := blockStmt.ExecContext(ctx, buildID, doc.Path, offset, string(b.Kind), b.Level,
				b.Language, b.Text, b.Raw, b.StartLine, b.EndLine); err != nil {
				return fmt.Errorf("saving block %d of %s: %w", offset, doc.Path, err)
			}
		}
	}
	return nil
}

func insertPostings(ctx context.Context, tx *sql.Tx, buildID string, postings []domain.Posting) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO postings (build_id, term, path, block_offset, frequency, doc_frequency)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing posting insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range postings {
		if _, err := stmt.ExecContext(ctx, buildID, p.Term, p.Path, p.BlockOffset,
			p.Frequency, p.DocFrequency); err != nil {
			return fmt.Errorf("saving posting %q in %s: %w", p.Term, p.Path, err)
		}
	}
	return nil
}

func insertReferences(ctx context.Context, tx *sql.Tx, buildID string, refs []domain.CrossReference) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cross_references (build_id, source, target, strength, kind)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing reference insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range refs {
		if _, err := stmt.ExecContext(ctx, buildID, r.Source, r.Target, r.Strength, string(r.Kind)); err != nil {
			return fmt.Errorf("saving reference %s -> %s: %w", r.Source, r.Target, err)
		}
	}
	return nil
}

// Load returns the stored snapshot, or domain.ErrIndexNotReady if none exists.
func (s *Store) Load(ctx context.Context) (*domain.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // nothing to commit

	snap := &domain.Snapshot{}
	if err := loadBuild(ctx, tx, &snap.Stats); err != nil {
		return nil, err
	}
	buildID := snap.Stats.BuildID

	if snap.Documents, err = loadDocuments(ctx, tx, buildID); err != nil {
		return nil, err
	}
	if snap.Postings, err = loadPostings(ctx, tx, buildID); err != nil {
		return nil, err
	}
	if snap.References, err = loadReferences(ctx, tx, buildID); err != nil {
		return nil, err
	}

	return snap, nil
}

func loadBuild(ctx context.Context, tx *sql.Tx, stats *domain.IndexStats) error {
	row := tx.QueryRowContext(ctx, `
		SELECT id, built_at, documents, terms, edges, warnings, term_settings
		FROM builds ORDER BY built_at DESC LIMIT 1
	`)

	var builtAt, warningsJSON string
	if err := row.Scan(&stats.BuildID, &builtAt, &stats.Documents, &stats.Terms,
		&stats.Edges, &warningsJSON, &stats.TermFingerprint); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrIndexNotReady
		}
		return fmt.Errorf("scanning build: %w", err)
	}

	t, err := parseTime(builtAt)
	if err != nil {
		return fmt.Errorf("parsing build time: %w", err)
	}
	stats.BuiltAt = t

	if err := json.Unmarshal([]byte(warningsJSON), &stats.Warnings); err != nil {
		return fmt.Errorf("unmarshalling warnings: %w", err)
	}
	if len(stats.Warnings) == 0 {
		stats.Warnings = nil
	}
	return nil
}

func loadDocuments(ctx context.Context, tx *sql.Tx, buildID string) ([]domain.Document, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT path, title, raw, front_matter, metadata, checksum, modified_at
		FROM documents WHERE build_id = ? ORDER BY path
	`, buildID)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	index := make(map[string]int)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		index[doc.Path] = len(docs)
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	blockRows, err := tx.QueryContext(ctx, `
		SELECT path, kind, level, language, text, raw, start_line, end_line
		FROM blocks WHERE build_id = ? ORDER BY path, block_offset
	`, buildID)
	if err != nil {
		return nil, fmt.Errorf("querying blocks: %w", err)
	}
	defer blockRows.Close()

	for blockRows.Next() {
		var path, kind string
		var b domain.Block
		if err := blockRows.Scan(&path, &kind, &b.Level, &b.Language, &b.Text, &b.Raw,
			&b.StartLine, &b.EndLine); err != nil {
			return nil, fmt.Errorf("scanning block: %w", err)
		}
		b.Kind = domain.BlockKind(kind)
		if i, ok := index[path]; ok {
			docs[i].Blocks = append(docs[i].Blocks, b)
		}
	}
	return docs, blockRows.Err()
}

func scanDocument(rows *sql.Rows) (*domain.Document, error) {
	var doc domain.Document
	var frontMatter, modifiedAt sql.NullString
	var metadataJSON string

	if err := rows.Scan(&doc.Path, &doc.Title, &doc.Raw, &frontMatter, &metadataJSON,
		&doc.Checksum, &modifiedAt); err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	if frontMatter.Valid {
		if err := json.Unmarshal([]byte(frontMatter.String), &doc.FrontMatter); err != nil {
			return nil, fmt.Errorf("unmarshalling front matter of %s: %w", doc.Path, err)
		}
	}
	if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshalling metadata of %s: %w", doc.Path, err)
	}
	if modifiedAt.Valid {
		t, err := parseTime(modifiedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing modification time of %s: %w", doc.Path, err)
		}
		doc.ModifiedAt = t
	}

	return &doc, nil
}

func loadPostings(ctx context.Context, tx *sql.Tx, buildID string) ([]domain.Posting, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT term, path, block_offset, frequency, doc_frequency
		FROM postings WHERE build_id = ?
		ORDER BY term, doc_frequency DESC, path, block_offset
	`, buildID)
	if err != nil {
		return nil, fmt.Errorf("querying postings: %w", err)
	}
	defer rows.Close()

	var postings []domain.Posting
	for rows.Next() {
		var p domain.Posting
		if err := rows.Scan(&p.Term, &p.Path, &p.BlockOffset, &p.Frequency, &p.DocFrequency); err != nil {
			return nil, fmt.Errorf("scanning posting: %w", err)
		}
		postings = append(postings, p)
	}
	return postings, rows.Err()
}

func loadReferences(ctx context.Context, tx *sql.Tx, buildID string) ([]domain.CrossReference, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT source, target, strength, kind
		FROM cross_references WHERE build_id = ?
		ORDER BY source, strength DESC, target
	`, buildID)
	if err != nil {
		return nil, fmt.Errorf("querying cross references: %w", err)
	}
	defer rows.Close()

	var refs []domain.CrossReference
	for rows.Next() {
		var r domain.CrossReference
		var kind string
		if err := rows.Scan(&r.Source, &r.Target, &r.Strength, &kind); err != nil {
			return nil, fmt.Errorf("scanning cross reference: %w", err)
		}
		r.Kind = domain.ReferenceKind(kind)
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t), Valid: true}
}
