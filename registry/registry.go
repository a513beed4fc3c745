// Package registry stores named schemas in SQLite. Every stored document
// is validated first, and each content change is kept as a numbered
// revision so callers can recover earlier versions.
package registry

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/datamodel-lang/go-datamodel/schema"
)

// ErrNotFound is returned when no schema is stored under the requested name.
var ErrNotFound = errors.New("registry: schema not found")

// ErrEmptyName is returned when a schema name is blank.
var ErrEmptyName = errors.New("registry: schema name is empty")

// Schema is a stored schema document.
type Schema struct {
	ID        string
	Name      string
	Source    string
	Hash      string
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Revision is one historic version of a stored schema.
type Revision struct {
	ID        string
	Name      string
	Version   int
	Source    string
	Hash      string
	CreatedAt time.Time
}

// Registry validates and versions named schemas on a SQLite database.
type Registry struct {
	db         *sql.DB
	logger     zerolog.Logger
	schemaOpts []schema.Option
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger attaches a logger for store activity.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithSchemaOptions sets the validation options Put applies before storing.
func WithSchemaOptions(opts ...schema.Option) Option {
	return func(r *Registry) { r.schemaOpts = opts }
}

// Open opens the registry database at path, creating the file and tables as
// needed.
func Open(path string, opts ...Option) (*Registry, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	r := &Registry{db: db, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

// migrate creates the database tables if they don't exist.
func (r *Registry) migrate() error {
	ddl := `
	CREATE TABLE IF NOT EXISTS schemas (
		name TEXT PRIMARY KEY,
		id TEXT NOT NULL,
		source TEXT NOT NULL,
		hash TEXT NOT NULL,
		version INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS revisions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		version INTEGER NOT NULL,
		source TEXT NOT NULL,
		hash TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (name) REFERENCES schemas(name)
	);

	CREATE INDEX IF NOT EXISTS idx_revisions_name ON revisions(name, version);
	`

	_, err := r.db.Exec(ddl)
	return err
}

// Close closes the database connection.
func (r *Registry) Close() error {
	return r.db.Close()
}

// ContentHash returns the hex sha256 of a schema source.
func ContentHash(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Put validates source and stores it under name. Storing identical content
// again is a no-op; changed content bumps the version and records a new
// revision. Invalid schemas are rejected with their diagnostics.
func (r *Registry) Put(name, source string) (*Schema, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if _, err := schema.ParseAndValidate(source, r.schemaOpts...); err != nil {
		return nil, err
	}

	hash := ContentHash(source)
	now := time.Now().UTC()

	existing, err := r.Get(name)
	if errors.Is(err, ErrNotFound) {
		return r.insert(name, source, hash, now)
	}
	if err != nil {
		return nil, err
	}

	if existing.Hash == hash {
		r.logger.Debug().Str("name", name).Int("version", existing.Version).Msg("schema unchanged")
		return existing, nil
	}
	return r.update(existing, source, hash, now)
}

func (r *Registry) insert(name, source, hash string, now time.Time) (*Schema, error) {
	s := &Schema{
		ID:        uuid.NewString(),
		Name:      name,
		Source:    source,
		Hash:      hash,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO schemas (name, id, source, hash, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.Name, s.ID, s.Source, s.Hash, s.Version, s.CreatedAt, s.UpdatedAt,
	); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("insert schema: %w", err)
	}
	if err := insertRevision(tx, s, now); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	r.logger.Info().Str("name", s.Name).Int("version", s.Version).Msg("schema stored")
	return s, nil
}

func (r *Registry) update(existing *Schema, source, hash string, now time.Time) (*Schema, error) {
	s := *existing
	s.Source = source
	s.Hash = hash
	s.Version = existing.Version + 1
	s.UpdatedAt = now

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	if _, err := tx.Exec(
		`UPDATE schemas SET source = ?, hash = ?, version = ?, updated_at = ? WHERE name = ?`,
		s.Source, s.Hash, s.Version, s.UpdatedAt, s.Name,
	); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("update schema: %w", err)
	}
	if err := insertRevision(tx, &s, now); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	r.logger.Info().Str("name", s.Name).Int("version", s.Version).Msg("schema updated")
	return &s, nil
}

func insertRevision(tx *sql.Tx, s *Schema, now time.Time) error {
	if _, err := tx.Exec(
		`INSERT INTO revisions (id, name, version, source, hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), s.Name, s.Version, s.Source, s.Hash, now,
	); err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}
	return nil
}

// Get retrieves the current version of the schema stored under name.
func (r *Registry) Get(name string) (*Schema, error) {
	row := r.db.QueryRow(
		`SELECT name, id, source, hash, version, created_at, updated_at
		 FROM schemas WHERE name = ?`, name,
	)

	var s Schema
	err := row.Scan(&s.Name, &s.ID, &s.Source, &s.Hash, &s.Version, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns all stored schemas ordered by name.
func (r *Registry) List() ([]*Schema, error) {
	rows, err := r.db.Query(
		`SELECT name, id, source, hash, version, created_at, updated_at
		 FROM schemas ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schemas []*Schema
	for rows.Next() {
		var s Schema
		if err := rows.Scan(&s.Name, &s.ID, &s.Source, &s.Hash, &s.Version, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		schemas = append(schemas, &s)
	}
	return schemas, rows.Err()
}

// Revisions returns the full history of the schema stored under name,
// oldest first.
func (r *Registry) Revisions(name string) ([]*Revision, error) {
	if _, err := r.Get(name); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		`SELECT id, name, version, source, hash, created_at
		 FROM revisions WHERE name = ? ORDER BY version`, name,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revisions []*Revision
	for rows.Next() {
		var rev Revision
		if err := rows.Scan(&rev.ID, &rev.Name, &rev.Version, &rev.Source, &rev.Hash, &rev.CreatedAt); err != nil {
			return nil, err
		}
		revisions = append(revisions, &rev)
	}
	return revisions, rows.Err()
}

// Delete removes the schema stored under name along with its revisions.
func (r *Registry) Delete(name string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM revisions WHERE name = ?`, name); err != nil {
		tx.Rollback()
		return fmt.Errorf("delete revisions: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM schemas WHERE name = ?`, name)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("delete schema: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return err
	}
	if n == 0 {
		tx.Rollback()
		return ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.logger.Info().Str("name", name).Msg("schema deleted")
	return nil
}
