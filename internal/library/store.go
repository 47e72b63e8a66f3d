package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"cardex/internal/assets"
	"cardex/internal/config"
)

// ErrNotFound indicates no record exists for the requested id.
var ErrNotFound = errors.New("card not found")

// Record is a stored card row.
type Record struct {
	ID           string
	Name         string
	Spec         string
	SourceFormat string
	CardJSON     []byte
	WarningCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Store manages card persistence backed by SQLite.
type Store struct {
	db       *sql.DB
	lock     *flock.Flock
	path     string
	assetDir string
}

// Open initializes or connects to the library database, acquires the writer
// lock, and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	lock := flock.New(filepath.Join(cfg.Paths.LibraryDir, "library.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire library lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another cardex process holds the library lock")
	}

	dbPath := filepath.Join(cfg.Paths.LibraryDir, "library.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		db:       db,
		lock:     lock,
		path:     dbPath,
		assetDir: filepath.Join(cfg.Paths.LibraryDir, "assets"),
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return store, nil
}

// Close closes the database connection and releases the writer lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var err error
	if s.db != nil {
		err = s.db.Close()
	}
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); err == nil {
			err = unlockErr
		}
	}
	return err
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Save inserts a new card record and writes its asset blobs beside the
// database. It returns the generated record id.
func (s *Store) Save(ctx context.Context, name, spec, sourceFormat string, cardJSON []byte, warningCount int, blobs []assets.Blob) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cards (id, name, spec, source_format, card_json, warning_count, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, name, spec, sourceFormat, cardJSON, warningCount, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("insert card: %w", err)
	}

	if err := s.writeBlobs(id, blobs); err != nil {
		return "", err
	}
	return id, nil
}

// Update replaces the stored card JSON for an existing record.
func (s *Store) Update(ctx context.Context, id string, cardJSON []byte, warningCount int) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		"UPDATE cards SET card_json = ?, warning_count = ?, updated_at = ? WHERE id = ?",
		cardJSON, warningCount, now, id,
	)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Get fetches a single record by id.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, spec, source_format, card_json, warning_count, created_at, updated_at
         FROM cards WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, err
}

// List returns every record ordered by creation time descending.
func (s *Store) List(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, spec, source_format, card_json, warning_count, created_at, updated_at
         FROM cards ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes a record and its asset blob directory.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM cards WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := os.RemoveAll(filepath.Join(s.assetDir, id)); err != nil {
		return fmt.Errorf("remove asset directory: %w", err)
	}
	return nil
}

// Blobs loads the asset blobs stored for a record. Records without assets
// return an empty list.
func (s *Store) Blobs(id string) ([]assets.Blob, error) {
	dir := filepath.Join(s.assetDir, id)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read asset directory: %w", err)
	}
	var blobs []assets.Blob
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read asset %s: %w", entry.Name(), err)
		}
		blobs = append(blobs, assets.Blob{
			Asset: assetFromFilename(entry.Name()),
			Data:  data,
		})
	}
	return blobs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var createdAt, updatedAt string
	if err := row.Scan(&rec.ID, &rec.Name, &rec.Spec, &rec.SourceFormat, &rec.CardJSON, &rec.WarningCount, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &rec, nil
}
