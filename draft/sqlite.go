package draft

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/goliatone/go-errors"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists drafts in a single SQLite table.
type SQLiteStore struct {
	db    *sql.DB
	table string
	now   func() time.Time
}

// Open opens (or creates) a SQLite database at path and prepares the
// drafts table. Use ":memory:" for a throwaway database.
func Open(path string, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	// one writer at a time, also keeps :memory: on a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	store := NewSQLiteStore(db, buildOptions(opts).table, opts...)
	if err := store.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteStore wraps an existing handle. The table defaults to "drafts"
// and is created lazily.
func NewSQLiteStore(db *sql.DB, table string, opts ...Option) *SQLiteStore {
	if strings.TrimSpace(table) == "" {
		table = "drafts"
	}
	o := buildOptions(opts)
	return &SQLiteStore{db: db, table: table, now: o.now}
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, entityID string) (*Record, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	entityID = strings.TrimSpace(entityID)
	if entityID == "" {
		return nil, nil
	}
	q := fmt.Sprintf(`SELECT entity_id, wizard_id, form_data, checksum, created_at, last_saved_at FROM %s WHERE entity_id = ?`, s.table)
	rec, err := scanRecord(s.db.QueryRowContext(ctx, q, entityID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError(err, "load draft")
	}
	return rec, nil
}

func (s *SQLiteStore) Put(ctx context.Context, wizardID, entityID string, data map[string]any) (*Record, bool, error) {
	entityID = strings.TrimSpace(entityID)
	if err := checkIDs(wizardID, entityID); err != nil {
		return nil, false, err
	}
	formData, raw, sum, err := normalize(data)
	if err != nil {
		return nil, false, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, storageError(err, "begin draft transaction")
	}
	defer tx.Rollback()

	q := fmt.Sprintf(`SELECT entity_id, wizard_id, form_data, checksum, created_at, last_saved_at FROM %s WHERE entity_id = ?`, s.table)
	existing, err := scanRecord(tx.QueryRowContext(ctx, q, entityID))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		existing = nil
	case err != nil:
		return nil, false, storageError(err, "load draft")
	}

	now := s.now().UTC()
	rec := &Record{
		EntityID:    entityID,
		WizardID:    wizardID,
		FormData:    formData,
		Checksum:    sum,
		CreatedAt:   now,
		LastSavedAt: now,
	}
	if existing != nil {
		if existing.WizardID != wizardID {
			return nil, false, ErrWizardMismatch.Clone().WithMetadata(map[string]any{
				"entity_id": entityID,
				"expected":  wizardID,
				"found":     existing.WizardID,
			})
		}
		if existing.Checksum == sum {
			return existing, false, nil
		}
		rec.CreatedAt = existing.CreatedAt
	}

	upsert := fmt.Sprintf(`INSERT INTO %s (entity_id, wizard_id, form_data, checksum, created_at, last_saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(entity_id) DO UPDATE SET
			form_data = excluded.form_data,
			checksum = excluded.checksum,
			last_saved_at = excluded.last_saved_at`, s.table)
	if _, err := tx.ExecContext(ctx, upsert,
		rec.EntityID,
		rec.WizardID,
		string(raw),
		rec.Checksum,
		formatTimestamp(rec.CreatedAt),
		formatTimestamp(rec.LastSavedAt),
	); err != nil {
		return nil, false, storageError(err, "save draft")
	}
	if err := tx.Commit(); err != nil {
		return nil, false, storageError(err, "commit draft")
	}
	return rec, true, nil
}

func (s *SQLiteStore) List(ctx context.Context, wizardID string) ([]Record, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`SELECT entity_id, wizard_id, form_data, checksum, created_at, last_saved_at FROM %s`, s.table)
	args := []any{}
	if wizardID != "" {
		q += ` WHERE wizard_id = ?`
		args = append(args, wizardID)
	}
	q += ` ORDER BY last_saved_at DESC, entity_id ASC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storageError(err, "list drafts")
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, storageError(err, "scan draft")
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(err, "list drafts")
	}
	return out, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, entityID string) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	q := fmt.Sprintf(`DELETE FROM %s WHERE entity_id = ?`, s.table)
	if _, err := s.db.ExecContext(ctx, q, strings.TrimSpace(entityID)); err != nil {
		return storageError(err, "delete draft")
	}
	return nil
}

func (s *SQLiteStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return 0, err
	}
	q := fmt.Sprintf(`DELETE FROM %s WHERE last_saved_at < ?`, s.table)
	result, err := s.db.ExecContext(ctx, q, formatTimestamp(cutoff))
	if err != nil {
		return 0, storageError(err, "purge drafts")
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrStorage.Clone().WithMetadata(map[string]any{"reason": "sqlite store not configured"})
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		entity_id TEXT PRIMARY KEY,
		wizard_id TEXT NOT NULL,
		form_data TEXT NOT NULL,
		checksum TEXT NOT NULL,
		created_at TEXT NOT NULL,
		last_saved_at TEXT NOT NULL
	)`, s.table)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return storageError(err, "create drafts table")
	}
	idx := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_wizard_idx ON %s (wizard_id, last_saved_at)`, s.table, s.table)
	if _, err := s.db.ExecContext(ctx, idx); err != nil {
		return storageError(err, "create drafts index")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var formData, createdAt, savedAt string
	if err := row.Scan(&rec.EntityID, &rec.WizardID, &formData, &rec.Checksum, &createdAt, &savedAt); err != nil {
		return nil, err
	}
	data, err := decode([]byte(formData))
	if err != nil {
		return nil, err
	}
	rec.FormData = data
	rec.CreatedAt = parseTimestamp(createdAt)
	rec.LastSavedAt = parseTimestamp(savedAt)
	return &rec, nil
}

// timestamps are stored with fixed-width nanoseconds so text order is
// time order
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(value string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

func storageError(err error, msg string) error {
	return apperrors.Wrap(err, apperrors.CategoryInternal, msg).WithTextCode(ErrCodeStorage)
}
