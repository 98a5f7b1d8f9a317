package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"subbub/internal/services"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. The journal is transient
// state, so a mismatch is resolved by deleting the database rather than
// by migration.
const schemaVersion = 1

// ErrSchemaMismatch indicates the journal was written by an incompatible
// version.
var ErrSchemaMismatch = errors.New("journal schema version mismatch")

// Status tracks an entry through its lifecycle.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Entry is one recorded unit of pipeline work, keyed by operation,
// source identity, and output path.
type Entry struct {
	ID        int64
	Operation string
	Source    string
	Output    string
	Status    Status
	Attempts  int
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Journal is the SQLite-backed run ledger. It lives inside the workspace
// root and lets re-runs against a retained workspace skip pairs that
// already completed.
type Journal struct {
	db   *sql.DB
	path string
}

// Open connects to the journal database at path, creating it and its
// schema when absent.
func Open(path string) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, services.Wrap(services.ErrInput, "journal", "open", "database path is required", nil)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "journal", "open", fmt.Sprintf("open %s", path), err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, services.Wrap(services.ErrIO, "journal", "open", fmt.Sprintf("apply pragma %q", pragma), execErr)
		}
	}

	j := &Journal{db: db, path: path}
	if err := j.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.path
}

func (j *Journal) initSchema(ctx context.Context) error {
	var tableExists int
	err := j.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return services.Wrap(services.ErrIO, "journal", "open", "check schema_version table", err)
	}

	if tableExists == 0 {
		return j.createSchema(ctx)
	}

	var version int
	err = j.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return services.Wrap(services.ErrIO, "journal", "open", "read schema version", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, j.path)
	}
	return nil
}

func (j *Journal) createSchema(ctx context.Context) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return services.Wrap(services.ErrIO, "journal", "open", "begin schema tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return services.Wrap(services.ErrIO, "journal", "open", "create schema", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return services.Wrap(services.ErrIO, "journal", "open", "record schema version", err)
	}
	if err := tx.Commit(); err != nil {
		return services.Wrap(services.ErrIO, "journal", "open", "commit schema", err)
	}
	return nil
}

// Start marks the keyed entry as running, creating it when new and
// incrementing its attempt counter when retried. Any previous error
// message is cleared.
func (j *Journal) Start(ctx context.Context, operation, source, output string) (*Entry, error) {
	if operation == "" || source == "" || output == "" {
		return nil, services.Wrap(services.ErrInput, "journal", "start", "operation, source, and output are required", nil)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO journal_entries (operation, source, output, status, attempts, created_at, updated_at)
         VALUES (?, ?, ?, ?, 1, ?, ?)
         ON CONFLICT(operation, source, output)
         DO UPDATE SET status = excluded.status,
                       attempts = journal_entries.attempts + 1,
                       error_message = NULL,
                       updated_at = excluded.updated_at`,
		operation, source, output, StatusRunning, now, now,
	)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "journal", "start", "upsert entry", err)
	}
	entry, err := j.Lookup(ctx, operation, source, output)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, services.Wrap(services.ErrIO, "journal", "start", "entry vanished after upsert", nil)
	}
	return entry, nil
}

// Lookup fetches the keyed entry, or nil when it was never recorded.
func (j *Journal) Lookup(ctx context.Context, operation, source, output string) (*Entry, error) {
	row := j.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM journal_entries WHERE operation = ? AND source = ? AND output = ?`,
		operation, source, output,
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "journal", "lookup", "get entry", err)
	}
	return entry, nil
}

// Complete marks the entry done and clears any recorded error.
func (j *Journal) Complete(ctx context.Context, id int64) error {
	return j.transition(ctx, id, StatusDone, "")
}

// Fail marks the entry failed with a diagnostic message.
func (j *Journal) Fail(ctx context.Context, id int64, message string) error {
	return j.transition(ctx, id, StatusFailed, message)
}

func (j *Journal) transition(ctx context.Context, id int64, status Status, message string) error {
	_, err := j.db.ExecContext(ctx,
		`UPDATE journal_entries SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		status,
		nullableString(message),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return services.Wrap(services.ErrIO, "journal", "transition", fmt.Sprintf("mark entry %d %s", id, status), err)
	}
	return nil
}

// ResetRunning returns entries stuck in running back to pending. Called
// when reopening a journal whose previous run did not shut down cleanly.
func (j *Journal) ResetRunning(ctx context.Context) (int64, error) {
	res, err := j.db.ExecContext(ctx,
		`UPDATE journal_entries SET status = ?, updated_at = ? WHERE status = ?`,
		StatusPending,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusRunning,
	)
	if err != nil {
		return 0, services.Wrap(services.ErrIO, "journal", "reset", "reset running entries", err)
	}
	return res.RowsAffected()
}

// Entries returns all recorded entries in creation order.
func (j *Journal) Entries(ctx context.Context) ([]*Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM journal_entries ORDER BY created_at, id`)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "journal", "entries", "list entries", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, services.Wrap(services.ErrIO, "journal", "entries", "scan entry", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Stats returns a count of entries grouped by status.
func (j *Journal) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM journal_entries GROUP BY status`)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "journal", "stats", "journal stats", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, services.Wrap(services.ErrIO, "journal", "stats", "scan stats", err)
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

const entryColumns = "id, operation, source, output, status, attempts, error_message, created_at, updated_at"

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		id         int64
		operation  string
		source     string
		output     string
		statusStr  string
		attempts   int
		errMessage sql.NullString
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&id, &operation, &source, &output, &statusStr, &attempts, &errMessage, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:        id,
		Operation: operation,
		Source:    source,
		Output:    output,
		Status:    Status(statusStr),
		Attempts:  attempts,
		Error:     errMessage.String,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		entry.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		entry.UpdatedAt = updated
	}
	return entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
