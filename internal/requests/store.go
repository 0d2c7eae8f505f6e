package requests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"fetcharr/internal/config"
	"fetcharr/internal/media"
)

// Store manages request persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the request database and applies
// migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
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
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Insert persists a new record. Returns ErrConflict when a record with
// the same id already exists.
func (s *Store) Insert(ctx context.Context, req *Request) error {
	if req == nil {
		return errors.New("request is nil")
	}
	now := time.Now().UTC()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO requests (
            id, requestor_id, name, media_type, state,
            media_info, search_results, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID,
		req.RequestorID,
		req.Name,
		string(req.MediaType),
		string(req.State),
		emptyObjectIfBlank(req.MediaInfoJSON),
		emptyObjectIfBlank(req.SearchResultsJSON),
		req.CreatedAt.Format(time.RFC3339Nano),
		req.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: id %d", ErrConflict, req.ID)
		}
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

// GetByID fetches a request by identifier. Returns ErrNotFound when the
// record does not exist.
func (s *Store) GetByID(ctx context.Context, id int64) (*Request, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = ?`, id)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	return req, nil
}

// Update persists all mutable fields of an existing record.
func (s *Store) Update(ctx context.Context, req *Request) error {
	if req == nil {
		return errors.New("request is nil")
	}
	req.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE requests
         SET requestor_id = ?, name = ?, media_type = ?, state = ?,
             media_info = ?, search_results = ?, updated_at = ?
         WHERE id = ?`,
		req.RequestorID,
		req.Name,
		string(req.MediaType),
		string(req.State),
		emptyObjectIfBlank(req.MediaInfoJSON),
		emptyObjectIfBlank(req.SearchResultsJSON),
		req.UpdatedAt.Format(time.RFC3339Nano),
		req.ID,
	)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	return requireRow(res, req.ID)
}

// SetState transitions a record's state in one statement.
func (s *Store) SetState(ctx context.Context, id int64, state State) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE requests SET state = ?, updated_at = ? WHERE id = ?`,
		string(state),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set state: %w", err)
	}
	return requireRow(res, id)
}

// Finalize records the chosen candidate in one statement: media info and
// display name are written, the candidate list is cleared, and the
// record moves to the given state.
func (s *Store) Finalize(ctx context.Context, id int64, name, mediaInfoJSON string, state State) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE requests
         SET name = ?, media_info = ?, search_results = '{}', state = ?, updated_at = ?
         WHERE id = ?`,
		name,
		emptyObjectIfBlank(mediaInfoJSON),
		string(state),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("finalize request: %w", err)
	}
	return requireRow(res, id)
}

// CountActiveByRequestor counts a user's non-complete records.
func (s *Store) CountActiveByRequestor(ctx context.Context, requestorID int64) (int, error) {
	var count int
	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM requests WHERE requestor_id = ? AND state != ?`,
		requestorID,
		string(StateComplete),
	)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count requests: %w", err)
	}
	return count, nil
}

// List returns every record, grouped by requestor with a stable order
// within each group.
func (s *Store) List(ctx context.Context) ([]*Request, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+requestColumns+` FROM requests ORDER BY requestor_id DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var items []*Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, req)
	}
	return items, rows.Err()
}

// Remove deletes a record by identifier. The boolean reports whether a
// row was actually deleted, so callers can keep delete-then-notify
// paths idempotent.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM requests WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Stats returns a count of records grouped by state.
func (s *Store) Stats(ctx context.Context) (map[State]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(1) FROM requests GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("request stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[State]int)
	for rows.Next() {
		var state State
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, err
		}
		stats[state] = count
	}
	return stats, rows.Err()
}

const requestColumns = "id, requestor_id, name, media_type, state, media_info, search_results, created_at, updated_at"

func scanRequest(scanner interface{ Scan(dest ...any) error }) (*Request, error) {
	var (
		id            int64
		requestorID   int64
		name          string
		mediaType     string
		state         string
		mediaInfo     sql.NullString
		searchResults sql.NullString
		createdRaw    string
		updatedRaw    string
	)
	if err := scanner.Scan(
		&id,
		&requestorID,
		&name,
		&mediaType,
		&state,
		&mediaInfo,
		&searchResults,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	req := &Request{
		ID:                id,
		RequestorID:       requestorID,
		Name:              name,
		MediaType:         media.Type(mediaType),
		State:             State(state),
		MediaInfoJSON:     mediaInfo.String,
		SearchResultsJSON: searchResults.String,
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		req.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		req.UpdatedAt = updated
	}
	return req, nil
}

func requireRow(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

func emptyObjectIfBlank(value string) string {
	if strings.TrimSpace(value) == "" {
		return "{}"
	}
	return value
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
