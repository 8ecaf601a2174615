package keyword

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MinLength is the minimum keyword length in runes.
const MinLength = 2

var (
	// ErrTooShort is returned when a keyword is shorter than MinLength.
	ErrTooShort = errors.New("keyword: must be at least 2 characters long")

	// ErrExists is returned when the keyword is already active.
	ErrExists = errors.New("keyword: already exists")

	// ErrNotFound is returned when the keyword is not in the active set.
	ErrNotFound = errors.New("keyword: not found")
)

// Keyword is one operator-maintained filter entry. Removal is a soft
// disable (Active=false), never a row delete, so DetectionCount survives
// and stays queryable for deactivated keywords.
type Keyword struct {
	ID             int64
	Text           string
	AddedBy        int64
	AddedAt        time.Time
	Active         bool
	DetectionCount int64
}

// Store manages filter keywords in PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore creates a keyword store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Add inserts a new keyword, lowercased and trimmed. Keywords are unique by
// case-insensitive text. Re-adding a deactivated keyword reactivates it and
// keeps its historical detection count; re-adding an active one returns
// ErrExists.
func (s *Store) Add(ctx context.Context, text string, addedBy int64) (*Keyword, error) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if utf8.RuneCountInString(normalized) < MinLength {
		return nil, ErrTooShort
	}

	const query = `
		INSERT INTO keywords (keyword, added_by, is_active, detection_count)
		VALUES ($1, $2, TRUE, 0)
		ON CONFLICT (keyword) DO UPDATE
			SET is_active = TRUE, added_by = EXCLUDED.added_by
			WHERE keywords.is_active = FALSE
		RETURNING id, keyword, added_by, added_at, is_active, detection_count`

	var kw Keyword
	err := s.db.QueryRowContext(ctx, query, normalized, addedBy).Scan(
		&kw.ID, &kw.Text, &kw.AddedBy, &kw.AddedAt, &kw.Active, &kw.DetectionCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		// Conflict on an already-active keyword: the WHERE clause suppressed
		// the update, so nothing was returned.
		return nil, ErrExists
	}
	if err != nil {
		return nil, fmt.Errorf("keyword: add: %w", err)
	}
	return &kw, nil
}

// Deactivate soft-deletes a keyword: it is excluded from future matching but
// the row and its detection counter remain.
func (s *Store) Deactivate(ctx context.Context, text string) error {
	normalized := strings.ToLower(strings.TrimSpace(text))

	const query = `
		UPDATE keywords SET is_active = FALSE
		WHERE keyword = $1 AND is_active = TRUE`

	res, err := s.db.ExecContext(ctx, query, normalized)
	if err != nil {
		return fmt.Errorf("keyword: deactivate: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("keyword: deactivate rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns keywords ordered by insertion. Listing is a filter over the
// single table, not a separate storage path: includeInactive=true exposes
// soft-deleted entries with their preserved counters.
func (s *Store) List(ctx context.Context, includeInactive bool) ([]Keyword, error) {
	query := `
		SELECT id, keyword, added_by, added_at, is_active, detection_count
		FROM keywords`
	if !includeInactive {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY added_at, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("keyword: list: %w", err)
	}
	defer rows.Close()

	var out []Keyword
	for rows.Next() {
		var kw Keyword
		if err := rows.Scan(&kw.ID, &kw.Text, &kw.AddedBy, &kw.AddedAt, &kw.Active, &kw.DetectionCount); err != nil {
			return nil, fmt.Errorf("keyword: scan: %w", err)
		}
		out = append(out, kw)
	}
	return out, rows.Err()
}

// ActiveTexts returns just the texts of the active set, in insertion order.
func (s *Store) ActiveTexts(ctx context.Context) ([]string, error) {
	const query = `
		SELECT keyword FROM keywords
		WHERE is_active = TRUE
		ORDER BY added_at, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("keyword: active texts: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("keyword: scan: %w", err)
		}
		out = append(out, text)
	}
	return out, rows.Err()
}

// IncrementDetection bumps the durable per-keyword detection counter. It is
// called once per matched keyword per filtered message; at-least-once
// delivery is acceptable, so there is no dedup.
func (s *Store) IncrementDetection(ctx context.Context, text string) error {
	normalized := strings.ToLower(strings.TrimSpace(text))

	const query = `
		UPDATE keywords SET detection_count = detection_count + 1
		WHERE keyword = $1`

	if _, err := s.db.ExecContext(ctx, query, normalized); err != nil {
		return fmt.Errorf("keyword: increment detection: %w", err)
	}
	return nil
}

// DetectionCount returns the stored counter for a keyword, active or not.
func (s *Store) DetectionCount(ctx context.Context, text string) (int64, error) {
	normalized := strings.ToLower(strings.TrimSpace(text))

	const query = `SELECT detection_count FROM keywords WHERE keyword = $1`

	var count int64
	err := s.db.QueryRowContext(ctx, query, normalized).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("keyword: detection count: %w", err)
	}
	return count, nil
}
