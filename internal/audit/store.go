// Package audit provides PostgreSQL-backed storage for filter events. Each
// event captures which message was filtered, why, and with what score, so
// moderators can review and appeal decisions after the fact.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"
)

// previewLimit caps how much of the offending message is stored. Full message
// bodies stay out of the audit trail.
const previewLimit = 100

// Store manages filter events in PostgreSQL.
type Store struct {
	db *sql.DB
}

// Event represents a single filter decision to be persisted.
type Event struct {
	ID              int64
	MessageID       int64
	ChatID          int64
	UserID          int64
	MessagePreview  string
	MatchedKeywords []string
	RiskScore       float64
	Reasons         []string
	CreatedAt       time.Time
}

// NewStore creates a new audit store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// truncatePreview shortens text to previewLimit bytes without splitting a
// UTF-8 sequence.
func truncatePreview(text string) string {
	if len(text) <= previewLimit {
		return text
	}
	cut := previewLimit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// Record inserts a filter event. Matched keywords and reasons are marshalled
// to JSONB; the message text is truncated to a short preview.
func (s *Store) Record(ctx context.Context, ev *Event) error {
	keywordsJSON, err := json.Marshal(ev.MatchedKeywords)
	if err != nil {
		return fmt.Errorf("audit: marshal keywords: %w", err)
	}
	reasonsJSON, err := json.Marshal(ev.Reasons)
	if err != nil {
		return fmt.Errorf("audit: marshal reasons: %w", err)
	}

	const query = `
		INSERT INTO filter_events (message_id, chat_id, user_id, message_preview, matched_keywords, risk_score, reasons)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = s.db.ExecContext(ctx, query,
		ev.MessageID,
		ev.ChatID,
		ev.UserID,
		truncatePreview(ev.MessagePreview),
		keywordsJSON,
		riskScoreParam(ev.RiskScore),
		reasonsJSON,
	)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

// riskScoreParam exists to keep NaN/Inf out of the numeric column; the engine
// never produces them, but the audit trail is the last line of defense.
func riskScoreParam(score float64) float64 {
	if score != score || score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Recent returns the newest filter events for a chat, most recent first.
func (s *Store) Recent(ctx context.Context, chatID int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}

	const query = `
		SELECT id, message_id, chat_id, user_id, message_preview, matched_keywords, risk_score, reasons, created_at
		FROM filter_events
		WHERE chat_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: query recent: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var keywordsJSON, reasonsJSON []byte
		if err := rows.Scan(&ev.ID, &ev.MessageID, &ev.ChatID, &ev.UserID, &ev.MessagePreview,
			&keywordsJSON, &ev.RiskScore, &reasonsJSON, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}
		if len(keywordsJSON) > 0 {
			if err := json.Unmarshal(keywordsJSON, &ev.MatchedKeywords); err != nil {
				return nil, fmt.Errorf("audit: unmarshal keywords: %w", err)
			}
		}
		if len(reasonsJSON) > 0 {
			if err := json.Unmarshal(reasonsJSON, &ev.Reasons); err != nil {
				return nil, fmt.Errorf("audit: unmarshal reasons: %w", err)
			}
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: rows: %w", err)
	}
	return events, nil
}
