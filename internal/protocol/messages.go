// Package protocol defines the message types and structures exchanged between
// chat hosts and the moderation service over NATS. All messages are
// serialized as JSON; keyword management commands follow a consistent
// envelope format with an op discriminator.
package protocol

import (
	"encoding/json"
	"fmt"
)

// ---------------------------------------------------------------------------
// Moderation channel
// ---------------------------------------------------------------------------

// CheckRequest is published by a chat host to have a message evaluated.
type CheckRequest struct {
	MessageID int64  `json:"message_id"`
	ChatID    int64  `json:"chat_id"`
	UserID    int64  `json:"user_id"`
	UserName  string `json:"user_name"`
	Text      string `json:"text"`
	Ts        int64  `json:"ts"`
}

// VerdictMsg is the moderation service's reply, published to the per-chat
// verdict subject.
type VerdictMsg struct {
	MessageID          int64    `json:"message_id"`
	ChatID             int64    `json:"chat_id"`
	ShouldFilter       bool     `json:"should_filter"`
	MatchedKeywords    []string `json:"matched_keywords"`
	RiskScore          float64  `json:"risk_score"`
	Reasons            []string `json:"reasons"`
	SentimentAvailable bool     `json:"sentiment_available"`
}

// ---------------------------------------------------------------------------
// Action channel
// ---------------------------------------------------------------------------

// DeleteAction instructs the chat host to delete a message. Exactly one of
// MessageID or WarningID is set: MessageID for the offending message,
// WarningID for an expired warning the host posted earlier.
type DeleteAction struct {
	ChatID    int64  `json:"chat_id"`
	MessageID int64  `json:"message_id,omitempty"`
	WarningID string `json:"warning_id,omitempty"`
}

// WarnAction instructs the chat host to post a short-lived warning in the
// chat. The host tags the posted message with WarningID so a later
// DeleteAction can remove it.
type WarnAction struct {
	WarningID string   `json:"warning_id"`
	ChatID    int64    `json:"chat_id"`
	UserID    int64    `json:"user_id"`
	UserName  string   `json:"user_name"`
	Reasons   []string `json:"reasons"`
	Ts        int64    `json:"ts"`
}

// NotifyAction instructs the chat host to notify its administrators about a
// detection.
type NotifyAction struct {
	ChatID          int64    `json:"chat_id"`
	UserID          int64    `json:"user_id"`
	UserName        string   `json:"user_name"`
	MessagePreview  string   `json:"message_preview"`
	MatchedKeywords []string `json:"matched_keywords"`
	RiskScore       float64  `json:"risk_score"`
	Reasons         []string `json:"reasons"`
}

// ---------------------------------------------------------------------------
// Keyword management channel
// ---------------------------------------------------------------------------

// Keyword command ops.
const (
	OpAddKeyword    = "add"
	OpRemoveKeyword = "remove"
	OpListKeywords  = "list"
)

// KeywordCommand is an operator request to change or inspect the keyword set.
// RequestID routes the reply back to the issuing host.
type KeywordCommand struct {
	RequestID       string `json:"request_id"`
	Op              string `json:"op"`
	Keyword         string `json:"keyword,omitempty"`
	AddedBy         int64  `json:"added_by,omitempty"`
	IncludeInactive bool   `json:"include_inactive,omitempty"`
}

// KeywordInfo is one keyword entry in a list reply.
type KeywordInfo struct {
	Keyword        string `json:"keyword"`
	Active         bool   `json:"active"`
	DetectionCount int64  `json:"detection_count"`
}

// KeywordReply is the moderation service's response to a KeywordCommand,
// published to keywords.reply.<request_id>.
type KeywordReply struct {
	RequestID string        `json:"request_id"`
	OK        bool          `json:"ok"`
	Error     string        `json:"error,omitempty"`
	Keywords  []KeywordInfo `json:"keywords,omitempty"`
}

// ParseKeywordCommand parses raw bytes into a KeywordCommand, validating the
// op and required fields. An error is returned for unknown ops or commands
// that cannot be routed back.
func ParseKeywordCommand(data []byte) (KeywordCommand, error) {
	var cmd KeywordCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return cmd, fmt.Errorf("protocol: failed to parse keyword command: %w", err)
	}
	if cmd.RequestID == "" {
		return cmd, fmt.Errorf("protocol: keyword command missing request_id")
	}
	switch cmd.Op {
	case OpAddKeyword, OpRemoveKeyword:
		if cmd.Keyword == "" {
			return cmd, fmt.Errorf("protocol: %s command missing keyword", cmd.Op)
		}
	case OpListKeywords:
	default:
		return cmd, fmt.Errorf("protocol: unknown keyword command op: %q", cmd.Op)
	}
	return cmd, nil
}
