package protocol

import (
	"fmt"
	"unicode/utf8"
)

const (
	MaxMessageBytes = 4096 // 4KB max message payload
	MaxTextChars    = 2000 // max character count
)

// ValidateCheckRequest checks that a moderation request is well formed enough
// to evaluate. Empty text is fine (it evaluates to a pass verdict); oversized
// or non-UTF-8 payloads are rejected before they reach the pipeline.
func ValidateCheckRequest(req *CheckRequest) error {
	if req.ChatID == 0 {
		return fmt.Errorf("check request missing chat_id")
	}
	if req.MessageID == 0 {
		return fmt.Errorf("check request missing message_id")
	}
	if len(req.Text) > MaxMessageBytes {
		return fmt.Errorf("message exceeds %d byte limit", MaxMessageBytes)
	}
	if utf8.RuneCountInString(req.Text) > MaxTextChars {
		return fmt.Errorf("message exceeds %d character limit", MaxTextChars)
	}
	if !utf8.ValidString(req.Text) {
		return fmt.Errorf("message contains invalid UTF-8")
	}
	return nil
}
