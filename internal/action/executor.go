// Package action turns filter verdicts into enforcement actions published
// for chat hosts: delete the offending message, post a short-lived warning,
// and notify administrators. The service never talks to a chat platform
// directly; hosts subscribe to the action subjects and apply them.
package action

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/copyguard/moderation/internal/engine"
	"github.com/copyguard/moderation/internal/messaging"
	"github.com/copyguard/moderation/internal/metrics"
	"github.com/copyguard/moderation/internal/protocol"
	"github.com/copyguard/moderation/internal/ratelimit"
)

// Publisher abstracts the transport. *messaging.NATSClient satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Executor publishes enforcement actions for filtered messages. Warnings are
// cleaned up after warningTTL by publishing a delete for the warning ID.
// With a limiter set, warnings are throttled per user and notifications per
// chat; the delete is never throttled.
type Executor struct {
	pub        Publisher
	limiter    *ratelimit.Limiter
	warningTTL time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// NewExecutor creates an executor publishing on pub. Warnings expire after
// warningTTL. limiter may be nil to disable output throttling.
func NewExecutor(pub Publisher, limiter *ratelimit.Limiter, warningTTL time.Duration) *Executor {
	return &Executor{
		pub:        pub,
		limiter:    limiter,
		warningTTL: warningTTL,
		timers:     make(map[string]*time.Timer),
	}
}

// allow consults the limiter, treating a nil limiter or a Redis failure as
// allowed.
func (e *Executor) allow(ctx context.Context, identifier string, rule ratelimit.Rule) bool {
	if e.limiter == nil {
		return true
	}
	ok, _ := e.limiter.Allow(ctx, identifier, rule)
	return ok
}

// Execute publishes the delete, warn and notify actions for one filtered
// message and schedules the warning cleanup. Failures on later actions do not
// roll back earlier ones; the first error is returned after attempting all
// three.
func (e *Executor) Execute(ctx context.Context, req protocol.CheckRequest, verdict engine.Verdict) error {
	if !verdict.ShouldFilter {
		return nil
	}

	var firstErr error
	record := func(action string, err error) {
		if err != nil {
			log.Printf("[action] publish %s for msg %d in chat %d: %v", action, req.MessageID, req.ChatID, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("action: publish %s: %w", action, err)
			}
			return
		}
		metrics.ActionsTotal.WithLabelValues(action).Inc()
	}

	record("delete", e.publishDelete(protocol.DeleteAction{
		ChatID:    req.ChatID,
		MessageID: req.MessageID,
	}))

	if e.allow(ctx, strconv.FormatInt(req.UserID, 10), ratelimit.RuleWarn) {
		warningID := uuid.NewString()
		record("warn", e.publishWarn(protocol.WarnAction{
			WarningID: warningID,
			ChatID:    req.ChatID,
			UserID:    req.UserID,
			UserName:  req.UserName,
			Reasons:   verdict.Reasons,
			Ts:        time.Now().Unix(),
		}))
		e.scheduleCleanup(warningID, req.ChatID)
	}

	if e.allow(ctx, strconv.FormatInt(req.ChatID, 10), ratelimit.RuleNotify) {
		record("notify", e.publishNotify(protocol.NotifyAction{
			ChatID:          req.ChatID,
			UserID:          req.UserID,
			UserName:        req.UserName,
			MessagePreview:  preview(req.Text),
			MatchedKeywords: verdict.MatchedKeywords,
			RiskScore:       verdict.RiskScore,
			Reasons:         verdict.Reasons,
		}))
	}

	return firstErr
}

// scheduleCleanup arms a timer that deletes the warning after the TTL.
func (e *Executor) scheduleCleanup(warningID string, chatID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	e.timers[warningID] = time.AfterFunc(e.warningTTL, func() {
		e.mu.Lock()
		delete(e.timers, warningID)
		e.mu.Unlock()

		err := e.publishDelete(protocol.DeleteAction{
			ChatID:    chatID,
			WarningID: warningID,
		})
		if err != nil {
			log.Printf("[action] warning cleanup %s: %v", warningID, err)
			return
		}
		metrics.ActionsTotal.WithLabelValues("delete").Inc()
	})
}

// Close stops all pending warning cleanup timers. Warnings already published
// are left to the chat hosts' own expiry handling.
func (e *Executor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	for id, timer := range e.timers {
		timer.Stop()
		delete(e.timers, id)
	}
}

// PendingWarnings returns the number of warnings awaiting cleanup.
func (e *Executor) PendingWarnings() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.timers)
}

func (e *Executor) publishDelete(a protocol.DeleteAction) error {
	return e.publish(messaging.SubjectActionDelete, a)
}

func (e *Executor) publishWarn(a protocol.WarnAction) error {
	return e.publish(messaging.SubjectActionWarn, a)
}

func (e *Executor) publishNotify(a protocol.NotifyAction) error {
	return e.publish(messaging.SubjectActionNotify, a)
}

func (e *Executor) publish(subject string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return e.pub.Publish(subject, data)
}

// preview trims the notified text so admin notifications stay short.
func preview(text string) string {
	const limit = 100
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && text[cut]&0xC0 == 0x80 {
		cut--
	}
	return text[:cut] + "..."
}
