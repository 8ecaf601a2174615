// Package messaging provides a NATS client wrapper for pub/sub messaging
// between chat hosts and the moderation service. It handles connection
// lifecycle, subject-based subscriptions, and convenience methods for the
// moderation and action channels.
package messaging

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATS subject patterns used between chat hosts and the moderation service.
const (
	SubjectModerationCheck   = "moderation.check"
	SubjectModerationVerdict = "moderation.verdict" // + .<chat_id>

	SubjectKeywordCommand = "keywords.command"
	SubjectKeywordReply   = "keywords.reply" // + .<request_id>

	SubjectActionDelete = "action.delete"
	SubjectActionWarn   = "action.warn"
	SubjectActionNotify = "action.notify"
)

// NATSClient wraps the NATS connection with helper methods for pub/sub.
type NATSClient struct {
	conn *nats.Conn
	mu   sync.Mutex
	subs map[string]*nats.Subscription
}

// NATSConfig holds NATS connection settings.
type NATSConfig struct {
	URL           string        // nats://localhost:4222
	Name          string        // client name for identification
	ReconnectWait time.Duration // time between reconnect attempts
	MaxReconnects int           // max reconnect attempts (-1 for infinite)
}

// DefaultNATSConfig returns sensible defaults.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           "nats://localhost:4222",
		Name:          "copyguard",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1, // infinite reconnects
	}
}

// NewNATSClient connects to NATS with the given config and returns a ready client.
// It returns an error if the initial connection fails.
func NewNATSClient(config NATSConfig) (*NATSClient, error) {
	opts := []nats.Option{
		nats.Name(config.Name),
		nats.ReconnectWait(config.ReconnectWait),
		nats.MaxReconnects(config.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("[nats] disconnected: %v", err)
			} else {
				log.Printf("[nats] disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[nats] reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Printf("[nats] connection closed")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	log.Printf("[nats] connected to %s", nc.ConnectedUrl())

	return &NATSClient{
		conn: nc,
		subs: make(map[string]*nats.Subscription),
	}, nil
}

// Publish sends data to the given NATS subject.
func (c *NATSClient) Publish(subject string, data []byte) error {
	return c.conn.Publish(subject, data)
}

// Subscribe registers a handler for the given subject and stores the
// subscription internally for later cleanup.
func (c *NATSClient) Subscribe(subject string, handler func(msg *nats.Msg)) error {
	sub, err := c.conn.Subscribe(subject, handler)
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", subject, err)
	}

	c.mu.Lock()
	c.subs[subject] = sub
	c.mu.Unlock()

	return nil
}

// PublishModerationCheck publishes a moderation check request from a chat host.
func (c *NATSClient) PublishModerationCheck(data []byte) error {
	return c.Publish(SubjectModerationCheck, data)
}

// SubscribeModerationCheck subscribes to moderation check requests.
func (c *NATSClient) SubscribeModerationCheck(handler func(data []byte)) error {
	return c.Subscribe(SubjectModerationCheck, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

// PublishVerdict publishes a verdict for a specific chat.
func (c *NATSClient) PublishVerdict(chatID int64, data []byte) error {
	return c.Publish(SubjectModerationVerdict+"."+strconv.FormatInt(chatID, 10), data)
}

// SubscribeVerdicts subscribes to verdicts for a specific chat.
func (c *NATSClient) SubscribeVerdicts(chatID int64, handler func(data []byte)) error {
	subject := SubjectModerationVerdict + "." + strconv.FormatInt(chatID, 10)
	return c.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

// PublishKeywordCommand publishes a keyword management command.
func (c *NATSClient) PublishKeywordCommand(data []byte) error {
	return c.Publish(SubjectKeywordCommand, data)
}

// SubscribeKeywordCommands subscribes to keyword management commands.
func (c *NATSClient) SubscribeKeywordCommands(handler func(data []byte)) error {
	return c.Subscribe(SubjectKeywordCommand, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

// PublishKeywordReply publishes the reply for a keyword command.
func (c *NATSClient) PublishKeywordReply(requestID string, data []byte) error {
	return c.Publish(SubjectKeywordReply+"."+requestID, data)
}

// SubscribeKeywordReply subscribes to the reply for a specific keyword command.
func (c *NATSClient) SubscribeKeywordReply(requestID string, handler func(data []byte)) error {
	subject := SubjectKeywordReply + "." + requestID
	return c.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

// UnsubscribeKeywordReply unsubscribes from a keyword command reply subject.
func (c *NATSClient) UnsubscribeKeywordReply(requestID string) error {
	return c.unsubscribe(SubjectKeywordReply + "." + requestID)
}

// Close drains all active subscriptions and closes the NATS connection.
func (c *NATSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for subject, sub := range c.subs {
		if err := sub.Drain(); err != nil {
			log.Printf("[nats] drain %s: %v", subject, err)
		}
	}
	c.subs = make(map[string]*nats.Subscription)

	if err := c.conn.Drain(); err != nil {
		log.Printf("[nats] connection drain: %v", err)
	}

	log.Printf("[nats] client closed")
}

// unsubscribe removes and unsubscribes from a specific subject.
func (c *NATSClient) unsubscribe(subject string) error {
	c.mu.Lock()
	sub, ok := c.subs[subject]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("nats: no subscription for subject %s", subject)
	}
	delete(c.subs, subject)
	c.mu.Unlock()

	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("nats unsubscribe %s: %w", subject, err)
	}
	return nil
}
