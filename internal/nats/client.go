package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/nats-io/nats.go"
)

// Event types
const (
	EventWorkspaceCreated  = "workspace.created"
	EventWorkspaceUpdated  = "workspace.updated"
	EventWorkspaceDeleted  = "workspace.deleted"
	EventMemberInvited     = "workspace.member.invited"
	EventMemberJoined      = "workspace.member.joined"
	EventMemberRemoved     = "workspace.member.removed"
	EventMemberRoleChanged = "workspace.member.role_changed"
)

// WorkspaceEvent is published for workspace lifecycle changes
type WorkspaceEvent struct {
	EventType   string    `json:"event_type"`
	WorkspaceID string    `json:"workspace_id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	ActorID     string    `json:"actor_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// MemberEvent is published for membership lifecycle changes.
// Email is set for invitation events, UserID once a member exists.
type MemberEvent struct {
	EventType   string    `json:"event_type"`
	WorkspaceID string    `json:"workspace_id"`
	UserID      string    `json:"user_id,omitempty"`
	Email       string    `json:"email,omitempty"`
	Role        string    `json:"role"`
	ActorID     string    `json:"actor_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Client wraps the NATS connection
type Client struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// Config holds NATS connection configuration
type Config struct {
	URL string
}

// DefaultConfig returns the default NATS configuration
func DefaultConfig() *Config {
	url := os.Getenv("NATS_URL")
	if url == "" {
		url = "nats://nats.nats.svc.cluster.local:4222"
	}
	return &Config{
		URL: url,
	}
}

// NewClient creates a new NATS client
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	log.Printf("[NATS] Connecting to %s", cfg.URL)

	// Connect with retry options - production-ready settings
	opts := []nats.Option{
		nats.Name("workspace-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1), // Unlimited reconnects for production resilience
		nats.ReconnectWait(2 * time.Second),
		nats.ReconnectBufSize(8 * 1024 * 1024), // 8MB buffer for messages during reconnect
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("[NATS] Disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[NATS] Reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Printf("[NATS] Error: %v", err)
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Printf("[NATS] Connection closed")
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	// Create JetStream context for persistent messaging
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	// Ensure the workspace events stream exists
	// Using LimitsPolicy to allow multiple consumers (notification-service, analytics, etc.)
	_, err = js.AddStream(&nats.StreamConfig{
		Name:        "WORKSPACE_EVENTS",
		Description: "Stream for workspace lifecycle events",
		Subjects:    []string{"workspace.>"},
		Storage:     nats.FileStorage,
		Retention:   nats.LimitsPolicy,  // Allow multiple consumers
		MaxAge:      24 * time.Hour * 7, // Keep messages for 7 days
		MaxMsgs:     100000,
		Discard:     nats.DiscardOld,
	})
	if err != nil && err != nats.ErrStreamNameAlreadyInUse {
		log.Printf("[NATS] Warning: Could not create stream (may already exist): %v", err)
	}

	log.Printf("[NATS] Connected successfully to %s", cfg.URL)

	return &Client{
		conn: conn,
		js:   js,
	}, nil
}

// PublishWorkspaceEvent publishes a workspace lifecycle event with retry logic
func (c *Client) PublishWorkspaceEvent(ctx context.Context, eventType string, event *WorkspaceEvent) error {
	if c == nil || c.js == nil {
		log.Printf("[NATS] Client not initialized, skipping publish")
		return nil
	}

	event.EventType = eventType
	event.Timestamp = time.Now().UTC()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ack, err := c.publishWithRetry(ctx, eventType, data)
	if err != nil {
		return err
	}

	log.Printf("[NATS] Published %s event for workspace %s (seq: %d)", eventType, event.WorkspaceID, ack.Sequence)
	return nil
}

// PublishMemberEvent publishes a membership lifecycle event with retry logic
func (c *Client) PublishMemberEvent(ctx context.Context, eventType string, event *MemberEvent) error {
	if c == nil || c.js == nil {
		log.Printf("[NATS] Client not initialized, skipping publish")
		return nil
	}

	event.EventType = eventType
	event.Timestamp = time.Now().UTC()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ack, err := c.publishWithRetry(ctx, eventType, data)
	if err != nil {
		return err
	}

	log.Printf("[NATS] Published %s event for workspace %s (seq: %d)", eventType, event.WorkspaceID, ack.Sequence)
	return nil
}

// publishWithRetry publishes to JetStream with exponential backoff: 1s, 2s, 4s
func (c *Client) publishWithRetry(ctx context.Context, subject string, data []byte) (*nats.PubAck, error) {
	var ack *nats.PubAck
	var err error
	maxRetries := 3
	for attempt := 1; attempt <= maxRetries; attempt++ {
		ack, err = c.js.Publish(subject, data)
		if err == nil {
			return ack, nil
		}
		log.Printf("[NATS] Attempt %d/%d: Failed to publish %s event: %v", attempt, maxRetries, subject, err)
		if attempt < maxRetries {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("context cancelled while retrying publish: %w", ctx.Err())
			case <-time.After(backoff):
				continue
			}
		}
	}
	return nil, fmt.Errorf("failed to publish event after %d attempts: %w", maxRetries, err)
}

// Close closes the NATS connection
func (c *Client) Close() {
	if c != nil && c.conn != nil {
		c.conn.Close()
		log.Printf("[NATS] Connection closed")
	}
}

// IsConnected returns true if the client is connected
func (c *Client) IsConnected() bool {
	return c != nil && c.conn != nil && c.conn.IsConnected()
}
