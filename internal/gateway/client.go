// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway maintains the websocket connection to the Parley
// push gateway.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the gateway client.
type ClientConfig struct {
	// URL is the gateway websocket endpoint (default: ws://127.0.0.1:8790/gateway)
	URL string

	// Token is the bearer token presented during the handshake.
	Token string

	// MinReconnectDelay is the first reconnect backoff step (default: 1s)
	MinReconnectDelay time.Duration

	// MaxReconnectDelay caps the backoff (default: 30s)
	MaxReconnectDelay time.Duration

	// EventBuffer is the per-subscription channel depth (default: 256)
	EventBuffer int
}

// DefaultConfig returns the default gateway configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		URL:               "ws://127.0.0.1:8790/gateway",
		MinReconnectDelay: 1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		EventBuffer:       256,
	}
}

// ErrClosed is returned by Subscribe after the client has shut down.
var ErrClosed = errors.New("gateway client is closed")

// =============================================================================
// SUBSCRIPTION
// =============================================================================

// Subscription is a live event stream for one conversation. Events()
// yields pushed events until Close, which also tells the gateway to
// stop sending them. Close is idempotent.
type Subscription struct {
	id             string
	conversationID string
	events         chan Event
	client         *Client
	closeOnce      sync.Once
}

// ConversationID returns the conversation this subscription follows.
func (s *Subscription) ConversationID() string {
	return s.conversationID
}

// Events returns the event channel. The channel closes when the
// subscription or its client closes.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close unsubscribes from the gateway and closes the event channel.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.client.unsubscribe(s)
	})
}

// =============================================================================
// CLIENT
// =============================================================================

// Client owns the gateway websocket connection. Start launches the
// connection loop; Subscribe registers interest in a conversation.
// Subscriptions survive reconnects - the loop re-sends their subscribe
// frames each time the connection comes back.
type Client struct {
	config *ClientConfig
	dialer *websocket.Dialer

	// mu guards conn, subs, and closed. Event dispatch also runs under
	// mu, so closing a subscription channel under mu can never race a
	// pending send.
	mu     sync.Mutex
	conn   *websocket.Conn
	subs   map[string]*Subscription
	closed bool

	orderChanged func(conversationIDs []string)
}

// NewClient creates a gateway client. Call Start to connect.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.URL == "" {
		config.URL = "ws://127.0.0.1:8790/gateway"
	}
	if config.MinReconnectDelay == 0 {
		config.MinReconnectDelay = 1 * time.Second
	}
	if config.MaxReconnectDelay == 0 {
		config.MaxReconnectDelay = 30 * time.Second
	}
	if config.EventBuffer == 0 {
		config.EventBuffer = 256
	}

	return &Client{
		config: config,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		subs:   make(map[string]*Subscription),
	}
}

// SetOrderChangedFunc registers the callback for conversation-list
// reorder events. Must be called before Start.
func (c *Client) SetOrderChangedFunc(fn func(conversationIDs []string)) {
	c.orderChanged = fn
}

// Start launches the connection loop. It returns immediately; the loop
// runs until ctx is cancelled or Close is called.
func (c *Client) Start(ctx context.Context) {
	go c.run(ctx)
}

// Close shuts the client down and closes every subscription channel.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	for id, sub := range c.subs {
		close(sub.events)
		delete(c.subs, id)
	}
}

// Subscribe registers interest in a conversation's pushed events. The
// subscription is effective even while disconnected; the subscribe
// frame goes out as soon as a connection exists.
func (c *Client) Subscribe(conversationID string) (*Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	sub := &Subscription{
		id:             uuid.NewString(),
		conversationID: conversationID,
		events:         make(chan Event, c.config.EventBuffer),
		client:         c,
	}
	c.subs[sub.id] = sub

	if c.conn != nil {
		// Best effort; a write failure tears the connection down and
		// the reconnect loop re-subscribes.
		c.conn.WriteJSON(clientFrame{
			Op:             opSubscribe,
			SubscriptionID: sub.id,
			ConversationID: conversationID,
		})
	}
	return sub, nil
}

func (c *Client) unsubscribe(sub *Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.subs[sub.id]; !ok {
		return
	}
	delete(c.subs, sub.id)
	close(sub.events)

	if c.conn != nil && !c.closed {
		c.conn.WriteJSON(clientFrame{Op: opUnsubscribe, SubscriptionID: sub.id})
	}
}

// =============================================================================
// CONNECTION LOOP
// =============================================================================

func (c *Client) run(ctx context.Context) {
	delay := c.config.MinReconnectDelay

	for {
		if ctx.Err() != nil || c.isClosed() {
			return
		}

		conn, err := c.dial(ctx)
		if err != nil {
			if !sleepCtx(ctx, delay) {
				return
			}
			delay *= 2
			if delay > c.config.MaxReconnectDelay {
				delay = c.config.MaxReconnectDelay
			}
			continue
		}
		delay = c.config.MinReconnectDelay

		if !c.attach(conn) {
			conn.Close()
			return
		}

		c.readLoop(conn)
		c.detach(conn)
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if c.config.Token != "" {
		header.Set("Authorization", "Bearer "+c.config.Token)
	}
	conn, resp, err := c.dialer.DialContext(ctx, c.config.URL, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

// attach installs the new connection and replays subscribe frames for
// every live subscription. Returns false if the client closed in the
// meantime.
func (c *Client) attach(conn *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.conn = conn
	for id, sub := range c.subs {
		conn.WriteJSON(clientFrame{
			Op:             opSubscribe,
			SubscriptionID: id,
			ConversationID: sub.conversationID,
		})
	}
	return true
}

func (c *Client) detach(conn *websocket.Conn) {
	conn.Close()
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		ev, ok := decodeEvent(raw)
		if !ok {
			continue
		}
		c.dispatch(ev)
	}
}

// dispatch routes one event to its consumers. Entry events fan out to
// every subscription on the matching conversation; a full channel
// drops the event rather than stalling the read loop.
func (c *Client) dispatch(ev Event) {
	if ev.Type == EventConversationsReorder {
		if c.orderChanged != nil {
			c.orderChanged(ev.ConversationIDs)
		}
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sub := range c.subs {
		if sub.conversationID != ev.ConversationID {
			continue
		}
		select {
		case sub.events <- ev:
		default:
		}
	}
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// sleepCtx waits for d or until ctx is done. Returns false on cancel.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
