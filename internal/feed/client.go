package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"bundle-console/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handler receives one named live feed event with its opaque payload.
type Handler func(event string, payload json.RawMessage)

// Client maintains the push channel to the backend and fans incoming
// events out to subscribers. It is an injectable service object with an
// explicit lifecycle; nothing here is process-global.
type Client struct {
	cfg    models.FeedConfig
	dialer *websocket.Dialer

	mu       sync.RWMutex
	handlers map[string]map[int]Handler
	nextID   int
	conn     *websocket.Conn
	started  bool
	closed   bool

	stopChan chan struct{}
	doneChan chan struct{}
}

func NewClient(cfg models.FeedConfig) *Client {
	if cfg.ReconnectAttempts <= 0 {
		cfg.ReconnectAttempts = 5
	}
	return &Client{
		cfg: cfg,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		handlers: make(map[string]map[int]Handler),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Connect dials the feed, registers this client's user identity, and
// starts the read loop. On read failure the loop redials a bounded
// number of times before giving up.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return fmt.Errorf("feed client already connected")
	}
	c.started = true
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		c.mu.Lock()
		c.started = false
		c.mu.Unlock()
		return fmt.Errorf("unable to connect to live feed: %w", err)
	}
	c.setConn(conn)

	go c.readLoop(ctx)

	zap.L().Info("Live feed connected", zap.String("url", c.cfg.URL))
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return nil, err
	}

	if c.cfg.UserID != "" {
		register := map[string]string{"event": "register", "userId": c.cfg.UserID}
		if err := conn.WriteJSON(register); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("unable to register on feed: %w", err)
		}
	}
	return conn, nil
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

func (c *Client) readLoop(ctx context.Context) {
	defer close(c.doneChan)

	attempts := 0
	for {
		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()

		var envelope models.FeedEnvelope
		err := conn.ReadJSON(&envelope)
		if err == nil {
			attempts = 0
			c.dispatch(envelope.Event, envelope.Data)
			continue
		}

		select {
		case <-c.stopChan:
			return
		case <-ctx.Done():
			return
		default:
		}

		attempts++
		if attempts > c.cfg.ReconnectAttempts {
			zap.L().Error("Live feed gave up reconnecting",
				zap.Int("attempts", attempts-1),
				zap.Error(err))
			return
		}

		zap.L().Warn("Live feed disconnected, reconnecting",
			zap.Int("attempt", attempts),
			zap.Int("max_attempts", c.cfg.ReconnectAttempts),
			zap.Error(err))

		select {
		case <-time.After(time.Duration(attempts) * time.Second):
		case <-c.stopChan:
			return
		case <-ctx.Done():
			return
		}

		next, dialErr := c.dial(ctx)
		if dialErr != nil {
			zap.L().Warn("Live feed reconnect failed", zap.Error(dialErr))
			continue
		}
		c.setConn(next)
	}
}

// Subscribe registers a handler for one event name and returns its
// unsubscribe function.
func (c *Client) Subscribe(event string, h Handler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	set, ok := c.handlers[event]
	if !ok {
		set = make(map[int]Handler)
		c.handlers[event] = set
	}
	id := c.nextID
	c.nextID++
	set[id] = h

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.handlers[event], id)
	}
}

// SubscribeAll registers a handler for every data event the backend
// pushes. The returned function unsubscribes from all of them.
func (c *Client) SubscribeAll(h Handler) func() {
	events := models.FeedEvents()
	unsubs := make([]func(), 0, len(events))
	for _, event := range events {
		unsubs = append(unsubs, c.Subscribe(event, h))
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

func (c *Client) dispatch(event string, payload json.RawMessage) {
	c.mu.RLock()
	set := c.handlers[event]
	callbacks := make([]Handler, 0, len(set))
	for _, h := range set {
		callbacks = append(callbacks, h)
	}
	c.mu.RUnlock()

	for _, h := range callbacks {
		c.safeCall(event, payload, h)
	}
}

// safeCall keeps one misbehaving subscriber from killing the read loop.
func (c *Client) safeCall(event string, payload json.RawMessage, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("Feed handler panicked",
				zap.String("event", event),
				zap.Any("panic", r))
		}
	}()
	h(event, payload)
}

// Close stops the read loop and closes the connection. Safe to call
// more than once, and a no-op when the client never connected.
func (c *Client) Close() {
	c.mu.Lock()
	if !c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	close(c.stopChan)
	if conn != nil {
		_ = conn.Close()
	}
	<-c.doneChan

	c.mu.Lock()
	c.handlers = make(map[string]map[int]Handler)
	c.mu.Unlock()

	zap.L().Info("Live feed closed")
}
