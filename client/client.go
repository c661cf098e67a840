// Package client is a Go client for the chat gateway. Push events reach the
// caller through explicit subscriptions that return an unsubscribe handle, so
// teardown is always explicit and handler lists cannot grow unbounded.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"devconnect/contract"
)

// Handler receives every event pushed by the gateway, including error frames.
type Handler func(e contract.Event)

type Client struct {
	ws *websocket.Conn

	mu       sync.Mutex
	handlers map[int]Handler
	nextID   int
	writeMu  sync.Mutex
	done     chan struct{}
}

// Dial connects and authenticates against the gateway. The returned client is
// live immediately; events arriving before the first Subscribe are dropped.
func Dial(ctx context.Context, url, token string) (*Client, error) {
	header := http.Header{"Authorization": []string{"Bearer " + token}}
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("gateway rejected credentials: %w", err)
		}
		return nil, err
	}

	c := &Client{
		ws:       ws,
		handlers: make(map[int]Handler),
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Subscribe registers fn for every pushed event and returns its unsubscribe
// handle. Unsubscribing twice is harmless.
func (c *Client) Subscribe(fn Handler) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.handlers[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.handlers, id)
			c.mu.Unlock()
		})
	}
}

// Join asks the gateway for room membership; the backfill and any error
// arrive as events on the subscriptions.
func (c *Client) Join(projectID string) error {
	return c.write(map[string]string{"type": "join", "projectId": projectID})
}

func (c *Client) Leave(projectID string) error {
	return c.write(map[string]string{"type": "leave", "projectId": projectID})
}

func (c *Client) Send(projectID, content string) error {
	return c.write(map[string]string{"type": "message", "projectId": projectID, "content": content})
}

func (c *Client) MarkRead(messageID string) error {
	return c.write(map[string]string{"type": "markRead", "messageId": messageID})
}

// Close tears the connection down; pending subscriptions stop firing.
func (c *Client) Close() error {
	select {
	case <-c.done:
		return nil
	default:
	}
	c.writeMu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), closeDeadline())
	c.writeMu.Unlock()
	return c.ws.Close()
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		var e contract.Event
		if err := json.Unmarshal(data, &e); err != nil {
			continue
		}
		c.mu.Lock()
		handlers := make([]Handler, 0, len(c.handlers))
		for _, fn := range c.handlers {
			handlers = append(handlers, fn)
		}
		c.mu.Unlock()
		for _, fn := range handlers {
			fn(e)
		}
	}
}

func closeDeadline() time.Time {
	return time.Now().Add(time.Second)
}

func (c *Client) write(frame map[string]string) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}
