package server

import (
	"fmt"
	"net"
	"sync"
)

// Client is a connection to a running socket server. Send is safe for
// concurrent use; requests are serialized on the one connection.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
}

func Dial(sockPath string) (*Client, error) {
	conn, err := net.Dial("unix", sockPath)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", sockPath, err)
	}
	return &Client{conn: conn}, nil
}

// Send writes a copy of req, with an id filled in when it has none, and
// waits for the response. req itself is not modified.
func (c *Client) Send(req map[string]any) (map[string]any, error) {
	msg := make(map[string]any, len(req)+1)
	for k, v := range req {
		msg[k] = v
	}
	if _, ok := msg["id"]; !ok {
		msg["id"] = NextID()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := WriteMsg(c.conn, msg); err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}
	resp, err := ReadMsg(c.conn)
	if err != nil {
		return nil, fmt.Errorf("receive: %w", err)
	}
	return resp, nil
}

func (c *Client) Close() error { return c.conn.Close() }
