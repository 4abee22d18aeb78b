// Package warpcli is the Go client of the warpvpn daemon socket protocol.
package warpcli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/warpdl/warpvpn/common"
)

type Client struct {
	mu     sync.Mutex
	d      *Dispatcher
	conn   net.Conn
	listen atomic.Bool
}

// NewClient connects to the daemon, spawning it when nothing answers.
func NewClient() (*Client, error) {
	conn, err := ensureDaemon()
	if err != nil {
		return nil, fmt.Errorf("error connecting to server: %w", err)
	}
	return newClient(conn), nil
}

func newClient(conn net.Conn) *Client {
	return &Client{
		conn: conn,
		d:    &Dispatcher{Handlers: make(map[common.UpdateType][]Handler)},
	}
}

// AddHandler registers h for pushed updates of utype.
func (c *Client) AddHandler(utype common.UpdateType, h Handler) {
	c.mu.Lock()
	c.d.AddHandler(utype, h)
	c.mu.Unlock()
}

func (c *Client) RemoveHandler(utype common.UpdateType) {
	c.mu.Lock()
	c.d.RemoveHandler(utype)
	c.mu.Unlock()
}

// Listen dispatches pushed updates until Disconnect is called, a handler
// returns ErrDisconnect or the connection fails. It must not run
// concurrently with method calls on the same client.
func (c *Client) Listen() error {
	defer c.conn.Close()
	c.listen.Store(true)
	for c.listen.Load() {
		buf, err := read(c.conn)
		if err != nil {
			if !c.listen.Load() {
				return nil
			}
			return fmt.Errorf("error reading: %w", err)
		}
		c.mu.Lock()
		err = c.d.process(buf)
		c.mu.Unlock()
		if err != nil {
			if errors.Is(err, ErrDisconnect) {
				return nil
			}
			return fmt.Errorf("error processing: %w", err)
		}
	}
	return nil
}

// Disconnect stops Listen.
func (c *Client) Disconnect() {
	if c.listen.Swap(false) {
		_ = c.conn.Close()
	}
}

func (c *Client) Close() error {
	c.listen.Store(false)
	return c.conn.Close()
}

func (c *Client) invoke(method common.UpdateType, message any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf, err := json.Marshal(&Request{
		Method:  method,
		Message: message,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke %s: %w", method, err)
	}
	if err = write(c.conn, buf); err != nil {
		return nil, fmt.Errorf("failed to invoke %s: %w", method, err)
	}
	for {
		buf, err = read(c.conn)
		if err != nil {
			return nil, fmt.Errorf("failed to invoke %s: %w", method, err)
		}
		var res Response
		if err = json.Unmarshal(buf, &res); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", method, err)
		}
		if !res.Ok {
			return nil, errors.New(res.Error)
		}
		if res.Update == nil {
			return nil, nil
		}
		// a watching connection may receive events ahead of the reply
		if res.Update.Type == common.UPDATE_EVENT {
			if _, ok := c.d.Handlers[common.UPDATE_EVENT]; ok {
				if err = c.d.dispatch(res.Update); err != nil {
					return nil, err
				}
			}
			continue
		}
		return res.Update.Message, nil
	}
}
