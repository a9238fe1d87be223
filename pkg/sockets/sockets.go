package sockets

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type Connection interface {
	Dial(ctx context.Context, url, subprotocol string) error
	Send(msg Msg) error
	Cancel(id uint64)
	io.Closer
}

// Msg is the message structure. When Callback is set the frame is treated
// as a command: the callback fires once on the inbound frame carrying the
// same id. Frames without a matching pending command go to OnMessage.
type Msg struct {
	ID       uint64
	Body     []byte
	Callback func([]byte, Connection)
}

type Conn struct {
	ws               *websocket.Conn
	sslSkipVerify    bool
	closed           bool
	pingIntervalSecs int
	onError          func(err error)
	onMessage        func([]byte, Connection)
	onConnected      func(Connection)
	pingMsg          []byte

	mu      sync.Mutex
	pending map[uint64]Msg
}

func New(opts ...func(*Conn)) Connection {
	c := &Conn{
		pending: make(map[uint64]Msg),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Closes the connection.
func (c *Conn) Close() error {
	c.close()
	return nil
}

func (c *Conn) close() {
	if c.ws != nil {
		_ = c.ws.Close()
	}
	c.closed = true
}

func (c *Conn) Send(msg Msg) error {
	if c.closed {
		return errors.New("closed connection")
	}
	if msg.Callback != nil {
		c.mu.Lock()
		c.pending[msg.ID] = msg
		c.mu.Unlock()
	}
	c.mu.Lock()
	err := c.ws.WriteMessage(websocket.TextMessage, msg.Body)
	c.mu.Unlock()
	if err != nil {
		c.close()
		if c.onError != nil {
			c.onError(err)
		}
		return err
	}
	return nil
}

// Cancel drops the pending command for id, if any. Callers that give up
// waiting must cancel, otherwise the correlation table grows by one dead
// closure per timed-out command for the life of the connection.
func (c *Conn) Cancel(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Conn) Dial(ctx context.Context, url, subProtocol string) error {
	dialer := &websocket.Dialer{
		HandshakeTimeout: 15 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: c.sslSkipVerify,
		},
	}
	var headers map[string][]string
	if subProtocol != "" {
		headers = map[string][]string{"Sec-WebSocket-Protocol": {subProtocol}}
	}
	conn, _, err := dialer.DialContext(ctx, url, headers)
	if err != nil {
		return err
	}
	c.ws = conn
	c.closed = false

	if c.onConnected != nil {
		go c.onConnected(c)
	}
	go func() {
		for {
			_, msg, err := c.ws.ReadMessage()
			if err != nil {
				// a deliberate Close is not an error worth reporting
				if !c.closed && c.onError != nil {
					c.onError(err)
				}
				return
			}
			c.onMsg(msg)
		}
	}()
	c.setupPing()
	return nil
}

// frameID is the minimal decode needed to correlate a frame with a
// pending command.
type frameID struct {
	ID uint64 `json:"id"`
}

func (c *Conn) onMsg(msg []byte) {
	var fid frameID
	if err := json.Unmarshal(msg, &fid); err == nil && fid.ID != 0 {
		c.mu.Lock()
		pending, ok := c.pending[fid.ID]
		if ok {
			delete(c.pending, fid.ID)
		}
		c.mu.Unlock()
		if ok {
			go pending.Callback(msg, c)
			return
		}
	}
	// Fire OnMessage for everything uncorrelated.
	if c.onMessage != nil {
		go c.onMessage(msg, c)
	}
}

func (c *Conn) setupPing() {
	if c.pingIntervalSecs > 0 && len(c.pingMsg) > 0 {
		ticker := time.NewTicker(time.Second * time.Duration(c.pingIntervalSecs))
		go func() {
			defer ticker.Stop()
			for {
				<-ticker.C // wait for tick
				if c.Send(Msg{Body: c.pingMsg}) != nil {
					return
				}
			}
		}()
	}
}
