package websocket

import (
	"encoding/json"
	"net/http"
	"sync"

	ws "github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Conn struct {
	*ws.Conn
	*sync.Mutex
	TextMessage chan *ServiceMessage

	log *zap.SugaredLogger
}

func newUpgrader(checkOrigin func(r *http.Request) bool) *ws.Upgrader {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin,
	}
}

func (c *Conn) WriteJSON(v any) error {
	c.Lock()
	err := c.Conn.WriteJSON(v)
	c.Unlock()

	if err != nil {
		c.log.Warnw("write json failed", "error", err)
	}
	return err
}

// NewConn upgrades the request and initializes the message channel.
func NewConn(w http.ResponseWriter, r *http.Request, opts Options) (*Conn, error) {
	conn, err := newUpgrader(opts.CheckOrigin).Upgrade(w, r, nil)
	if err != nil {
		opts.logger().Warnw("websocket upgrade failed", "error", err)
		return nil, err
	}

	return &Conn{
		Conn:        conn,
		Mutex:       new(sync.Mutex),
		TextMessage: make(chan *ServiceMessage, 10),
		log:         opts.logger(),
	}, nil
}

// StartDispatch reads messages until the connection fails and feeds text
// messages into TextMessage, which it closes on return.
func (c *Conn) StartDispatch() error {
	defer close(c.TextMessage)
	for {
		msgType, data, err := c.ReadMessage()
		if err != nil {
			return err
		}

		if msgType != ws.TextMessage {
			c.log.Debugw("ignoring non-text frame", "type", msgType)
			continue
		}

		var msg ServiceMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warnw("error unmarshalling message", "error", err)
			continue
		}
		c.TextMessage <- &msg
	}
}
