package heartbeat

import (
	"encoding/json"

	ws "corvex/websocket"
)

// HeartbeatService echoes every message back to the client.
type HeartbeatService struct {
	conn ws.Writer
}

func (s *HeartbeatService) Register(conn ws.Writer) {
	s.conn = conn
}

func (s *HeartbeatService) Name() string {
	return "heartbeat"
}

func (s *HeartbeatService) HandleTextMessage(id, action string, data json.RawMessage) {
	s.conn.WriteJSON(&ws.ServiceMessage{Service: s.Name(), Action: action, Id: id})
}

func (s *HeartbeatService) Cleanup(err error) {}

func NewService() ws.Service {
	return &HeartbeatService{}
}
