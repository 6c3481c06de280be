package utils

import (
	"encoding/json"

	ws "corvex/websocket"
)

// WebsocketWriter turns each Write into one service message. Without a
// Transformer the chunk is sent as a JSON string.
type WebsocketWriter struct {
	Service     string
	Id          string
	Action      string
	Conn        ws.Writer
	Transformer func([]byte) []byte
}

func (w *WebsocketWriter) Write(p []byte) (n int, err error) {
	var transformed []byte
	if w.Transformer != nil {
		transformed = w.Transformer(p)
	} else if transformed, err = json.Marshal(string(p)); err != nil {
		return 0, err
	}

	err = w.Conn.WriteJSON(&ws.ServiceMessage{
		Service: w.Service,
		Id:      w.Id,
		Action:  w.Action,
		Data:    transformed,
	})

	if err != nil {
		return 0, err
	}

	return len(p), nil
}
