package controller

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"corvex/websocket"
	"corvex/websocket/service/heartbeat"
	"corvex/websocket/service/notes"
	"corvex/websocket/service/pdf"
)

// StartSession upgrades to a websocket and serves the notes, pdf and
// heartbeat services until the connection closes.
func (ctl *Controller) StartSession(c *gin.Context) {
	wsServer, err := websocket.NewServer(c.Writer, c.Request, websocket.Options{
		Timeout:     ctl.opts.ConnectionTimeout,
		CheckOrigin: checkOrigin(ctl.opts.AllowedOrigins),
		Logger:      ctl.logger.Service("websocket"),
	})
	if err != nil {
		// the upgrader already replied
		return
	}

	notesService := notes.NewService(ctl.store, ctl.logger.Service("notes"))
	pdfService := pdf.NewService(ctl.renderer, ctl.logger.Service("pdf"))
	heartbeatService := heartbeat.NewService()

	wsServer.Register(notesService)
	wsServer.Register(pdfService)

	wsServer.RegisterPassive(heartbeatService)

	wsServer.Start()
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(r *http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// non-browser clients send no Origin
		return origin == "" || slices.Contains(allowed, origin)
	}
}
