package controller

import (
	"context"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"corvex/logging"
	"corvex/storage"
)

// Renderer compiles LaTeX into PDF bytes.
type Renderer interface {
	RenderTo(ctx context.Context, content string, log io.Writer) ([]byte, error)
}

type Options struct {
	// ConnectionTimeout closes idle websocket sessions.
	ConnectionTimeout time.Duration
	// AllowedOrigins is checked on websocket upgrades; "*" allows any.
	AllowedOrigins []string
}

type Controller struct {
	store    storage.Notes
	renderer Renderer
	opts     Options
	logger   *logging.Logger
}

func New(store storage.Notes, renderer Renderer, opts Options, logger *logging.Logger) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Controller{store: store, renderer: renderer, opts: opts, logger: logger}
}

// SetupRoutes registers the websocket and REST routes. renderLimit guards
// the render endpoint only.
func (ctl *Controller) SetupRoutes(r gin.IRouter, renderLimit ...gin.HandlerFunc) {
	r.GET("/ws", ctl.StartSession)

	api := r.Group("/api")
	{
		api.GET("/storage", ctl.StorageDirectory)
		api.GET("/tree", ctl.ListAll)

		files := api.Group("/files")
		files.POST("", ctl.CreateFile)
		files.PATCH("", ctl.RenameFile)
		files.POST("/move", ctl.MoveFile)
		files.DELETE("", ctl.DeleteFile)
		files.GET("/content", ctl.ReadFile)
		files.PUT("/content", ctl.WriteFile)

		folders := api.Group("/folders")
		folders.POST("", ctl.CreateFolder)
		folders.PATCH("", ctl.RenameFolder)
		folders.POST("/move", ctl.MoveFolder)
		folders.DELETE("", ctl.DeleteFolder)

		api.POST("/pdf", append(renderLimit, ctl.GeneratePDF)...)
	}
}
