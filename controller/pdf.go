package controller

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"corvex/metrics"
	"corvex/render"
)

// maxSourceSize bounds a render request body.
const maxSourceSize = 8 << 20

// GeneratePDF renders the request's LaTeX source. The source is either a
// JSON {"content": ...} body or the raw request body.
func (ctl *Controller) GeneratePDF(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSourceSize)

	var content string
	if c.ContentType() == binding.MIMEJSON {
		var req pdfRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			ctl.badRequest(c, "generate_pdf", err)
			return
		}
		content = req.Content
	} else {
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			ctl.badRequest(c, "generate_pdf", fmt.Errorf("read body: %w", err))
			return
		}
		content = string(data)
	}

	start := time.Now()
	pdf, err := ctl.renderer.RenderTo(c.Request.Context(), content, nil)
	metrics.RecordRender(render.Kind(err), time.Since(start), len(pdf))
	if err != nil {
		ctl.abort(c, "generate_pdf", render.Kind(err), err)
		return
	}

	c.Data(http.StatusOK, "application/pdf", pdf)
}
