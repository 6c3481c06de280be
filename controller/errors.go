package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"corvex/render"
)

const (
	kindInvalidRequest = "InvalidRequest"

	// nginx's code for a client that went away mid request
	statusClientClosedRequest = 499
)

var statusByKind = map[string]int{
	"NotFound":           http.StatusNotFound,
	"AlreadyExists":      http.StatusConflict,
	"InvalidExtension":   http.StatusBadRequest,
	"PathEscapesRoot":    http.StatusBadRequest,
	"StorageUnavailable": http.StatusServiceUnavailable,
	"EncodingError":      http.StatusUnprocessableEntity,
	"Committed":          http.StatusInternalServerError,
	"IoError":            http.StatusInternalServerError,
	"RenderError":        http.StatusUnprocessableEntity,
	"RenderTimeout":      http.StatusGatewayTimeout,
	"ProcessLaunchError": http.StatusServiceUnavailable,
	"Cancelled":          statusClientClosedRequest,
	kindInvalidRequest:   http.StatusBadRequest,
}

func statusOf(kind string) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func (ctl *Controller) abort(c *gin.Context, op, kind string, err error) {
	resp := errorResponse{Error: err.Error(), Kind: kind}

	var renderErr *render.RenderError
	if errors.As(err, &renderErr) {
		resp.Diagnostic = renderErr.Diagnostic
	}

	status := statusOf(kind)
	if status >= http.StatusInternalServerError {
		ctl.logger.Service("http").Errorw(op+" failed", "kind", kind, "error", err)
	} else {
		ctl.logger.Service("http").Debugw(op+" failed", "kind", kind, "error", err)
	}
	c.AbortWithStatusJSON(status, resp)
}

func (ctl *Controller) badRequest(c *gin.Context, op string, err error) {
	ctl.abort(c, op, kindInvalidRequest, err)
}
