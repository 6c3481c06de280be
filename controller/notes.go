package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"corvex/metrics"
	"corvex/storage"
)

// run executes one storage operation and writes its result or error.
// A nil result replies with status and no body.
func (ctl *Controller) run(c *gin.Context, op string, status int, fn func() (any, error)) {
	timer := metrics.NewTimer("http", op)

	result, err := fn()
	if err != nil {
		kind := storage.Kind(err)
		timer.Stop(kind)
		ctl.abort(c, op, kind, err)
		return
	}
	timer.Stop("")

	if result == nil {
		c.Status(status)
		return
	}
	c.JSON(status, result)
}

func (ctl *Controller) StorageDirectory(c *gin.Context) {
	ctl.run(c, "get_storage_directory", http.StatusOK, func() (any, error) {
		root, err := ctl.store.Root()
		if err != nil {
			return nil, err
		}
		return gin.H{"path": root, "extensions": ctl.store.Extensions()}, nil
	})
}

func (ctl *Controller) ListAll(c *gin.Context) {
	ctl.run(c, "list_all_files", http.StatusOK, func() (any, error) {
		tree, err := ctl.store.ListAll()
		if err != nil {
			return nil, err
		}
		metrics.SetTreeSize(tree.Count())
		return tree, nil
	})
}

func (ctl *Controller) CreateFile(c *gin.Context) {
	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ctl.badRequest(c, "create_file", err)
		return
	}
	ctl.run(c, "create_file", http.StatusCreated, func() (any, error) {
		return ctl.store.CreateFile(req.ID)
	})
}

func (ctl *Controller) RenameFile(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ctl.badRequest(c, "modify_file", err)
		return
	}
	ctl.run(c, "modify_file", http.StatusOK, func() (any, error) {
		return ctl.store.RenameFile(req.OldID, req.NewID)
	})
}

func (ctl *Controller) MoveFile(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ctl.badRequest(c, "move_file", err)
		return
	}
	ctl.run(c, "move_file", http.StatusOK, func() (any, error) {
		return ctl.store.MoveFile(req.ID, req.Destination)
	})
}

func (ctl *Controller) DeleteFile(c *gin.Context) {
	var req entryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		ctl.badRequest(c, "delete_file", err)
		return
	}
	ctl.run(c, "delete_file", http.StatusNoContent, func() (any, error) {
		return nil, ctl.store.DeleteFile(req.ID)
	})
}

func (ctl *Controller) ReadFile(c *gin.Context) {
	var req entryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		ctl.badRequest(c, "get_file_content", err)
		return
	}
	ctl.run(c, "get_file_content", http.StatusOK, func() (any, error) {
		content, err := ctl.store.ReadFile(req.ID)
		if err != nil {
			return nil, err
		}
		return contentResponse{ID: req.ID, Content: content}, nil
	})
}

func (ctl *Controller) WriteFile(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ctl.badRequest(c, "save_file_content", err)
		return
	}
	ctl.run(c, "save_file_content", http.StatusNoContent, func() (any, error) {
		return nil, ctl.store.WriteFile(req.ID, req.Content)
	})
}

func (ctl *Controller) CreateFolder(c *gin.Context) {
	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ctl.badRequest(c, "create_folder", err)
		return
	}
	ctl.run(c, "create_folder", http.StatusCreated, func() (any, error) {
		return ctl.store.CreateFolder(req.ID)
	})
}

func (ctl *Controller) RenameFolder(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ctl.badRequest(c, "modify_folder", err)
		return
	}
	ctl.run(c, "modify_folder", http.StatusOK, func() (any, error) {
		return ctl.store.RenameFolder(req.OldID, req.NewID)
	})
}

func (ctl *Controller) MoveFolder(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ctl.badRequest(c, "move_folder", err)
		return
	}
	ctl.run(c, "move_folder", http.StatusOK, func() (any, error) {
		return ctl.store.MoveFolder(req.ID, req.Destination)
	})
}

func (ctl *Controller) DeleteFolder(c *gin.Context) {
	var req entryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		ctl.badRequest(c, "delete_folder", err)
		return
	}
	ctl.run(c, "delete_folder", http.StatusNoContent, func() (any, error) {
		return nil, ctl.store.DeleteFolder(req.ID)
	})
}
