package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ajithvnr2001/gdrive-aggregator/internal/adapter/drive"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/config"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/service"
)

// DriveHandler exposes the browse/rename/move operations. Every operation
// re-derives its bearer token through the credential service and issues
// exactly one outbound Drive call.
type DriveHandler struct {
	Credentials *service.CredentialService
	Drive       *drive.Client
	Cfg         config.Config
}

// NewDriveHandler creates the handler.
func NewDriveHandler(credentials *service.CredentialService, driveClient *drive.Client, cfg config.Config) *DriveHandler {
	return &DriveHandler{Credentials: credentials, Drive: driveClient, Cfg: cfg}
}

// List returns one page of a folder's children.
func (h *DriveHandler) List(c *gin.Context) {
	ctx, cancel := h.boundedCtx(c)
	defer cancel()

	token, err := h.Credentials.AccessToken(ctx, c.Param("session"), c.Param("remote"))
	if err != nil {
		writeError(c, err)
		return
	}

	list, err := h.Drive.List(ctx, token, c.Query("parent"), c.Query("page_token"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"files":           list.Files,
		"next_page_token": list.NextPageToken,
	})
}

// Rename changes a file's display name.
func (h *DriveHandler) Rename(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "Body must be JSON with a non-empty name field.",
		})
		return
	}

	ctx, cancel := h.boundedCtx(c)
	defer cancel()

	token, err := h.Credentials.AccessToken(ctx, c.Param("session"), c.Param("remote"))
	if err != nil {
		writeError(c, err)
		return
	}

	file, err := h.Drive.Rename(ctx, token, c.Param("file"), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

// Move reparents a file.
func (h *DriveHandler) Move(c *gin.Context) {
	var req struct {
		From string `json:"from" binding:"required"`
		To   string `json:"to" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "Body must be JSON with non-empty from and to fields.",
		})
		return
	}

	ctx, cancel := h.boundedCtx(c)
	defer cancel()

	token, err := h.Credentials.AccessToken(ctx, c.Param("session"), c.Param("remote"))
	if err != nil {
		writeError(c, err)
		return
	}

	file, err := h.Drive.Move(ctx, token, c.Param("file"), req.From, req.To)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

// DirectLink returns a temporary token-embedding media URL.
//
// The link exposes the access token to whoever holds it, which is why the
// capability is disabled unless explicitly enabled in configuration. The
// streaming proxy is the trusted path.
func (h *DriveHandler) DirectLink(c *gin.Context) {
	if !h.Cfg.AllowDirectLinks {
		c.JSON(http.StatusForbidden, gin.H{
			"error":             "direct_links_disabled",
			"error_description": "Temporary direct links are disabled on this deployment.",
		})
		return
	}

	ctx, cancel := h.boundedCtx(c)
	defer cancel()

	token, err := h.Credentials.AccessToken(ctx, c.Param("session"), c.Param("remote"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"link": h.Drive.DirectLink(c.Param("file"), token),
	})
}

func (h *DriveHandler) boundedCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	timeout := h.Cfg.UpstreamTimeout
	if timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}
