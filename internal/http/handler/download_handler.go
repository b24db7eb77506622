package handler

import (
	"context"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ajithvnr2001/gdrive-aggregator/internal/adapter/drive"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/config"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/service"
)

// DownloadHandler is the streaming proxy: it re-derives authorization per
// request and forwards the remote object's bytes without buffering. The
// bearer token never appears in any response artifact.
type DownloadHandler struct {
	Credentials *service.CredentialService
	Drive       *drive.Client
	Cfg         config.Config
	Logger      *zap.Logger
}

// NewDownloadHandler creates the handler.
func NewDownloadHandler(credentials *service.CredentialService, driveClient *drive.Client, cfg config.Config, logger *zap.Logger) *DownloadHandler {
	if logger == nil {
		logger = zap.L()
	}
	return &DownloadHandler{Credentials: credentials, Drive: driveClient, Cfg: cfg, Logger: logger}
}

// Stream proxies GET /down/:session/:remote/:file/:name.
//
// The inbound Range header is forwarded verbatim; the upstream status
// (200/206), Content-Range, and Accept-Ranges come back unchanged. The body
// is copied straight from the upstream connection to the client, so a
// dropped client connection cancels the upstream fetch via the request
// context.
func (h *DownloadHandler) Stream(c *gin.Context) {
	sessionID := c.Param("session")
	remoteName := c.Param("remote")
	fileID := c.Param("file")
	displayName := c.Param("name")

	// Token resolution and metadata are bounded; the content stream itself
	// is bounded only by the client connection.
	tokenCtx, cancel := h.boundedCtx(c)
	token, err := h.Credentials.AccessToken(tokenCtx, sessionID, remoteName)
	if err != nil {
		cancel()
		writeError(c, err)
		return
	}

	// Metadata is best effort: it only improves the response headers. When
	// it fails the transfer still proceeds with generic headers.
	contentType := "application/octet-stream"
	if meta, metaErr := h.Drive.Metadata(tokenCtx, token, fileID); metaErr == nil {
		if meta.MimeType != "" {
			contentType = meta.MimeType
		}
		if meta.Name != "" {
			displayName = meta.Name
		}
	} else {
		h.Logger.Warn("metadata fetch failed, using generic headers",
			zap.String("file_id", fileID),
			zap.Error(metaErr),
		)
	}
	cancel()

	resp, err := h.Drive.Content(c.Request.Context(), token, fileID, c.GetHeader("Range"))
	if err != nil {
		writeError(c, err)
		return
	}
	defer resp.Body.Close()

	header := c.Writer.Header()
	header.Set("Content-Type", contentType)
	header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", displayName))
	for _, name := range []string{"Content-Length", "Content-Range", "Accept-Ranges"} {
		if v := resp.Header.Get(name); v != "" {
			header.Set(name, v)
		}
	}
	c.Status(resp.StatusCode)

	// No buffering: bytes flow from the upstream body to the client writer.
	// A mid-stream failure leaves a truncated transfer; the client detects
	// it by Content-Length mismatch and retries from the top.
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		h.Logger.Warn("download stream interrupted",
			zap.String("session_id", sessionID),
			zap.String("file_id", fileID),
			zap.Error(err),
		)
	}
}

func (h *DownloadHandler) boundedCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	timeout := h.Cfg.UpstreamTimeout
	if timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}
