package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ajithvnr2001/gdrive-aggregator/internal/domain"
)

// writeError maps the credential/session error taxonomy onto HTTP responses.
// Authorization failures tell the caller to re-create the session; transient
// upstream failures tell the caller the same request is safe to retry.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionExpired):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "session_expired",
			"error_description": "Session is expired or unknown. Upload the configuration again.",
		})
	case errors.Is(err, domain.ErrSessionCorrupt):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "session_corrupt",
			"error_description": "Session data failed verification. Upload the configuration again.",
		})
	case errors.Is(err, domain.ErrRefreshDenied):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "refresh_denied",
			"error_description": "The provider rejected the stored credentials. Upload a fresh configuration.",
		})
	case errors.Is(err, domain.ErrRemoteNotFound):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "remote_not_found",
			"error_description": "No drive remote with that name exists in this session.",
		})
	case errors.Is(err, domain.ErrTokenMalformed):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "token_malformed",
			"error_description": "The stored token for this remote is not well-formed.",
		})
	case errors.Is(err, domain.ErrNoUsableRemote):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "no_usable_remote",
			"error_description": "The configuration contains no drive remote with a token.",
		})
	case errors.Is(err, domain.ErrRefreshUnreachable),
		errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":             "upstream_unavailable",
			"error_description": "Transient upstream failure. Retry the request.",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             "server_error",
			"error_description": err.Error(),
		})
	}
}
