package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ajithvnr2001/gdrive-aggregator/internal/service"
)

// SessionHandler exposes session creation.
type SessionHandler struct {
	Sessions *service.SessionService
}

// NewSessionHandler creates the handler.
func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{Sessions: sessions}
}

// Create accepts a raw configuration text and returns a new session id.
// scope "share" selects the longer TTL policy for shareable download links.
func (h *SessionHandler) Create(c *gin.Context) {
	var req struct {
		Config string `json:"config" binding:"required"`
		Scope  string `json:"scope"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "Body must be JSON with a non-empty config field.",
		})
		return
	}

	out, err := h.Sessions.Create(c.Request.Context(), req.Config, req.Scope == "share")
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session_id":  out.SessionID,
		"ttl_seconds": int64(out.TTL.Seconds()),
		"remotes":     out.Remotes,
	})
}
