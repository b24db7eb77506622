package http

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/ajithvnr2001/gdrive-aggregator/internal/config"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/http/handler"
	httpmiddleware "github.com/ajithvnr2001/gdrive-aggregator/internal/http/middleware"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/middleware"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(
	cfg config.Config,
	sessionHandler *handler.SessionHandler,
	driveHandler *handler.DriveHandler,
	downloadHandler *handler.DownloadHandler,
	rateLimiter *middleware.RateLimiter,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(nil))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	api := r.Group("/api")
	{
		api.POST("/session", sessionHandler.Create)

		remote := api.Group("/:session/:remote")
		{
			remote.GET("/files", driveHandler.List)
			remote.POST("/files/:file/rename", driveHandler.Rename)
			remote.POST("/files/:file/move", driveHandler.Move)
			remote.GET("/files/:file/link", driveHandler.DirectLink)
		}
	}

	// The streaming proxy lives outside /api so download URLs stay short
	// enough to hand to external download managers.
	r.GET("/down/:session/:remote/:file/:name", downloadHandler.Stream)

	// UI is served only as static files; session and drive logic stays on
	// the API routes.
	attachUIRoutes(r, filepath.Join("ui", "dist"))

	return r
}

func attachUIRoutes(r *gin.Engine, distDir string) {
	indexPath := filepath.Join(distDir, "index.html")

	r.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if isAPIPath(path) {
			c.Status(http.StatusNotFound)
			return
		}

		if filePath, ok := safeJoin(distDir, path); ok {
			if info, err := os.Stat(filePath); err == nil && !info.IsDir() {
				c.File(filePath)
				return
			}
		}

		c.File(indexPath)
	})
}

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api") ||
		strings.HasPrefix(path, "/down")
}

func safeJoin(baseDir, requestPath string) (string, bool) {
	trimmed := strings.TrimPrefix(requestPath, "/")
	cleaned := filepath.Clean(trimmed)
	if cleaned == "." {
		return filepath.Join(baseDir, cleaned), true
	}
	if strings.HasPrefix(cleaned, "..") {
		return "", false
	}
	return filepath.Join(baseDir, cleaned), true
}
