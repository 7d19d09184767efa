package api

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"goal-tracker/internal/logger"
)

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRouter wires middleware, the task API, health, metrics and the front-end.
// assets must contain index.html at its root.
func NewRouter(tasks TaskOperations, assets fs.FS, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger(log))
	router.Use(Metrics())

	handler := NewTaskHandler(tasks, log)
	api := router.Group("/api")
	api.GET("/tasks", gzip.Gzip(gzip.DefaultCompression), handler.ListTasks)
	api.POST("/tasks/:id/confirm", handler.Confirm)
	api.POST("/tasks/:id/value", handler.RecordValue)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Timestamp: time.Now().UTC()})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if assets != nil {
		router.StaticFS("/static", http.FS(assets))
		router.GET("/", func(c *gin.Context) {
			page, err := fs.ReadFile(assets, "index.html")
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "front-end not bundled"})
				return
			}
			c.Data(http.StatusOK, "text/html; charset=utf-8", page)
		})
	}

	return router
}
