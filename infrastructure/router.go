// infrastructure/router.go
package infrastructure

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vitovidale/video-publisher-service/infrastructure/metrics"
)

type RouterOptions struct {
	JWTSecret []byte
	UploadDir string
	Metrics   *metrics.PrometheusMetrics
	Gatherer  prometheus.Gatherer
	Health    gin.HandlerFunc
}

func NewRouter(h *VideoHandlers, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware())
	}

	if opts.Health != nil {
		router.GET("/health", opts.Health)
	}
	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Video Publisher Service is running!"})
	})
	if opts.UploadDir != "" {
		router.Static("/uploads", opts.UploadDir)
	}

	api := router.Group("/api")
	api.POST("/webhooks/transcription", h.TranscriptionWebhookHandler)
	api.GET("/transcriptions/:transcriptId", h.TranscriptionStatusHandler)

	videos := api.Group("/videos")
	videos.Use(OptionalAuthMiddleware(opts.JWTSecret))
	{
		videos.POST("/upload", h.UploadVideoHandler)
		videos.GET("", h.ListVideosHandler)
		videos.GET("/:id", h.GetVideoHandler)
		videos.DELETE("/:id/delete", h.DeleteVideoHandler)
		videos.POST("/:id/publish", h.PublishVideoHandler)
	}
	return router
}
