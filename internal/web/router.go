// Package web serves the CSV upload form.
package web

import (
	"embed"
	"html/template"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"property-scraper/internal/config"
	"property-scraper/pkg/logg"
)

//go:embed templates/*.html
var templates embed.FS

// maxUploadMemory bounds the part of a multipart body kept in memory.
const maxUploadMemory = 32 << 20

func NewRouter(cfg *config.Config, logger *zap.Logger, handler *Handler) *gin.Engine {
	gin.SetMode(cfg.ServerConfig.Mode)

	r := gin.New()
	r.MaxMultipartMemory = maxUploadMemory
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger.With(zap.String(logg.Layer, "HTTP"))))

	r.SetHTMLTemplate(template.Must(template.ParseFS(templates, "templates/*.html")))

	r.GET("/healthz", handler.Health)
	r.GET("/", handler.Form)
	r.POST("/", handler.Upload)

	return r
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
