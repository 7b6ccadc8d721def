package bootstrap

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"property-scraper/internal/config"
	"property-scraper/internal/ports"
)

func runServer(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg *config.Config, router *gin.Engine,
	browser ports.BrowserManager, _ *sdktrace.TracerProvider, logger *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.ServerConfig.Addr,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := os.MkdirAll(cfg.ServerConfig.UploadDir, 0o755); err != nil {
				return err
			}

			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				logger.Error("Failed to bind HTTP listener", zap.Error(err), zap.String("addr", srv.Addr))

				return err
			}

			logger.Info("HTTP server listening", zap.String("addr", srv.Addr))

			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("HTTP server error", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down HTTP server...")

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("HTTP server forced shutdown", zap.Error(err))
			}

			// A run interrupted by shutdown still holds the browser.
			if browser.IsReady() {
				if err := browser.Close(ctx); err != nil {
					logger.Error("Failed to close browser", zap.Error(err))
				}
			}

			return nil
		},
	})
}
