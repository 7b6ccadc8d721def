package bootstrap

import (
	"context"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"property-scraper/internal/usecase"
	"property-scraper/pkg/logg"
)

// runBatch processes one input file and stops the app when it is done.
func runBatch(lc fx.Lifecycle, shutdowner fx.Shutdowner, opts Options, service *usecase.Service,
	_ *sdktrace.TracerProvider, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("Starting batch run", zap.String(logg.Path, opts.Input), zap.String("output", opts.Output))

			go func() {
				defer close(done)

				code := 0

				report, err := service.Pipeline.Run(ctx, opts.Input, opts.Output)
				if err != nil {
					logger.Error("Batch run failed", zap.Error(err))
					code = 1
				} else {
					logger.Info("Batch run finished",
						zap.String(logg.RunID, report.RunID.String()),
						zap.Int("processed", report.Processed),
						zap.Int("found", report.Found),
						zap.Int("not_found", report.NotFound))
				}

				if err := shutdowner.Shutdown(fx.ExitCode(code)); err != nil {
					logger.Error("Failed to request shutdown", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()

			select {
			case <-done:
			case <-stopCtx.Done():
				logger.Warn("Batch run did not stop before the shutdown deadline")
			}

			return nil
		},
	})
}
