package bootstrap

import (
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"property-scraper/internal/browser"
	"property-scraper/internal/config"
	"property-scraper/internal/extract"
	"property-scraper/internal/locator"
	"property-scraper/internal/ports"
	"property-scraper/internal/session"
	"property-scraper/internal/usecase"
	"property-scraper/internal/web"
)

type Command string

const (
	CommandServe Command = "serve"
	CommandRun   Command = "run"
)

// Options selects what the process does once the graph is built.
type Options struct {
	Command Command
	Input   string
	Output  string
}

func NewApp(opts Options) *fx.App {
	entry := fx.Invoke(runServer)
	if opts.Command == CommandRun {
		entry = fx.Invoke(runBatch)
	}

	return fx.New(
		fx.Supply(opts),

		fx.Provide(
			config.GetConfig,
			newLogger,
			newTraceProvider,

			fx.Annotate(browser.NewManager, fx.As(new(ports.BrowserManager))),
			fx.Annotate(locator.NewPixelOffsetLocator, fx.As(new(ports.ElementLocator))),
			fx.Annotate(locator.NewResolver, fx.As(new(ports.MarkerResolver))),
			fx.Annotate(extract.NewExtractor, fx.As(new(ports.FieldExtractor))),
			fx.Annotate(session.NewDriver, fx.As(new(ports.SessionDriver))),

			usecase.NewUsecase,

			web.NewHandler,
			web.NewRouter,
		),

		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),

		entry,

		fx.StartTimeout(10*time.Second),
	)
}
