package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"property-scraper/internal/config"
	"property-scraper/internal/entity"
	"property-scraper/internal/ports"
	"property-scraper/pkg/apperr"
	"property-scraper/pkg/logg"
	"property-scraper/pkg/tracing"
)

const (
	controllerName   = "SearchController"
	controllerTracer = "usecase.controller"

	RemarkPanelNotReady = "Map search panel not ready so skipping"
	RemarkMarkerMissing = "Unable to find or click marker image so skipping"
)

// Controller drives one coordinate through search, marker resolution and
// extraction.
type Controller struct {
	logger        *zap.Logger
	tracer        trace.Tracer
	browser       ports.BrowserManager
	sessions      ports.SessionDriver
	resolver      ports.MarkerResolver
	extractor     ports.FieldExtractor
	selectors     *config.SelectorsConfig
	timeouts      *config.TimeoutsConfig
	screenshotDir string
}

type ControllerParams struct {
	fx.In

	Config    *config.Config
	Logger    *zap.Logger
	Browser   ports.BrowserManager
	Sessions  ports.SessionDriver
	Resolver  ports.MarkerResolver
	Extractor ports.FieldExtractor
}

func NewController(params ControllerParams) *Controller {
	return &Controller{
		logger:        params.Logger.With(zap.String(logg.Layer, controllerName)),
		tracer:        otel.Tracer(controllerTracer),
		browser:       params.Browser,
		sessions:      params.Sessions,
		resolver:      params.Resolver,
		extractor:     params.Extractor,
		selectors:     params.Config.SelectorsConfig,
		timeouts:      params.Config.TimeoutsConfig,
		screenshotDir: params.Config.BrowserConfig.ScreenshotDir,
	}
}

// Search looks up one coordinate. NotFound is a normal outcome; only Fatal
// outcomes carry an error. The returned viewport replaces the one passed in.
func (c *Controller) Search(ctx context.Context, session *entity.Session, coordinate string,
	viewport entity.ViewportState) (outcome entity.SearchOutcome, vp entity.ViewportState) {
	const op = "Search"
	logger := c.logger.With(zap.String(logg.Operation, op), zap.String(logg.Coordinate, coordinate))

	ctx, step := tracing.StartSpan(ctx, c.tracer, logger, op)
	step.Coordinate(coordinate)
	defer func() {
		step.SetAttributes(attribute.String("outcome", string(outcome.Kind)))
		step.End(outcome.Err)
	}()

	vp = viewport

	fatal := func(err error) entity.SearchOutcome {
		return c.fatal(ctx, logger, op, coordinate, err)
	}

	if c.sessions.CheckExpired(session) {
		return fatal(apperr.AuthError(op, apperr.CodeSessionExpired, "session_expired", nil)), vp
	}

	err := c.browser.WaitForSelector(ctx, c.selectors.FilterPanel, c.timeouts.FilterPanel)
	if apperr.IsTimeout(err) {
		logger.Warn(RemarkPanelNotReady)

		return entity.NotFound(RemarkPanelNotReady), vp
	}

	if err != nil {
		return fatal(err), vp
	}

	if err = c.submitSearch(ctx, coordinate); err != nil {
		return fatal(err), vp
	}

	step.AddEvent("search submitted")

	vp, found, err := c.resolver.Resolve(ctx, vp)
	if err != nil {
		return fatal(err), vp
	}

	if !found {
		logger.Info(RemarkMarkerMissing)

		return entity.NotFound(RemarkMarkerMissing), vp
	}

	err = c.browser.WaitForSelector(ctx, c.selectors.ResultsTable, c.timeouts.Results)
	if apperr.IsTimeout(err) {
		logger.Info(RemarkMarkerMissing, zap.String(logg.Reason, "results_table_timeout"))

		return entity.NotFound(RemarkMarkerMissing), vp
	}

	if err != nil {
		return fatal(err), vp
	}

	// Once the results table is up the detail panel must be there too.
	markup, err := c.browser.OuterHTML(ctx, c.selectors.DetailPanel)
	if err != nil {
		return fatal(err), vp
	}

	fields := c.extractor.Extract(markup)
	if len(fields) == 0 {
		logger.Info("Detail panel had no recognised fields")

		return entity.Found(fields, RemarkMarkerMissing), vp
	}

	step.AddEvent("fields extracted", attribute.Int("count", len(fields)))
	logger.Info("Property found", zap.Int("fields", len(fields)))

	return entity.Found(fields, ""), vp
}

func (c *Controller) submitSearch(ctx context.Context, coordinate string) error {
	if err := c.browser.Fill(ctx, c.selectors.SearchInput, coordinate); err != nil {
		return err
	}

	if err := c.browser.Press(ctx, c.selectors.SearchInput, "Enter"); err != nil {
		return err
	}

	// The map pans and redraws markers after the search settles.
	return pause(ctx, c.timeouts.PostSearchDelay)
}

// fatal classifies err, logs it with the coordinate and saves a screenshot
// when a directory is configured.
func (c *Controller) fatal(ctx context.Context, logger *zap.Logger, op, coordinate string, err error) entity.SearchOutcome {
	if !apperr.IsAuthError(err) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		err = apperr.Wrap(op, apperr.CodeAutomation, err, map[string]any{
			apperr.MetaReason:     "unexpected_automation",
			apperr.MetaStage:      apperr.StageSearch,
			apperr.MetaCoordinate: coordinate,
		})
	}

	logger.Error("Search aborted", zap.Error(err))

	if c.screenshotDir != "" && ctx.Err() == nil {
		path := filepath.Join(c.screenshotDir, fmt.Sprintf("fatal-%s.jpeg", time.Now().Format("20060102-150405")))

		if shotErr := c.browser.Screenshot(ctx, path); shotErr != nil {
			logger.Warn("Failed to save diagnostic screenshot", zap.Error(shotErr))
		} else {
			logger.Info("Diagnostic screenshot saved", zap.String(logg.Path, path))
		}
	}

	return entity.Fatal(err)
}

// pause waits for d or until ctx is done.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
