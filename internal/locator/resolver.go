// Package locator opens the property panel of the marker under the map
// center. Markers have no DOM identity, so the only handle is a pixel
// position derived from the canvas geometry.
package locator

import (
	"context"
	"fmt"

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
	resolverName   = "MarkerResolver"
	resolverTracer = "locator.resolver"

	// restInset is how far inside the canvas corner the pointer parks after a click.
	restInset = 10
)

type Resolver struct {
	logger    *zap.Logger
	tracer    trace.Tracer
	browser   ports.BrowserManager
	locator   ports.ElementLocator
	selectors *config.SelectorsConfig
	timeouts  *config.TimeoutsConfig
}

type Params struct {
	fx.In

	Config  *config.Config
	Logger  *zap.Logger
	Browser ports.BrowserManager
	Locator ports.ElementLocator
}

func NewResolver(params Params) *Resolver {
	return &Resolver{
		logger:    params.Logger.With(zap.String(logg.Layer, resolverName)),
		tracer:    otel.Tracer(resolverTracer),
		browser:   params.Browser,
		locator:   params.Locator,
		selectors: params.Config.SelectorsConfig,
		timeouts:  params.Config.TimeoutsConfig,
	}
}

// Resolve clicks the marker expected at the map center and reports whether
// the results table appeared. The viewport is measured on the first call of
// a session and returned for reuse. A missing panel is not an error.
func (r *Resolver) Resolve(ctx context.Context, viewport entity.ViewportState) (vp entity.ViewportState, found bool, err error) {
	const op = "Resolve"
	logger := r.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, r.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	vp = viewport

	if !vp.Measured {
		if vp, err = r.measure(ctx, vp); err != nil {
			return vp, false, err
		}
	}

	if !vp.Measured && vp.Canvas == (entity.BoundingBox{}) {
		logger.Warn("No map geometry available, skipping marker click")

		return vp, false, nil
	}

	target := r.locator.ClickTarget(vp.Canvas)
	step.SetAttributes(attribute.Float64("x", target.X), attribute.Float64("y", target.Y))

	if err = r.browser.ClickAtCoordinates(ctx, target.X, target.Y); err != nil {
		return vp, false, err
	}

	if err = r.browser.MoveMouse(ctx, vp.Canvas.X+restInset, vp.Canvas.Y+restInset); err != nil {
		return vp, false, err
	}

	err = r.browser.WaitForSelector(ctx, r.selectors.ResultsTable, r.timeouts.MarkerPoll)
	if apperr.IsTimeout(err) {
		logger.Debug("Results table did not open after marker click")

		return vp, false, nil
	}

	if err != nil {
		return vp, false, err
	}

	step.AddEvent("results table present")

	return vp, true, nil
}

// measure reads the canvas geometry, applies the one-time zoom and reads the
// overlay height. When neither canvas selector matches, the previous
// geometry is kept and Measured stays false so the next call tries again.
func (r *Resolver) measure(ctx context.Context, vp entity.ViewportState) (entity.ViewportState, error) {
	const op = "measure"
	logger := r.logger.With(zap.String(logg.Operation, op))

	box, err := r.canvasBox(ctx)
	if err != nil {
		return vp, err
	}

	if box == nil {
		logger.Warn("Map canvas not found under primary or fallback selector, reusing previous geometry",
			zap.String("primary", r.selectors.MapCanvas),
			zap.String("fallback", r.selectors.MapCanvasFallback))

		return vp, nil
	}

	vp.Canvas = *box
	vp.Center = box.Center()

	if !vp.ZoomApplied {
		if err := r.browser.Click(ctx, r.selectors.ZoomIn); err != nil {
			return vp, apperr.Wrap(op, apperr.CodeAutomation, err, map[string]any{
				apperr.MetaReason:   "zoom_failed",
				apperr.MetaStage:    apperr.StageMarker,
				apperr.MetaSelector: r.selectors.ZoomIn,
			})
		}

		vp.ZoomApplied = true
	}

	if r.selectors.OverlayCanvas != "" {
		height, err := r.overlayHeight(ctx)
		if err != nil {
			logger.Warn("Failed to read overlay canvas height", zap.Error(err))
		}

		vp.OverlayHeight = height
	}

	vp.Measured = true

	logger.Info("Viewport measured",
		zap.Float64("center_x", vp.Center.X),
		zap.Float64("center_y", vp.Center.Y),
		zap.Float64("overlay_height", vp.OverlayHeight))

	return vp, nil
}

func (r *Resolver) canvasBox(ctx context.Context) (*entity.BoundingBox, error) {
	for _, selector := range []string{r.selectors.MapCanvas, r.selectors.MapCanvasFallback} {
		if selector == "" {
			continue
		}

		box, err := r.browser.BoundingBox(ctx, selector)
		if err == nil {
			return box, nil
		}

		if !apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, err
		}
	}

	return nil, nil
}

func (r *Resolver) overlayHeight(ctx context.Context) (float64, error) {
	result, err := r.browser.EvaluateJS(ctx, overlayHeightScript(r.selectors.OverlayCanvas))
	if err != nil {
		return 0, err
	}

	switch v := result.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("unexpected overlay height type %T", result)
	}
}

func overlayHeightScript(selector string) string {
	return fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		return el ? el.getBoundingClientRect().height : 0;
	})()`, selector)
}
