package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/stealth"
	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"property-scraper/internal/config"
	"property-scraper/internal/entity"
	"property-scraper/pkg/apperr"
	"property-scraper/pkg/logg"
	"property-scraper/pkg/tracing"
)

const (
	browserManagerName = "BrowserManager"
	browserTracer      = "browser.manager"
	maxRetries         = 2
	retryDelay         = 800 * time.Millisecond
	clickTimeout       = 15000
	fillTimeout        = 5000
	pollInterval       = 250 * time.Millisecond
)

type Manager struct {
	config         *config.Config
	logger         *zap.Logger
	tracer         trace.Tracer
	playwright     *playwright.Playwright
	browser        playwright.Browser
	browserContext playwright.BrowserContext
	page           playwright.Page
	ready          bool
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func NewManager(params Params) *Manager {
	return &Manager{
		config: params.Config,
		logger: params.Logger.With(zap.String(logg.Layer, browserManagerName)),
		tracer: otel.Tracer(browserTracer),
		ready:  false,
	}
}

// Launch starts a masked browser: the automation blink feature is disabled,
// the user agent is overridden and the stealth script runs on every new
// document. All of it is in place before the first navigation.
func (m *Manager) Launch(ctx context.Context) (err error) {
	const op = "Launch"
	logger := m.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	if m.ready {
		return nil
	}

	cfg := m.config.BrowserConfig

	if cfg.Install {
		step.AddEvent("installing playwright")

		if err = playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
				apperr.MetaReason: "playwright_install_failed",
				apperr.MetaStage:  apperr.StageBrowser,
			})
		}
	}

	step.AddEvent("starting playwright")

	pw, err := playwright.Run()
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "playwright_start_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}
	m.playwright = pw

	browserOptions := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		SlowMo:   playwright.Float(float64(cfg.SlowMo)),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
			fmt.Sprintf("--window-size=%d,%d", cfg.ViewportW, cfg.ViewportH),
		},
		IgnoreDefaultArgs: []string{"--enable-automation"},
	}

	if proxy := m.proxy(); proxy != nil {
		browserOptions.Proxy = proxy
		logger.Info("Routing browser through proxy", zap.String("server", proxy.Server))
	}

	browser, err := m.playwright.Chromium.Launch(browserOptions)
	if err != nil {
		m.teardown(logger)

		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "browser_launch_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}
	m.browser = browser

	browserContext, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  cfg.ViewportW,
			Height: cfg.ViewportH,
		},
		UserAgent:         playwright.String(cfg.UserAgent),
		JavaScriptEnabled: playwright.Bool(true),
		IgnoreHttpsErrors: playwright.Bool(m.config.ProxyConfig.Enabled),
	})
	if err != nil {
		m.teardown(logger)

		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "context_create_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}
	m.browserContext = browserContext

	step.AddEvent("injecting stealth script")

	if err = browserContext.AddInitScript(playwright.Script{Content: playwright.String(stealth.JS)}); err != nil {
		m.teardown(logger)

		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "stealth_injection_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}

	page, err := browserContext.NewPage()
	if err != nil {
		m.teardown(logger)

		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "page_create_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}
	m.page = page

	m.ready = true
	logger.Info("Browser launched successfully")

	return nil
}

// proxy builds the upstream proxy. The API key is the proxy username with
// an empty password.
func (m *Manager) proxy() *playwright.Proxy {
	pc := m.config.ProxyConfig
	if !pc.Enabled {
		return nil
	}

	return &playwright.Proxy{
		Server:   pc.Server,
		Username: playwright.String(pc.APIKey),
		Password: playwright.String(""),
	}
}

func (m *Manager) Close(ctx context.Context) (err error) {
	const op = "Close"
	logger := m.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	logger.Info("Closing browser...")

	if m.playwright == nil {
		return nil
	}

	stopErr := m.teardown(logger)
	if stopErr != nil {
		return apperr.Wrap(op, apperr.CodeInternal, stopErr, map[string]any{
			apperr.MetaReason: "playwright_stop_failed",
		})
	}

	logger.Info("Browser closed")

	return nil
}

func (m *Manager) teardown(logger *zap.Logger) error {
	if m.browserContext != nil {
		if err := m.browserContext.Close(); err != nil {
			logger.Warn("Failed to close context", zap.Error(err))
		}
	}

	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			logger.Warn("Failed to close browser", zap.Error(err))
		}
	}

	var err error
	if m.playwright != nil {
		err = m.playwright.Stop()
	}

	m.page = nil
	m.browserContext = nil
	m.browser = nil
	m.playwright = nil
	m.ready = false

	return err
}

func (m *Manager) ensureReady(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return apperr.Wrap(op, apperr.CodeCancelled, err, map[string]any{
			apperr.MetaReason: "context_done",
		})
	}

	if !m.ready || m.page == nil || m.page.IsClosed() {
		return apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	return nil
}

func (m *Manager) Navigate(ctx context.Context, url string) (err error) {
	const op = "Navigate"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.URL, url))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("url", url))
	defer func() {
		step.End(err)
	}()

	if err = m.ensureReady(ctx, op); err != nil {
		return err
	}

	_, err = m.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(m.config.BrowserConfig.Timeout)),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason: "goto_failed",
			apperr.MetaStage:  apperr.StageNavigation,
			apperr.MetaURL:    url,
		})
	}

	step.AddEvent("navigation completed")

	return nil
}

func (m *Manager) CurrentURL() string {
	if m.page == nil {
		return ""
	}

	return m.page.URL()
}

// WaitForCookie polls the context cookie jar until name shows up.
func (m *Manager) WaitForCookie(ctx context.Context, name string, timeout time.Duration) (err error) {
	const op = "WaitForCookie"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String("cookie", name))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("cookie", name))
	defer func() {
		step.End(err)
	}()

	if err = m.ensureReady(ctx, op); err != nil {
		return err
	}

	return poll(ctx, op, timeout, func() (bool, error) {
		cookies, err := m.browserContext.Cookies()
		if err != nil {
			return false, err
		}

		for _, c := range cookies {
			if c.Name == name {
				return true, nil
			}
		}

		return false, nil
	})
}

// WaitForURLChange blocks until the page URL differs from from.
func (m *Manager) WaitForURLChange(ctx context.Context, from string, timeout time.Duration) (err error) {
	const op = "WaitForURLChange"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.URL, from))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("url", from))
	defer func() {
		step.End(err)
	}()

	if err = m.ensureReady(ctx, op); err != nil {
		return err
	}

	return poll(ctx, op, timeout, func() (bool, error) {
		return m.page.URL() != from, nil
	})
}

func (m *Manager) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) (err error) {
	const op = "WaitForSelector"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.Selector, selector))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("selector", selector))
	defer func() {
		step.End(err)
	}()

	if err = m.ensureReady(ctx, op); err != nil {
		return err
	}

	wait, ok := waitBudget(ctx, timeout)
	if !ok {
		return apperr.Wrap(op, apperr.CodeTimeout, context.DeadlineExceeded, map[string]any{
			apperr.MetaReason:   "wait_selector_timeout",
			apperr.MetaSelector: selector,
		})
	}

	_, err = m.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(wait.Milliseconds())),
		State:   playwright.WaitForSelectorStateAttached,
	})

	return classifyWaitError(op, selector, err)
}

// waitBudget caps timeout by the context deadline. Playwright reads a zero
// timeout as "wait forever", so a budget under one millisecond is reported
// as exhausted.
func waitBudget(ctx context.Context, timeout time.Duration) (time.Duration, bool) {
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	if timeout < time.Millisecond {
		return 0, false
	}

	return timeout, true
}

// classifyWaitError keeps CodeTimeout for playwright timeouts only. Anything
// else (a closed target, a bad selector, a protocol error) is an action
// failure.
func classifyWaitError(op, selector string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, playwright.ErrTimeout) {
		return apperr.Wrap(op, apperr.CodeTimeout, err, map[string]any{
			apperr.MetaReason:   "wait_selector_timeout",
			apperr.MetaSelector: selector,
		})
	}

	return apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
		apperr.MetaReason:   "wait_selector_failed",
		apperr.MetaSelector: selector,
	})
}

func (m *Manager) Click(ctx context.Context, selector string) (err error) {
	const op = "Click"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.Selector, selector))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("selector", selector))
	defer func() {
		step.End(err)
	}()

	if err = m.ensureReady(ctx, op); err != nil {
		return err
	}

	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			logger.Info("Retrying click", zap.Int("attempt", attempt))

			if err = sleep(ctx, retryDelay); err != nil {
				return apperr.Wrap(op, apperr.CodeCancelled, err, nil)
			}
		}

		step.AddEvent(fmt.Sprintf("click attempt %d", attempt+1))

		// Later attempts skip actionability checks; overlays on the map
		// toolbar intercept pointer events intermittently.
		lastErr = m.page.Click(selector, playwright.PageClickOptions{
			Timeout: playwright.Float(clickTimeout),
			Force:   playwright.Bool(attempt > 0),
		})
		if lastErr == nil {
			return nil
		}

		logger.Warn("Click failed", zap.Int("attempt", attempt), zap.Error(lastErr))
	}

	return apperr.Wrap(op, apperr.CodeActionFailed, lastErr, map[string]any{
		apperr.MetaReason:   "click_failed_after_retries",
		apperr.MetaStage:    apperr.StageInteraction,
		apperr.MetaSelector: selector,
	})
}

func (m *Manager) ClickAtCoordinates(ctx context.Context, x, y float64) (err error) {
	const op = "ClickAtCoordinates"
	logger := m.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op,
		attribute.Float64("x", x),
		attribute.Float64("y", y))
	defer func() {
		step.End(err)
	}()

	if err = m.ensureReady(ctx, op); err != nil {
		return err
	}

	if err = m.page.Mouse().Click(x, y); err != nil {
		return apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason: "click_coordinates_failed",
			apperr.MetaStage:  apperr.StageInteraction,
		})
	}

	return nil
}

func (m *Manager) MoveMouse(ctx context.Context, x, y float64) (err error) {
	const op = "MoveMouse"

	if err = m.ensureReady(ctx, op); err != nil {
		return err
	}

	if err = m.page.Mouse().Move(x, y); err != nil {
		return apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason: "mouse_move_failed",
			apperr.MetaStage:  apperr.StageInteraction,
		})
	}

	return nil
}

// Fill clears the field and types value, retrying on transient failures.
func (m *Manager) Fill(ctx context.Context, selector, value string) (err error) {
	const op = "Fill"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.Selector, selector))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("selector", selector))
	defer func() {
		step.End(err)
	}()

	if err = m.ensureReady(ctx, op); err != nil {
		return err
	}

	var lastErr error
	field := m.page.Locator(selector)

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			logger.Info("Retrying fill", zap.Int("attempt", attempt))

			if err = sleep(ctx, retryDelay); err != nil {
				return apperr.Wrap(op, apperr.CodeCancelled, err, nil)
			}
		}

		if lastErr = field.Clear(playwright.LocatorClearOptions{
			Timeout: playwright.Float(fillTimeout),
		}); lastErr != nil {
			continue
		}

		lastErr = field.Fill(value, playwright.LocatorFillOptions{
			Timeout: playwright.Float(fillTimeout),
			Force:   playwright.Bool(attempt > 0),
		})
		if lastErr == nil {
			step.AddEvent("fill completed")

			return nil
		}
	}

	return apperr.Wrap(op, apperr.CodeActionFailed, lastErr, map[string]any{
		apperr.MetaReason:   "fill_failed_after_retries",
		apperr.MetaStage:    apperr.StageInteraction,
		apperr.MetaSelector: selector,
	})
}

func (m *Manager) Press(ctx context.Context, selector, key string) (err error) {
	const op = "Press"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.Selector, selector))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op,
		attribute.String("key", key))
	defer func() {
		step.End(err)
	}()

	if err = m.ensureReady(ctx, op); err != nil {
		return err
	}

	if err = m.page.Locator(selector).Press(key); err != nil {
		return apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason:   "press_failed",
			apperr.MetaStage:    apperr.StageInteraction,
			apperr.MetaSelector: selector,
		})
	}

	return nil
}

func (m *Manager) BoundingBox(ctx context.Context, selector string) (box *entity.BoundingBox, err error) {
	const op = "BoundingBox"

	if err = m.ensureReady(ctx, op); err != nil {
		return nil, err
	}

	element, err := m.page.QuerySelector(selector)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason:   "query_failed",
			apperr.MetaSelector: selector,
		})
	}

	if element == nil {
		return nil, apperr.NotFoundError(op, fmt.Errorf("element not found: %s", selector))
	}

	rect, err := element.BoundingBox()
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason:   "bounding_box_failed",
			apperr.MetaSelector: selector,
		})
	}

	if rect == nil {
		return nil, apperr.NotFoundError(op, fmt.Errorf("element not visible: %s", selector))
	}

	return &entity.BoundingBox{
		X:      rect.X,
		Y:      rect.Y,
		Width:  rect.Width,
		Height: rect.Height,
	}, nil
}

func (m *Manager) OuterHTML(ctx context.Context, selector string) (html string, err error) {
	const op = "OuterHTML"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.Selector, selector))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("selector", selector))
	defer func() {
		step.End(err)
	}()

	if err = m.ensureReady(ctx, op); err != nil {
		return "", err
	}

	element, err := m.page.QuerySelector(selector)
	if err != nil {
		return "", apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason:   "query_failed",
			apperr.MetaSelector: selector,
		})
	}

	if element == nil {
		return "", apperr.NotFoundError(op, fmt.Errorf("element not found: %s", selector))
	}

	result, err := element.Evaluate("el => el.outerHTML")
	if err != nil {
		return "", apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "evaluate_failed",
		})
	}

	html, _ = result.(string)

	return html, nil
}

func (m *Manager) EvaluateJS(ctx context.Context, script string) (result interface{}, err error) {
	const op = "EvaluateJS"

	if err = m.ensureReady(ctx, op); err != nil {
		return nil, err
	}

	result, err = m.page.Evaluate(script)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "evaluate_failed",
		})
	}

	return result, nil
}

func (m *Manager) Screenshot(ctx context.Context, path string) (err error) {
	const op = "Screenshot"

	if err = m.ensureReady(ctx, op); err != nil {
		return err
	}

	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "mkdir_failed",
		})
	}

	_, err = m.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(false),
		Type:     playwright.ScreenshotTypeJpeg,
		Quality:  playwright.Int(60),
	})
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "screenshot_failed",
		})
	}

	return nil
}

func (m *Manager) IsReady() bool {
	return m.ready
}
