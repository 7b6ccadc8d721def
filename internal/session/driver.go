// Package session owns the browser for the length of a run and performs the
// login handshake against the mapping application.
package session

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
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
	driverName   = "SessionDriver"
	driverTracer = "session.driver"
)

type Driver struct {
	logger    *zap.Logger
	tracer    trace.Tracer
	browser   ports.BrowserManager
	site      *config.SiteConfig
	selectors *config.SelectorsConfig
	timeouts  *config.TimeoutsConfig
}

type Params struct {
	fx.In

	Config  *config.Config
	Logger  *zap.Logger
	Browser ports.BrowserManager
}

func NewDriver(params Params) *Driver {
	return &Driver{
		logger:    params.Logger.With(zap.String(logg.Layer, driverName)),
		tracer:    otel.Tracer(driverTracer),
		browser:   params.Browser,
		site:      params.Config.SiteConfig,
		selectors: params.Config.SelectorsConfig,
		timeouts:  params.Config.TimeoutsConfig,
	}
}

// Open launches the browser. Fingerprint masking is applied by the launch.
func (d *Driver) Open(ctx context.Context) error {
	return d.browser.Launch(ctx)
}

func (d *Driver) Close(ctx context.Context) error {
	return d.browser.Close(ctx)
}

// Authenticate logs in and opens the map search tool.
func (d *Driver) Authenticate(ctx context.Context, creds entity.Credentials) (session *entity.Session, err error) {
	const op = "Authenticate"
	logger := d.logger.With(zap.String(logg.Operation, op), zap.String(logg.URL, d.site.LoginURL))

	ctx, step := tracing.StartSpan(ctx, d.tracer, logger, op, attribute.String("login_url", d.site.LoginURL))
	defer func() {
		step.End(err)
	}()

	if creds.Username == "" || creds.Password == "" {
		return nil, apperr.InvalidReqError(op, "credentials", errors.New("username and password are required"))
	}

	if err = d.browser.Navigate(ctx, d.site.LoginURL); err != nil {
		return nil, err
	}

	if err = d.browser.WaitForCookie(ctx, d.site.SessionCookie, d.timeouts.SessionCookie); err != nil {
		if apperr.IsTimeout(err) {
			return nil, apperr.AuthError(op, apperr.CodeSessionCookieTimeout, "session_cookie_timeout", err)
		}

		return nil, err
	}

	step.AddEvent("session cookie observed")

	if err = d.submitLogin(ctx, creds); err != nil {
		return nil, err
	}

	step.AddEvent("login accepted")

	d.dismissOnboarding(ctx, logger)

	if err = d.browser.WaitForSelector(ctx, d.selectors.EntryPointLink, d.timeouts.EntryPoint); err == nil {
		err = d.browser.Click(ctx, d.selectors.EntryPointLink)
	}

	if err != nil {
		return nil, apperr.AuthError(op, apperr.CodeEntryPointUnavailable, "entry_point_unavailable", err)
	}

	session = &entity.Session{
		ID:              uuid.New(),
		State:           entity.AuthStateAuthenticated,
		LoginURL:        d.site.LoginURL,
		AuthenticatedAt: time.Now(),
	}

	logger.Info("Session authenticated", zap.String("session_id", session.ID.String()))

	return session, nil
}

func (d *Driver) submitLogin(ctx context.Context, creds entity.Credentials) error {
	const op = "submitLogin"

	formErr := func(err error) error {
		if errors.Is(err, context.Canceled) || apperr.HasCode(err, apperr.CodeCancelled) {
			return err
		}

		return apperr.AuthError(op, apperr.CodeLoginRejected, "login_form_unavailable", err)
	}

	if err := d.browser.Fill(ctx, d.selectors.UsernameInput, creds.Username); err != nil {
		return formErr(err)
	}

	if err := d.browser.Fill(ctx, d.selectors.PasswordInput, creds.Password); err != nil {
		return formErr(err)
	}

	from := d.browser.CurrentURL()

	if err := d.browser.Click(ctx, d.selectors.SubmitButton); err != nil {
		return formErr(err)
	}

	if err := d.browser.WaitForURLChange(ctx, from, d.timeouts.Login); err != nil {
		if apperr.IsTimeout(err) {
			return apperr.AuthError(op, apperr.CodeLoginRejected, "login_rejected", err)
		}

		return err
	}

	return nil
}

// dismissOnboarding closes the first-visit overlay if it shows up.
func (d *Driver) dismissOnboarding(ctx context.Context, logger *zap.Logger) {
	if d.selectors.OnboardingDismiss == "" {
		return
	}

	err := d.browser.WaitForSelector(ctx, d.selectors.OnboardingDismiss, d.timeouts.Onboarding)
	if err != nil {
		logger.Debug("No onboarding overlay", zap.Error(err))

		return
	}

	if err := d.browser.Click(ctx, d.selectors.OnboardingDismiss); err != nil {
		logger.Warn("Failed to dismiss onboarding overlay", zap.Error(err))

		return
	}

	logger.Info("Onboarding overlay dismissed")
}

// CheckExpired marks the session expired when the browser is back on the
// login page.
func (d *Driver) CheckExpired(session *entity.Session) bool {
	if session == nil {
		return true
	}

	if session.State == entity.AuthStateExpired {
		return true
	}

	if sameLocation(d.browser.CurrentURL(), session.LoginURL) {
		session.State = entity.AuthStateExpired

		d.logger.Warn("Session expired, browser returned to login page",
			zap.String("session_id", session.ID.String()))

		return true
	}

	return false
}

func sameLocation(a, b string) bool {
	if a == "" || b == "" {
		return false
	}

	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)

	if errA != nil || errB != nil {
		return a == b
	}

	return strings.EqualFold(ua.Host, ub.Host) &&
		strings.TrimSuffix(ua.Path, "/") == strings.TrimSuffix(ub.Path, "/")
}
