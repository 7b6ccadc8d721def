package session

import (
	"context"
	"errors"

	"property-scraper/internal/entity"
	"property-scraper/internal/ports"
	"property-scraper/pkg/apperr"
)

// With opens the browser, authenticates and runs fn with the session. The
// browser is closed on every return path, panics included.
func With(ctx context.Context, driver ports.SessionDriver, creds entity.Credentials,
	fn func(ctx context.Context, session *entity.Session) error) (err error) {
	const op = "session.With"

	if err = driver.Open(ctx); err != nil {
		// Launch may have started the driver process before failing.
		_ = driver.Close(context.WithoutCancel(ctx))

		return apperr.Wrap(op, apperr.CodeBrowserNotReady, err, map[string]any{
			apperr.MetaReason: "launch_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}

	defer func() {
		if closeErr := driver.Close(context.WithoutCancel(ctx)); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	session, err := driver.Authenticate(ctx, creds)
	if err != nil {
		return err
	}

	return fn(ctx, session)
}
