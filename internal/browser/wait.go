package browser

import (
	"context"
	"time"

	"property-scraper/pkg/apperr"
)

// poll runs check every pollInterval until it reports true, the timeout
// passes or ctx is done. Check errors abort the wait.
func poll(ctx context.Context, op string, timeout time.Duration, check func() (bool, error)) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		ok, err := check()
		if err != nil {
			return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
				apperr.MetaReason: "poll_check_failed",
			})
		}

		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return apperr.Wrap(op, apperr.CodeTimeout, ctx.Err(), map[string]any{
					apperr.MetaReason: "poll_timeout",
				})
			}

			return apperr.Wrap(op, apperr.CodeCancelled, ctx.Err(), nil)
		case <-ticker.C:
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
