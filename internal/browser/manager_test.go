package browser

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"property-scraper/internal/config"
	"property-scraper/pkg/apperr"
)

func newTestManager(proxy *config.ProxyConfig) *Manager {
	return NewManager(Params{
		Config: &config.Config{
			BrowserConfig: &config.BrowserConfig{Timeout: 1000},
			ProxyConfig:   proxy,
		},
		Logger: zap.NewNop(),
	})
}

func TestManager_ProxyDisabled(t *testing.T) {
	m := newTestManager(&config.ProxyConfig{Enabled: false, APIKey: "k", Server: "http://proxy:8011"})

	if p := m.proxy(); p != nil {
		t.Errorf("expected no proxy, got %+v", p)
	}
}

func TestManager_ProxyUsesKeyAsUsername(t *testing.T) {
	m := newTestManager(&config.ProxyConfig{Enabled: true, APIKey: "key123", Server: "http://proxy:8011"})

	p := m.proxy()
	if p == nil {
		t.Fatal("expected proxy")
	}

	if p.Server != "http://proxy:8011" || p.Username == nil || *p.Username != "key123" || p.Password == nil || *p.Password != "" {
		t.Errorf("unexpected proxy: %+v", p)
	}
}

func TestManager_OperationsRequireLaunch(t *testing.T) {
	m := newTestManager(&config.ProxyConfig{})
	ctx := context.Background()

	if m.IsReady() {
		t.Fatal("manager should not be ready before Launch")
	}

	if err := m.Navigate(ctx, "https://example.com"); !apperr.HasCode(err, apperr.CodeBrowserNotReady) {
		t.Errorf("Navigate: expected browser_not_ready, got %v", err)
	}

	if err := m.ClickAtCoordinates(ctx, 1, 2); !apperr.HasCode(err, apperr.CodeBrowserNotReady) {
		t.Errorf("ClickAtCoordinates: expected browser_not_ready, got %v", err)
	}

	if _, err := m.OuterHTML(ctx, "#x"); !apperr.HasCode(err, apperr.CodeBrowserNotReady) {
		t.Errorf("OuterHTML: expected browser_not_ready, got %v", err)
	}

	if m.CurrentURL() != "" {
		t.Error("CurrentURL should be empty without a page")
	}

	if err := m.Close(ctx); err != nil {
		t.Errorf("Close on an unlaunched manager should be a no-op, got %v", err)
	}
}

func TestManager_CancelledContext(t *testing.T) {
	m := newTestManager(&config.ProxyConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.Click(ctx, "#x"); !apperr.HasCode(err, apperr.CodeCancelled) {
		t.Errorf("expected cancelled, got %v", err)
	}
}

func TestClassifyWaitError(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		code string
	}{
		{name: "timeout", err: fmt.Errorf("waiting for locator: %w", playwright.ErrTimeout), code: apperr.CodeTimeout},
		{name: "target closed", err: fmt.Errorf("page crashed: %w", playwright.ErrTargetClosed), code: apperr.CodeActionFailed},
		{name: "protocol error", err: errors.New("protocol error: invalid selector"), code: apperr.CodeActionFailed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyWaitError("WaitForSelector", "#results", tc.err)

			if !apperr.HasCode(err, tc.code) || !errors.Is(err, tc.err) {
				t.Errorf("expected %s wrapping %v, got %v", tc.code, tc.err, err)
			}

			if tc.code != apperr.CodeTimeout && apperr.IsTimeout(err) {
				t.Error("non-timeout failure must not read as a timeout")
			}
		})
	}

	if err := classifyWaitError("WaitForSelector", "#results", nil); err != nil {
		t.Errorf("nil error should stay nil, got %v", err)
	}
}

func TestWaitBudget(t *testing.T) {
	if got, ok := waitBudget(context.Background(), 2*time.Second); !ok || got != 2*time.Second {
		t.Errorf("without deadline: got %v, %v", got, ok)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	if got, ok := waitBudget(ctx, time.Second); !ok || got != time.Second {
		t.Errorf("distant deadline: got %v, %v", got, ok)
	}

	expired, cancelExpired := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancelExpired()

	if got, ok := waitBudget(expired, time.Second); ok || got != 0 {
		t.Errorf("passed deadline must not yield a zero (unbounded) wait: got %v, %v", got, ok)
	}

	if _, ok := waitBudget(context.Background(), 500*time.Microsecond); ok {
		t.Error("sub-millisecond timeout must be reported as exhausted")
	}
}
