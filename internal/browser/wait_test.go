package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"property-scraper/pkg/apperr"
)

func TestPoll_SucceedsEventually(t *testing.T) {
	calls := 0

	err := poll(context.Background(), "test", time.Second, func() (bool, error) {
		calls++

		return calls >= 2, nil
	})
	if err != nil {
		t.Fatalf("poll() error: %v", err)
	}

	if calls != 2 {
		t.Errorf("expected 2 checks, got %d", calls)
	}
}

func TestPoll_Timeout(t *testing.T) {
	err := poll(context.Background(), "test", 50*time.Millisecond, func() (bool, error) {
		return false, nil
	})

	if !apperr.IsTimeout(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestPoll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := poll(ctx, "test", time.Second, func() (bool, error) {
		return false, nil
	})

	if !apperr.HasCode(err, apperr.CodeCancelled) {
		t.Fatalf("expected cancelled error, got %v", err)
	}
}

func TestPoll_CheckError(t *testing.T) {
	boom := errors.New("boom")

	err := poll(context.Background(), "test", time.Second, func() (bool, error) {
		return false, boom
	})

	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped check error, got %v", err)
	}
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
