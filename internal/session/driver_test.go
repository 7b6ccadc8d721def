package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"property-scraper/internal/browser/browsertest"
	"property-scraper/internal/config"
	"property-scraper/internal/entity"
	"property-scraper/pkg/apperr"
)

const (
	loginURL = "https://maps.example.com/login"
	homeURL  = "https://maps.example.com/home"
)

var creds = entity.Credentials{Username: "agent", Password: "secret"}

func testConfig() *config.Config {
	return &config.Config{
		SiteConfig: &config.SiteConfig{
			Username:      creds.Username,
			Password:      creds.Password,
			LoginURL:      loginURL,
			SessionCookie: "JSESSIONID",
		},
		SelectorsConfig: &config.SelectorsConfig{
			UsernameInput:     "#username",
			PasswordInput:     "#password",
			SubmitButton:      "#submit",
			OnboardingDismiss: "#onboarding-close",
			EntryPointLink:    "#open-map",
		},
		TimeoutsConfig: &config.TimeoutsConfig{
			SessionCookie: time.Second,
			Login:         time.Second,
			EntryPoint:    time.Second,
			Onboarding:    time.Second,
		},
	}
}

// loginFake redirects to the home page when submit is clicked with the
// expected password.
func loginFake() *browsertest.Fake {
	fake := browsertest.New()
	fake.Cookies["JSESSIONID"] = true
	fake.Present["#submit"] = true
	fake.Present["#open-map"] = true
	fake.OnClick = func(f *browsertest.Fake, selector string) {
		if selector == "#submit" && f.Values["#password"] == creds.Password {
			f.URL = homeURL
		}
	}

	return fake
}

func newTestDriver(fake *browsertest.Fake) *Driver {
	return NewDriver(Params{Config: testConfig(), Logger: zap.NewNop(), Browser: fake})
}

func TestAuthenticate_Success(t *testing.T) {
	fake := loginFake()
	fake.Present["#onboarding-close"] = true

	session, err := newTestDriver(fake).Authenticate(context.Background(), creds)
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}

	if session.State != entity.AuthStateAuthenticated || session.LoginURL != loginURL {
		t.Errorf("unexpected session: %+v", session)
	}

	if fake.Values["#username"] != "agent" {
		t.Errorf("username not filled: %v", fake.Values)
	}

	// submit, onboarding, entry point
	if n := fake.Count("Click"); n != 3 {
		t.Errorf("expected 3 clicks, got %d", n)
	}
}

func TestAuthenticate_OnboardingIsOptional(t *testing.T) {
	fake := loginFake()

	if _, err := newTestDriver(fake).Authenticate(context.Background(), creds); err != nil {
		t.Fatalf("missing onboarding overlay must not fail login: %v", err)
	}
}

func TestAuthenticate_Failures(t *testing.T) {
	testCases := []struct {
		name  string
		setup func(f *browsertest.Fake)
		creds entity.Credentials
		code  string
	}{
		{
			name:  "no session cookie",
			setup: func(f *browsertest.Fake) { delete(f.Cookies, "JSESSIONID") },
			creds: creds,
			code:  apperr.CodeSessionCookieTimeout,
		},
		{
			name:  "wrong password",
			setup: func(f *browsertest.Fake) {},
			creds: entity.Credentials{Username: "agent", Password: "nope"},
			code:  apperr.CodeLoginRejected,
		},
		{
			name:  "missing submit button",
			setup: func(f *browsertest.Fake) { f.Present["#submit"] = false },
			creds: creds,
			code:  apperr.CodeLoginRejected,
		},
		{
			name:  "entry point missing",
			setup: func(f *browsertest.Fake) { f.Present["#open-map"] = false },
			creds: creds,
			code:  apperr.CodeEntryPointUnavailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fake := loginFake()
			tc.setup(fake)

			session, err := newTestDriver(fake).Authenticate(context.Background(), tc.creds)
			if err == nil {
				t.Fatalf("expected error, got session %+v", session)
			}

			if !apperr.IsAuthError(err) {
				t.Errorf("expected an auth error, got %v", err)
			}

			if !apperr.HasCode(err, tc.code) {
				t.Errorf("expected code %q, got %q", tc.code, apperr.CodeOf(err))
			}
		})
	}
}

func TestAuthenticate_EmptyCredentials(t *testing.T) {
	_, err := newTestDriver(loginFake()).Authenticate(context.Background(), entity.Credentials{})
	if apperr.CodeOf(err) != apperr.CodeInvalidArgument {
		t.Fatalf("expected invalid argument, got %v", err)
	}

	if apperr.IsAuthError(err) {
		t.Error("missing credentials are a configuration problem, not an auth failure")
	}
}

func TestCheckExpired(t *testing.T) {
	fake := loginFake()
	d := newTestDriver(fake)

	session, err := d.Authenticate(context.Background(), creds)
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}

	if d.CheckExpired(session) {
		t.Fatal("fresh session reported expired")
	}

	fake.URL = loginURL + "/"

	if !d.CheckExpired(session) {
		t.Fatal("expected expiry after redirect to login")
	}

	if session.State != entity.AuthStateExpired {
		t.Errorf("state = %q", session.State)
	}

	if !d.CheckExpired(nil) {
		t.Error("nil session must count as expired")
	}
}

func TestWith_ClosesOnEveryPath(t *testing.T) {
	boom := errors.New("boom")

	testCases := []struct {
		name    string
		setup   func(f *browsertest.Fake)
		fn      func(ctx context.Context, s *entity.Session) error
		wantErr error
		ran     bool
	}{
		{
			name:  "success",
			setup: func(f *browsertest.Fake) {},
			fn:    func(ctx context.Context, s *entity.Session) error { return nil },
			ran:   true,
		},
		{
			name:    "callback error",
			setup:   func(f *browsertest.Fake) {},
			fn:      func(ctx context.Context, s *entity.Session) error { return boom },
			wantErr: boom,
			ran:     true,
		},
		{
			name:  "auth error",
			setup: func(f *browsertest.Fake) { delete(f.Cookies, "JSESSIONID") },
			fn:    func(ctx context.Context, s *entity.Session) error { return nil },
		},
		{
			name:  "launch error",
			setup: func(f *browsertest.Fake) { f.Errors["Launch"] = boom },
			fn:    func(ctx context.Context, s *entity.Session) error { return nil },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fake := loginFake()
			tc.setup(fake)

			ran := false
			err := With(context.Background(), newTestDriver(fake), creds, func(ctx context.Context, s *entity.Session) error {
				ran = true

				return tc.fn(ctx, s)
			})

			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}

			if ran != tc.ran {
				t.Errorf("callback ran = %v, want %v", ran, tc.ran)
			}

			if !fake.Closed {
				t.Error("browser not closed")
			}
		})
	}
}

func TestWith_ClosesOnPanic(t *testing.T) {
	fake := loginFake()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic to propagate")
		}

		if !fake.Closed {
			t.Error("browser not closed after panic")
		}
	}()

	_ = With(context.Background(), newTestDriver(fake), creds, func(ctx context.Context, s *entity.Session) error {
		panic("extractor exploded")
	})
}
