package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SITE_USERNAME", "intern")
	t.Setenv("SITE_PASSWORD", "secret")
	t.Setenv("SITE_LOGIN_URL", "https://maps.example.com/login")
}

func TestGetConfig_Defaults(t *testing.T) {
	setRequired(t)

	conf, err := GetConfig()
	if err != nil {
		t.Fatalf("GetConfig() error: %v", err)
	}

	if conf.SiteConfig.Username != "intern" || conf.SiteConfig.Password != "secret" {
		t.Errorf("credentials not read: %+v", conf.SiteConfig)
	}

	if conf.SiteConfig.SessionCookie != "JSESSIONID" {
		t.Errorf("session cookie default = %q", conf.SiteConfig.SessionCookie)
	}

	if conf.TimeoutsConfig.CoordinateInterval != 5*time.Second {
		t.Errorf("coordinate interval = %v", conf.TimeoutsConfig.CoordinateInterval)
	}

	if conf.TimeoutsConfig.MarkerOffsetY != -15 {
		t.Errorf("marker offset = %v", conf.TimeoutsConfig.MarkerOffsetY)
	}

	if conf.SelectorsConfig.MapCanvasFallback == "" || conf.SelectorsConfig.ResultsTable == "" {
		t.Error("selector defaults missing")
	}

	if conf.ServerConfig.Addr != ":8080" {
		t.Errorf("server addr = %q", conf.ServerConfig.Addr)
	}
}

func TestGetConfig_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("RESULTS_TIMEOUT", "2s")
	t.Setenv("BROWSER_USER_AGENT", "custom-agent")
	t.Setenv("PROXY_ENABLED", "true")
	t.Setenv("PROXY_API_KEY", "k")

	conf, err := GetConfig()
	if err != nil {
		t.Fatalf("GetConfig() error: %v", err)
	}

	if conf.TimeoutsConfig.Results != 2*time.Second {
		t.Errorf("results timeout = %v", conf.TimeoutsConfig.Results)
	}

	if conf.BrowserConfig.UserAgent != "custom-agent" {
		t.Errorf("user agent = %q", conf.BrowserConfig.UserAgent)
	}

	if !conf.ProxyConfig.Enabled || conf.ProxyConfig.APIKey != "k" {
		t.Errorf("proxy = %+v", conf.ProxyConfig)
	}
}

func TestGetConfig_MissingCredentials(t *testing.T) {
	t.Setenv("SITE_USERNAME", "")
	t.Setenv("SITE_PASSWORD", "")
	t.Setenv("SITE_LOGIN_URL", "")

	if _, err := GetConfig(); err == nil {
		t.Fatal("expected error for missing required credentials")
	}
}

func TestGetConfig_ProxyWithoutKey(t *testing.T) {
	setRequired(t)
	t.Setenv("PROXY_ENABLED", "true")
	t.Setenv("PROXY_API_KEY", "")

	if _, err := GetConfig(); err == nil {
		t.Fatal("expected error when proxy is enabled without a key")
	}
}
