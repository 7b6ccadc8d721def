package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppConfig       *AppConfig
	SiteConfig      *SiteConfig
	SelectorsConfig *SelectorsConfig
	TimeoutsConfig  *TimeoutsConfig
	BrowserConfig   *BrowserConfig
	ProxyConfig     *ProxyConfig
	ServerConfig    *ServerConfig
}

type AppConfig struct {
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	Debug          bool   `envconfig:"DEBUG" default:"false"`
	TracingEnabled bool   `envconfig:"TRACING_ENABLED" default:"false"`
}

// SiteConfig describes the target application and the account used on it.
type SiteConfig struct {
	Username      string `envconfig:"SITE_USERNAME" required:"true"`
	Password      string `envconfig:"SITE_PASSWORD" required:"true"`
	LoginURL      string `envconfig:"SITE_LOGIN_URL" required:"true"`
	SessionCookie string `envconfig:"SITE_SESSION_COOKIE" default:"JSESSIONID"`
}

// SelectorsConfig holds every CSS selector the automation depends on.
type SelectorsConfig struct {
	UsernameInput     string `envconfig:"SEL_USERNAME_INPUT" default:"#username"`
	PasswordInput     string `envconfig:"SEL_PASSWORD_INPUT" default:"#password"`
	SubmitButton      string `envconfig:"SEL_SUBMIT_BUTTON" default:"button[type='submit']"`
	OnboardingDismiss string `envconfig:"SEL_ONBOARDING_DISMISS" default:".onboarding-overlay .close-button"`
	EntryPointLink    string `envconfig:"SEL_ENTRY_POINT_LINK" default:"a[data-app='property-search']"`
	FilterPanel       string `envconfig:"SEL_FILTER_PANEL" default:"#filter-panel"`
	SearchInput       string `envconfig:"SEL_SEARCH_INPUT" default:"#search-input"`
	MapCanvas         string `envconfig:"SEL_MAP_CANVAS" default:"#map-canvas"`
	MapCanvasFallback string `envconfig:"SEL_MAP_CANVAS_FALLBACK" default:"#mapCanvas"`
	ZoomIn            string `envconfig:"SEL_ZOOM_IN" default:"button[title='Zoom in']"`
	OverlayCanvas     string `envconfig:"SEL_OVERLAY_CANVAS" default:"canvas.map-overlay"`
	ResultsTable      string `envconfig:"SEL_RESULTS_TABLE" default:"#detail-panel table.property-details"`
	DetailPanel       string `envconfig:"SEL_DETAIL_PANEL" default:"#detail-panel"`
	SiteAddress       string `envconfig:"SEL_SITE_ADDRESS" default:"h2.site-address"`
	DemographicsID    string `envconfig:"SEL_DEMOGRAPHICS_ID_PREFIX" default:"demographics"`
}

type TimeoutsConfig struct {
	SessionCookie      time.Duration `envconfig:"SESSION_COOKIE_TIMEOUT" default:"30s"`
	Login              time.Duration `envconfig:"LOGIN_TIMEOUT" default:"30s"`
	EntryPoint         time.Duration `envconfig:"ENTRY_POINT_TIMEOUT" default:"20s"`
	Onboarding         time.Duration `envconfig:"ONBOARDING_TIMEOUT" default:"5s"`
	FilterPanel        time.Duration `envconfig:"FILTER_PANEL_TIMEOUT" default:"30s"`
	MarkerPoll         time.Duration `envconfig:"MARKER_POLL_TIMEOUT" default:"5s"`
	Results            time.Duration `envconfig:"RESULTS_TIMEOUT" default:"10s"`
	PostLoginDelay     time.Duration `envconfig:"POST_LOGIN_DELAY" default:"10s"`
	PostSearchDelay    time.Duration `envconfig:"POST_SEARCH_DELAY" default:"3s"`
	CoordinateInterval time.Duration `envconfig:"COORDINATE_INTERVAL" default:"5s"`
	MarkerOffsetY      float64       `envconfig:"MARKER_OFFSET_Y" default:"-15"`
}

type BrowserConfig struct {
	Headless      bool   `envconfig:"BROWSER_HEADLESS" default:"false"`
	SlowMo        int    `envconfig:"BROWSER_SLOW_MO" default:"100"`
	Timeout       int    `envconfig:"BROWSER_TIMEOUT" default:"30000"`
	Install       bool   `envconfig:"BROWSER_INSTALL" default:"true"`
	UserAgent     string `envconfig:"BROWSER_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"`
	ViewportW     int    `envconfig:"BROWSER_VIEWPORT_WIDTH" default:"1920"`
	ViewportH     int    `envconfig:"BROWSER_VIEWPORT_HEIGHT" default:"1080"`
	ScreenshotDir string `envconfig:"BROWSER_SCREENSHOT_DIR"`
}

type ProxyConfig struct {
	Enabled bool   `envconfig:"PROXY_ENABLED" default:"false"`
	APIKey  string `envconfig:"PROXY_API_KEY"`
	Server  string `envconfig:"PROXY_SERVER" default:"http://api.zyte.com:8011"`
}

type ServerConfig struct {
	Addr      string `envconfig:"HTTP_ADDR" default:":8080"`
	Mode      string `envconfig:"GIN_MODE" default:"release"`
	UploadDir string `envconfig:"UPLOAD_DIR" default:"uploads"`
}

func GetConfig() (*Config, error) {
	_ = godotenv.Load()

	var conf Config

	if err := envconfig.Process("", &conf); err != nil {
		return nil, fmt.Errorf("read config from env vars: %w", err)
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}

	return &conf, nil
}

func (c *Config) validate() error {
	if c.SiteConfig.Username == "" || c.SiteConfig.Password == "" {
		return fmt.Errorf("SITE_USERNAME and SITE_PASSWORD must not be empty")
	}

	if c.SiteConfig.LoginURL == "" {
		return fmt.Errorf("SITE_LOGIN_URL must not be empty")
	}

	if c.ProxyConfig.Enabled && c.ProxyConfig.APIKey == "" {
		return fmt.Errorf("PROXY_API_KEY is required when PROXY_ENABLED is set")
	}

	return nil
}
