package tribunal

import (
	"net/http"
	"time"
)

const (
	defaultRequestTimeout   = 30 * time.Second
	defaultDownloadTimeout  = 2 * time.Minute
	defaultMaxAttempts      = 3
	defaultMaxConcurrent    = 10
	defaultMaxDownloads     = 3
	defaultMaxBodyBytes     = 1 << 20
	defaultMaxDownloadBytes = 64 << 20
	defaultSessionTTL       = 25 * time.Minute
	defaultSessionLifetime  = 30 * time.Minute
	defaultEntryPath        = "/portal/inicio"
	defaultCookieName       = "JSESSIONID"

	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config carries every tunable of the remote access layer. Zero values fall
// back to defaults; only BaseURL and Credential come from the deployment.
type Config struct {
	BaseURL    string
	Credential string
	UserAgent  string

	// EntryPath is the portal page whose response sets the session cookie.
	EntryPath  string
	CookieName string

	RequestTimeout  time.Duration
	DownloadTimeout time.Duration
	MaxAttempts     int

	BaseDelay time.Duration
	MaxDelay  time.Duration

	MaxConcurrent          int64
	MaxConcurrentDownloads int64

	// RequestsPerSecond smooths outgoing attempts; zero disables it.
	RequestsPerSecond float64

	MaxBodyBytes     int64
	MaxDownloadBytes int64

	SessionTTL      time.Duration
	SessionLifetime time.Duration

	HTTPClient *http.Client
}

func (c Config) withDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.EntryPath == "" {
		c.EntryPath = defaultEntryPath
	}
	if c.CookieName == "" {
		c.CookieName = defaultCookieName
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.DownloadTimeout <= 0 {
		c.DownloadTimeout = defaultDownloadTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = defaultBaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = defaultMaxDelay
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = defaultMaxConcurrent
	}
	if c.MaxConcurrentDownloads <= 0 {
		c.MaxConcurrentDownloads = defaultMaxDownloads
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
	if c.MaxDownloadBytes <= 0 {
		c.MaxDownloadBytes = defaultMaxDownloadBytes
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = defaultSessionTTL
	}
	if c.SessionLifetime <= 0 {
		c.SessionLifetime = defaultSessionLifetime
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}

	return c
}
