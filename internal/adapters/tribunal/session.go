package tribunal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/lexhive/juris-cli/internal/metrics"
	"github.com/lexhive/juris-cli/internal/ports"
)

// SessionManager caches the portal session cookie per credential. Creation
// simulates a browser navigation against the portal entry page and is
// expensive, so one manager instance is shared process-wide and the lock is
// held across the whole creation round trip: concurrent callers with the
// same credential never race into duplicate creations.
type SessionManager struct {
	cfg        Config
	httpClient *http.Client
	clock      ports.Clock
	collector  *metrics.Collector
	logger     *slog.Logger

	mu       sync.Mutex
	sessions map[string]sessionRecord
}

type sessionRecord struct {
	cookie    string
	createdAt time.Time
	expiresAt time.Time
}

func NewSessionManager(cfg Config, collector *metrics.Collector, clock ports.Clock, logger *slog.Logger) *SessionManager {
	cfg = cfg.withDefaults()
	if collector == nil {
		collector = metrics.NewCollector()
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SessionManager{
		cfg:        cfg,
		httpClient: cfg.HTTPClient,
		clock:      clock,
		collector:  collector,
		logger:     logger,
		sessions:   make(map[string]sessionRecord),
	}
}

// Cookie returns a cached, unexpired session cookie for the credential,
// creating one when needed. Absence is not an error: downloads are
// attempted without a cookie and fail explicitly if one was required.
func (m *SessionManager) Cookie(ctx context.Context, credential string) (string, bool) {
	key := credentialKey(credential)
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if rec, ok := m.sessions[key]; ok && now.Sub(rec.createdAt) < m.cfg.SessionTTL {
		return rec.cookie, true
	}
	delete(m.sessions, key)

	cookie, err := m.create(ctx, credential)
	if err != nil {
		m.logger.Warn("session creation failed, continuing without a cookie", "error", err)
		return "", false
	}
	if cookie == "" {
		m.logger.Warn("portal response carried no session cookie", "cookie", m.cfg.CookieName)
		return "", false
	}

	m.sessions[key] = sessionRecord{
		cookie:    cookie,
		createdAt: now,
		expiresAt: now.Add(m.cfg.SessionLifetime),
	}

	return cookie, true
}

// Refresh drops the cached session for the credential so the next Cookie
// call recreates it.
func (m *SessionManager) Refresh(credential string) {
	key := credentialKey(credential)

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, key)
}

func (m *SessionManager) create(ctx context.Context, credential string) (string, error) {
	endpoint, err := buildRequestURL(m.cfg.BaseURL, m.cfg.EntryPath, nil)
	if err != nil {
		return "", err
	}

	reqCtx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create session request: %w", err)
	}
	req.Header.Set("User-Agent", m.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Authorization", "Bearer "+credential)

	start := m.clock.Now()
	m.collector.IncIssued()
	resp, err := m.httpClient.Do(req)
	if err != nil {
		category := classifyTransport(err)
		m.collector.IncError(category)
		m.collector.ObserveRequest(m.clock.Now().Sub(start), false)

		return "", fmt.Errorf("request portal entry page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusBadRequest {
		m.collector.IncError(classifyStatus(resp.StatusCode))
		m.collector.ObserveRequest(m.clock.Now().Sub(start), false)

		return "", fmt.Errorf("portal entry page returned status %d", resp.StatusCode)
	}
	m.collector.ObserveRequest(m.clock.Now().Sub(start), true)

	for _, cookie := range resp.Cookies() {
		if cookie.Name == m.cfg.CookieName && cookie.Value != "" {
			return cookie.Name + "=" + cookie.Value, nil
		}
	}

	return "", nil
}

func credentialKey(credential string) string {
	hash := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(hash[:])
}
