package tribunal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/lexhive/juris-cli/internal/domain"
	"github.com/lexhive/juris-cli/internal/metrics"
)

const bodyPreviewBytes = 256

// Executor issues one remote call at a time under a concurrency budget,
// with a per-call deadline, a shared retry budget and categorized failures.
// Callers that hit a full budget block on the permit; they are never
// rejected.
type Executor struct {
	cfg        Config
	httpClient *http.Client

	generic  *ConcurrencyBudget
	download *ConcurrencyBudget
	backoff  *AdaptiveBackoff
	limiter  *rate.Limiter

	collector *metrics.Collector
	logger    *slog.Logger
}

func NewExecutor(cfg Config, collector *metrics.Collector, logger *slog.Logger) *Executor {
	cfg = cfg.withDefaults()
	if collector == nil {
		collector = metrics.NewCollector()
	}
	if logger == nil {
		logger = slog.Default()
	}

	generic := NewConcurrencyBudget("generic", cfg.MaxConcurrent)

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Executor{
		cfg:        cfg,
		httpClient: cfg.HTTPClient,
		generic:    generic,
		download:   NewConcurrencyBudget("download", cfg.MaxConcurrentDownloads),
		backoff:    NewAdaptiveBackoff(cfg.BaseDelay, cfg.MaxDelay, generic, logger),
		limiter:    limiter,
		collector:  collector,
		logger:     logger,
	}
}

func (e *Executor) Do(ctx context.Context, req Request) (*Response, error) {
	budget, timeout := e.generic, e.cfg.RequestTimeout
	if req.kind() == KindDownload {
		budget, timeout = e.download, e.cfg.DownloadTimeout
	}

	if !req.NoBudget {
		if budget.Saturated() {
			e.collector.IncCeilingHit()
			e.logger.Warn("concurrency ceiling reached, waiting for a permit",
				"budget", budget.Name(),
				"ceiling", budget.Ceiling(),
			)
		}
		if err := budget.Acquire(ctx); err != nil {
			return nil, err
		}
		defer budget.Release()
	}

	start := time.Now()
	resp, err := e.attempts(ctx, req, timeout)
	elapsed := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.Status
	}
	var remoteErr *domain.RemoteError
	if errors.As(err, &remoteErr) {
		status = remoteErr.Status
	}

	if req.kind() == KindDownload {
		e.collector.ObserveDownload(elapsed, err == nil)
	} else {
		e.collector.ObserveRequest(elapsed, err == nil)
	}
	e.logger.Debug("remote call finished",
		"method", req.Method,
		"endpoint", req.Path,
		"status", status,
		"elapsed", elapsed,
		"ok", err == nil,
	)

	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (e *Executor) attempts(ctx context.Context, req Request, timeout time.Duration) (*Response, error) {
	var lastErr error

	for attempt := 0; attempt < e.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			var wait time.Duration
			if errors.Is(lastErr, domain.ErrRateLimited) {
				wait = e.backoff.Delay(attempt - 1)
			} else {
				wait = e.backoff.FlatDelay(attempt - 1)
			}

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				if !timer.Stop() {
					<-timer.C
				}
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		resp, err := e.attempt(ctx, req, timeout)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !retryable(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

func (e *Executor) attempt(ctx context.Context, req Request, timeout time.Duration) (*Response, error) {
	endpoint, err := buildRequestURL(e.cfg.BaseURL, req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	e.setHeaders(httpReq, req)

	e.collector.IncIssued()
	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		category := classifyTransport(err)
		e.collector.IncError(category)

		return nil, domain.NewRemoteError(category, req.op(), 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	return e.consume(resp, req)
}

func (e *Executor) consume(resp *http.Response, req Request) (*Response, error) {
	op := req.op()

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		maxBytes := e.cfg.MaxBodyBytes
		if req.kind() == KindDownload {
			maxBytes = e.cfg.MaxDownloadBytes
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
		if err != nil {
			category := classifyTransport(err)
			e.collector.IncError(category)

			return nil, domain.NewRemoteError(category, op, resp.StatusCode, err)
		}

		if req.Decode != nil {
			if err := json.Unmarshal(data, req.Decode); err != nil {
				e.collector.IncError(domain.ErrDecode)
				e.logger.Warn("undecodable response payload",
					"endpoint", req.Path,
					"status", resp.StatusCode,
					"preview", bodyPreview(data),
				)

				return nil, domain.NewRemoteError(domain.ErrDecode, op, resp.StatusCode, err)
			}
		}

		return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
	}

	// drain a bounded amount so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	category := classifyStatus(resp.StatusCode)
	if resp.StatusCode == http.StatusTooManyRequests {
		e.backoff.OnRateLimited()
	}
	e.collector.IncError(category)

	return nil, domain.NewRemoteError(category, op, resp.StatusCode, nil)
}

func classifyStatus(status int) error {
	switch {
	case status == http.StatusNotFound:
		return domain.ErrNotFound
	case status == http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case status == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case status >= http.StatusInternalServerError:
		return domain.ErrServer
	default:
		return domain.ErrUnexpectedStatus
	}
}

func (e *Executor) setHeaders(httpReq *http.Request, req Request) {
	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", e.cfg.UserAgent)
	}
	if e.cfg.Credential != "" && httpReq.Header.Get("Authorization") == "" {
		httpReq.Header.Set("Authorization", "Bearer "+e.cfg.Credential)
	}
	if req.kind() == KindJSON && httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	if len(req.Body) > 0 && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
}

func retryable(err error) bool {
	return errors.Is(err, domain.ErrRateLimited) ||
		errors.Is(err, domain.ErrServer) ||
		errors.Is(err, domain.ErrTimeout) ||
		errors.Is(err, domain.ErrTransport)
}

func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.ErrTimeout
	}

	return domain.ErrTransport
}

func bodyPreview(data []byte) string {
	if len(data) > bodyPreviewBytes {
		data = data[:bodyPreviewBytes]
	}

	return string(data)
}
