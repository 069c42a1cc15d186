package tribunal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/lexhive/juris-cli/internal/domain"
	"github.com/lexhive/juris-cli/internal/metrics"
	"github.com/lexhive/juris-cli/internal/ports"
)

const (
	caseCoverPathFmt  = "/api/v1/cases/%s/cover"
	caseFullPathFmt   = "/api/v1/cases/%s"
	caseSearchPath    = "/api/v1/cases/search"
	caseRefererFmt    = "/portal/processo/%s"
	defaultSearchSize = 50
)

// Client exposes the records portal as domain operations. All wire calls go
// through the executor; downloads additionally pull a session cookie from
// the session manager, since the portal hands out binaries only to what
// looks like a browser with a live session.
type Client struct {
	cfg       Config
	executor  *Executor
	sessions  *SessionManager
	collector *metrics.Collector
	sink      ports.DocumentSink
	logger    *slog.Logger
}

var (
	_ ports.CaseRecords      = (*Client)(nil)
	_ ports.BatchCaseFetcher = (*Client)(nil)
)

// NewClient wires the remote access layer around one shared collector. The
// sink is optional; without one, download bodies are returned in memory.
func NewClient(cfg Config, collector *metrics.Collector, sink ports.DocumentSink, clock ports.Clock, logger *slog.Logger) *Client {
	cfg = cfg.withDefaults()
	if collector == nil {
		collector = metrics.NewCollector()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		cfg:       cfg,
		executor:  NewExecutor(cfg, collector, logger),
		sessions:  NewSessionManager(cfg, collector, clock, logger),
		collector: collector,
		sink:      sink,
		logger:    logger,
	}
}

func (c *Client) CaseCover(ctx context.Context, number domain.CaseNumber) (domain.CaseCover, error) {
	var wire caseWire
	_, err := c.executor.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf(caseCoverPathFmt, url.PathEscape(number.String())),
		Decode: &wire,
	})
	if err != nil {
		return domain.CaseCover{}, fmt.Errorf("fetch case cover %s: %w", number, err)
	}

	return wire.toCover(), nil
}

func (c *Client) Case(ctx context.Context, number domain.CaseNumber) (domain.Case, error) {
	var envelope caseEnvelope
	_, err := c.executor.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf(caseFullPathFmt, url.PathEscape(number.String())),
		Decode: &envelope,
	})
	if err != nil {
		return domain.Case{}, fmt.Errorf("fetch case %s: %w", number, err)
	}

	record := envelope.toDomain()
	if record.Number.IsZero() {
		record.Number = number
	}

	return record, nil
}

// CaseDocuments fetches the full case and returns its concatenated document
// list. There is no narrower portal endpoint for documents alone.
func (c *Client) CaseDocuments(ctx context.Context, number domain.CaseNumber) ([]domain.Document, error) {
	record, err := c.Case(ctx, number)
	if err != nil {
		return nil, err
	}

	return record.Documents, nil
}

// DownloadDocument retrieves one document body. A missing session cookie is
// logged and the download attempted anyway; the portal rejects it with an
// explicit status when a session was actually required.
func (c *Client) DownloadDocument(ctx context.Context, doc domain.Document, cookie string) (*domain.DownloadResult, error) {
	number := deriveCaseNumber(doc.Href)

	if cookie == "" {
		var ok bool
		cookie, ok = c.sessions.Cookie(ctx, c.cfg.Credential)
		if !ok {
			c.logger.Warn("no session cookie available, attempting unauthenticated download",
				"document", doc.ID,
			)
		}
	}

	header := http.Header{}
	header.Set("User-Agent", c.cfg.UserAgent)
	header.Set("Accept", "*/*")
	if !number.IsZero() {
		header.Set("Referer", c.refererFor(number))
	}
	if cookie != "" {
		header.Set("Cookie", cookie)
	}

	resp, err := c.executor.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   doc.Href,
		Header: header,
		Kind:   KindDownload,
	})
	if err != nil {
		return nil, fmt.Errorf("download document %s: %w", doc.ID, err)
	}

	result := &domain.DownloadResult{
		Case:     number,
		Document: doc,
	}

	if c.sink == nil {
		result.Data = resp.Body
		result.Bytes = int64(len(resp.Body))
		return result, nil
	}

	path, written, err := c.sink.Accept(ctx, number, doc, bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("accept document %s: %w", doc.ID, err)
	}
	result.Path = path
	result.Bytes = written

	return result, nil
}

// DownloadDocuments runs every download concurrently under the download
// budget. One failing item never stops the rest; the result slice carries
// one outcome per input, in input order.
func (c *Client) DownloadDocuments(ctx context.Context, docs []domain.Document) []domain.DownloadOutcome {
	outcomes := make([]domain.DownloadOutcome, len(docs))

	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		go func(i int, doc domain.Document) {
			defer wg.Done()

			result, err := c.DownloadDocument(ctx, doc, "")
			outcomes[i] = domain.DownloadOutcome{
				Document: doc,
				Result:   result,
				Err:      err,
			}
		}(i, doc)
	}
	wg.Wait()

	return outcomes
}

// CasesByNumber resolves many cases in one search call. The response is
// matched back to the requested numbers positionally: numbers the portal
// did not return come back as NotFound entries.
func (c *Client) CasesByNumber(ctx context.Context, numbers []domain.CaseNumber) ([]domain.CaseFetchResult, error) {
	if len(numbers) == 0 {
		return nil, nil
	}
	if len(numbers) > defaultSearchSize {
		return nil, fmt.Errorf("search batch of %d exceeds the portal limit of %d", len(numbers), defaultSearchSize)
	}

	request := searchRequestWire{Numbers: make([]string, 0, len(numbers))}
	for _, number := range numbers {
		request.Numbers = append(request.Numbers, number.String())
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("encode case search: %w", err)
	}

	var response searchResponseWire
	_, err = c.executor.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   caseSearchPath,
		Body:   body,
		Decode: &response,
	})
	if err != nil {
		return nil, fmt.Errorf("search cases: %w", err)
	}

	found := make(map[domain.CaseNumber]domain.Case, len(response.Cases))
	for _, wire := range response.Cases {
		record := wire.toDomain()
		found[record.Number] = record
	}

	results := make([]domain.CaseFetchResult, 0, len(numbers))
	for _, number := range numbers {
		if record, ok := found[number]; ok {
			results = append(results, domain.CaseFetchResult{Number: number, Case: &record})
			continue
		}
		results = append(results, domain.CaseFetchResult{
			Number: number,
			Err:    domain.NewRemoteError(domain.ErrNotFound, "search cases", 0, nil),
		})
	}

	return results, nil
}

// RefreshSession drops the cached session for the configured credential.
func (c *Client) RefreshSession() {
	c.sessions.Refresh(c.cfg.Credential)
}

// Metrics derives the current health report from the shared collector and
// the live budget gauges.
func (c *Client) Metrics() metrics.Report {
	return metrics.BuildReport(
		c.collector.Snapshot(),
		c.executor.generic.Status(),
		c.executor.download.Status(),
	)
}

func (c *Client) refererFor(number domain.CaseNumber) string {
	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return ""
	}
	ref, err := base.Parse(fmt.Sprintf(caseRefererFmt, number.Formatted()))
	if err != nil {
		return ""
	}

	return ref.String()
}
