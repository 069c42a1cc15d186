package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lexhive/juris-cli/internal/domain"
	"github.com/lexhive/juris-cli/internal/metrics"
	"github.com/lexhive/juris-cli/internal/ports"
)

const (
	kindCover     = "cover"
	kindFull      = "full"
	kindDocuments = "documents"

	defaultSingleTTL = time.Hour
	defaultBatchTTL  = 30 * time.Minute

	batchFallbackChunk = 10
)

var ErrEmptyCaseNumber = errors.New("case number has no digits")

// CaseService fronts the records source with a TTL cache and collapses
// concurrent identical lookups into one upstream fetch. For any key, at
// most one fetch is in flight; every waiter observes that fetch's value or
// error. Failures are propagated, never cached.
type CaseService struct {
	records ports.CaseRecords
	// batch is the optional search capability of the source, decided at
	// wiring time. Nil means every miss is fetched one by one.
	batch     ports.BatchCaseFetcher
	store     ports.CacheStore
	collector *metrics.Collector
	clock     ports.Clock
	logger    *slog.Logger

	flight singleflight.Group

	singleTTL time.Duration
	batchTTL  time.Duration
}

type CaseServiceOption func(*CaseService)

func WithBatchFetcher(batch ports.BatchCaseFetcher) CaseServiceOption {
	return func(s *CaseService) { s.batch = batch }
}

func WithTTLs(single, batch time.Duration) CaseServiceOption {
	return func(s *CaseService) {
		if single > 0 {
			s.singleTTL = single
		}
		if batch > 0 {
			s.batchTTL = batch
		}
	}
}

func NewCaseService(records ports.CaseRecords, store ports.CacheStore, collector *metrics.Collector, clock ports.Clock, logger *slog.Logger, opts ...CaseServiceOption) *CaseService {
	if collector == nil {
		collector = metrics.NewCollector()
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &CaseService{
		records:   records,
		store:     store,
		collector: collector,
		clock:     clock,
		logger:    logger,
		singleTTL: defaultSingleTTL,
		batchTTL:  defaultBatchTTL,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *CaseService) Cover(ctx context.Context, raw string, forceRefresh bool) (domain.CaseCover, error) {
	number := domain.NormalizeCaseNumber(raw)
	if number.IsZero() {
		return domain.CaseCover{}, fmt.Errorf("%w: %q", ErrEmptyCaseNumber, raw)
	}

	return lookup(ctx, s, cacheKey(number, kindCover), forceRefresh, s.singleTTL,
		func(ctx context.Context) (domain.CaseCover, error) {
			return s.records.CaseCover(ctx, number)
		})
}

func (s *CaseService) Case(ctx context.Context, raw string, forceRefresh bool) (domain.Case, error) {
	number := domain.NormalizeCaseNumber(raw)
	if number.IsZero() {
		return domain.Case{}, fmt.Errorf("%w: %q", ErrEmptyCaseNumber, raw)
	}

	return lookup(ctx, s, cacheKey(number, kindFull), forceRefresh, s.singleTTL,
		func(ctx context.Context) (domain.Case, error) {
			return s.records.Case(ctx, number)
		})
}

func (s *CaseService) Documents(ctx context.Context, raw string, forceRefresh bool) ([]domain.Document, error) {
	number := domain.NormalizeCaseNumber(raw)
	if number.IsZero() {
		return nil, fmt.Errorf("%w: %q", ErrEmptyCaseNumber, raw)
	}

	return lookup(ctx, s, cacheKey(number, kindDocuments), forceRefresh, s.singleTTL,
		func(ctx context.Context) ([]domain.Document, error) {
			return s.records.CaseDocuments(ctx, number)
		})
}

// Cases resolves many numbers at once: cache hits are answered directly,
// the misses go through one batch search when the source supports it, and
// otherwise through per-number fetches in bounded concurrent chunks. The
// result always carries one entry per input, in input order; a bad number
// fails its own entry only.
func (s *CaseService) Cases(ctx context.Context, raws []string) []domain.CaseFetchResult {
	results := make([]domain.CaseFetchResult, len(raws))

	var missIdx []int
	for i, raw := range raws {
		number := domain.NormalizeCaseNumber(raw)
		results[i].Number = number
		if number.IsZero() {
			results[i].Err = fmt.Errorf("%w: %q", ErrEmptyCaseNumber, raw)
			continue
		}

		if record, ok := cachedValue[domain.Case](ctx, s, cacheKey(number, kindFull)); ok {
			s.collector.IncCacheHit()
			results[i].Case = &record
			continue
		}
		s.collector.IncCacheMiss()
		missIdx = append(missIdx, i)
	}

	if len(missIdx) == 0 {
		return results
	}

	if s.batch != nil && s.batchFill(ctx, results, missIdx) {
		return results
	}

	s.chunkedFill(ctx, raws, results, missIdx)

	return results
}

// batchFill answers all misses with one search call. It reports false when
// the search itself failed, leaving the fallback to handle the misses.
func (s *CaseService) batchFill(ctx context.Context, results []domain.CaseFetchResult, missIdx []int) bool {
	numbers := make([]domain.CaseNumber, 0, len(missIdx))
	for _, i := range missIdx {
		numbers = append(numbers, results[i].Number)
	}

	fetched, err := s.batch.CasesByNumber(ctx, numbers)
	if err != nil || len(fetched) != len(missIdx) {
		s.logger.Warn("batch case search failed, falling back to per-case fetches",
			"cases", len(numbers),
			"error", err,
		)
		return false
	}

	now := s.clock.Now()
	for j, i := range missIdx {
		results[i] = fetched[j]
		if fetched[j].Err != nil || fetched[j].Case == nil {
			continue
		}
		s.cache(ctx, cacheKey(fetched[j].Number, kindFull), *fetched[j].Case, now, s.batchTTL)
	}

	return true
}

func (s *CaseService) chunkedFill(ctx context.Context, raws []string, results []domain.CaseFetchResult, missIdx []int) {
	for start := 0; start < len(missIdx); start += batchFallbackChunk {
		end := min(start+batchFallbackChunk, len(missIdx))

		var wg sync.WaitGroup
		for _, i := range missIdx[start:end] {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()

				record, err := s.Case(ctx, raws[i], false)
				if err != nil {
					results[i].Err = err
					return
				}
				results[i].Case = &record
			}(i)
		}
		wg.Wait()
	}
}

// Invalidate drops every cached kind for the number. An in-flight fetch for
// the same key is left alone; its waiters still get its result.
func (s *CaseService) Invalidate(ctx context.Context, raw string) error {
	number := domain.NormalizeCaseNumber(raw)
	if number.IsZero() {
		return fmt.Errorf("%w: %q", ErrEmptyCaseNumber, raw)
	}

	var errs []error
	for _, kind := range []string{kindCover, kindFull, kindDocuments} {
		if err := s.store.Delete(ctx, cacheKey(number, kind)); err != nil {
			errs = append(errs, fmt.Errorf("delete %s entry: %w", kind, err))
		}
	}

	return errors.Join(errs...)
}

func cacheKey(number domain.CaseNumber, kind string) string {
	return kind + ":" + number.String()
}

// lookup is the single-flight read path: cache first, then one shared
// fetch per key. The shared fetch runs detached from the initiating
// caller's cancellation so other waiters are not stranded by it.
func lookup[T any](ctx context.Context, s *CaseService, key string, forceRefresh bool, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	var zero T

	if !forceRefresh {
		if value, ok := cachedValue[T](ctx, s, key); ok {
			s.collector.IncCacheHit()
			return value, nil
		}
		s.collector.IncCacheMiss()
	}

	ch := s.flight.DoChan(key, func() (any, error) {
		fetchCtx := context.WithoutCancel(ctx)

		value, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}

		s.cache(fetchCtx, key, value, s.clock.Now(), ttl)

		return value, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// cachedValue reads the store directly. Store errors and entries of an
// unexpected shape degrade to a miss; the cache must never break a read.
func cachedValue[T any](ctx context.Context, s *CaseService, key string) (T, bool) {
	var zero T

	entry, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache read failed, treating as miss", "key", key, "error", err)
		return zero, false
	}
	if !ok {
		return zero, false
	}
	if entry.Expired(s.clock.Now()) {
		_ = s.store.Delete(ctx, key)
		return zero, false
	}

	value, ok := entry.Value.(T)
	if !ok {
		s.logger.Warn("cache entry has unexpected shape, dropping it", "key", key)
		_ = s.store.Delete(ctx, key)
		return zero, false
	}

	return value, true
}

func (s *CaseService) cache(ctx context.Context, key string, value any, now time.Time, ttl time.Duration) {
	entry := ports.CacheEntry{
		Value:     value,
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.store.Set(ctx, key, entry); err != nil {
		s.logger.Warn("cache write failed, result served uncached", "key", key, "error", err)
	}
}
