package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexhive/juris-cli/internal/adapters/cache/memory"
	"github.com/lexhive/juris-cli/internal/domain"
	"github.com/lexhive/juris-cli/internal/ports"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeRecords struct {
	mu         sync.Mutex
	caseCalls  int
	coverCalls int
	docsCalls  int

	// gate, when set, blocks every fetch until closed.
	gate    chan struct{}
	caseErr error
}

func (f *fakeRecords) called() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.caseCalls
}

func (f *fakeRecords) Case(_ context.Context, number domain.CaseNumber) (domain.Case, error) {
	f.mu.Lock()
	f.caseCalls++
	gate := f.gate
	err := f.caseErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return domain.Case{}, err
	}

	return domain.Case{
		Number: number,
		Cover:  domain.CaseCover{Number: number, Court: "Court for " + number.String()},
	}, nil
}

func (f *fakeRecords) CaseCover(_ context.Context, number domain.CaseNumber) (domain.CaseCover, error) {
	f.mu.Lock()
	f.coverCalls++
	f.mu.Unlock()

	return domain.CaseCover{Number: number}, nil
}

func (f *fakeRecords) CaseDocuments(_ context.Context, number domain.CaseNumber) ([]domain.Document, error) {
	f.mu.Lock()
	f.docsCalls++
	f.mu.Unlock()

	return []domain.Document{{ID: "doc-" + number.String()}}, nil
}

type fakeBatch struct {
	mu    sync.Mutex
	calls [][]domain.CaseNumber
	err   error
}

func (f *fakeBatch) CasesByNumber(_ context.Context, numbers []domain.CaseNumber) ([]domain.CaseFetchResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]domain.CaseNumber(nil), numbers...))
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	results := make([]domain.CaseFetchResult, 0, len(numbers))
	for _, number := range numbers {
		record := domain.Case{Number: number, Cover: domain.CaseCover{Number: number, Court: "Batch Court"}}
		results = append(results, domain.CaseFetchResult{Number: number, Case: &record})
	}

	return results, nil
}

type failingStore struct {
	ports.CacheStore
	getErr error
}

func (s *failingStore) Get(ctx context.Context, key string) (ports.CacheEntry, bool, error) {
	if s.getErr != nil {
		return ports.CacheEntry{}, false, s.getErr
	}
	return s.CacheStore.Get(ctx, key)
}

func newTestService(records ports.CaseRecords, clock ports.Clock, opts ...CaseServiceOption) *CaseService {
	return NewCaseService(records, memory.NewStore(), nil, clock, nil, opts...)
}

func TestCaseHitAvoidsSecondUpstreamCall(t *testing.T) {
	t.Parallel()

	records := &fakeRecords{}
	service := newTestService(records, newFakeClock())

	first, err := service.Case(context.Background(), "123", false)
	require.NoError(t, err)

	second, err := service.Case(context.Background(), "123", false)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, records.called(), "second read within the TTL is a cache hit")
}

func TestSingleFlightCollapsesConcurrentCalls(t *testing.T) {
	t.Parallel()

	records := &fakeRecords{gate: make(chan struct{})}
	service := newTestService(records, newFakeClock())

	const callers = 8
	results := make([]domain.Case, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = service.Case(context.Background(), "123", false)
		}(i)
	}

	// let every caller miss the cache and join the in-flight fetch
	time.Sleep(30 * time.Millisecond)
	close(records.gate)
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i], "all waiters observe the same value")
	}
	assert.Equal(t, 1, records.called(), "exactly one upstream fetch")
}

func TestFailurePropagatesToAllWaitersAndIsNotCached(t *testing.T) {
	t.Parallel()

	upstreamErr := errors.New("portal down")
	records := &fakeRecords{gate: make(chan struct{}), caseErr: upstreamErr}
	service := newTestService(records, newFakeClock())

	const callers = 4
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.Case(context.Background(), "123", false)
		}(i)
	}

	time.Sleep(30 * time.Millisecond)
	close(records.gate)
	wg.Wait()

	for i := range callers {
		require.ErrorIs(t, errs[i], upstreamErr)
	}
	assert.Equal(t, 1, records.called())

	// nothing was cached and the pending entry is gone: a new call fetches
	records.mu.Lock()
	records.caseErr = nil
	records.gate = nil
	records.mu.Unlock()

	_, err := service.Case(context.Background(), "123", false)
	require.NoError(t, err)
	assert.Equal(t, 2, records.called())
}

func TestTTLExpiryBoundary(t *testing.T) {
	t.Parallel()

	records := &fakeRecords{}
	clock := newFakeClock()
	service := newTestService(records, clock, WithTTLs(time.Hour, 30*time.Minute))

	_, err := service.Case(context.Background(), "123", false)
	require.NoError(t, err)

	clock.Advance(time.Hour - time.Second)
	_, err = service.Case(context.Background(), "123", false)
	require.NoError(t, err)
	assert.Equal(t, 1, records.called(), "read just before expiry is a hit")

	clock.Advance(time.Second)
	_, err = service.Case(context.Background(), "123", false)
	require.NoError(t, err)
	assert.Equal(t, 2, records.called(), "read at expiry refetches")
}

func TestForceRefreshBypassesCache(t *testing.T) {
	t.Parallel()

	records := &fakeRecords{}
	service := newTestService(records, newFakeClock())

	_, err := service.Case(context.Background(), "123", false)
	require.NoError(t, err)

	_, err = service.Case(context.Background(), "123", true)
	require.NoError(t, err)
	assert.Equal(t, 2, records.called())
}

func TestEquivalentIdentifiersShareOneEntry(t *testing.T) {
	t.Parallel()

	records := &fakeRecords{}
	service := newTestService(records, newFakeClock())

	_, err := service.Case(context.Background(), "0001234-56.2024.8.26.0100", false)
	require.NoError(t, err)

	_, err = service.Case(context.Background(), "00012345620248260100", false)
	require.NoError(t, err)

	assert.Equal(t, 1, records.called(), "formatted and raw numbers collapse to the same key")
}

func TestKindsAreCachedIndependently(t *testing.T) {
	t.Parallel()

	records := &fakeRecords{}
	service := newTestService(records, newFakeClock())

	_, err := service.Case(context.Background(), "123", false)
	require.NoError(t, err)
	_, err = service.Cover(context.Background(), "123", false)
	require.NoError(t, err)
	_, err = service.Documents(context.Background(), "123", false)
	require.NoError(t, err)

	records.mu.Lock()
	defer records.mu.Unlock()
	assert.Equal(t, 1, records.caseCalls)
	assert.Equal(t, 1, records.coverCalls)
	assert.Equal(t, 1, records.docsCalls)
}

func TestInvalidateRemovesAllKinds(t *testing.T) {
	t.Parallel()

	records := &fakeRecords{}
	service := newTestService(records, newFakeClock())

	_, err := service.Case(context.Background(), "123", false)
	require.NoError(t, err)
	_, err = service.Cover(context.Background(), "123", false)
	require.NoError(t, err)

	require.NoError(t, service.Invalidate(context.Background(), "123"))

	_, err = service.Case(context.Background(), "123", false)
	require.NoError(t, err)
	_, err = service.Cover(context.Background(), "123", false)
	require.NoError(t, err)

	records.mu.Lock()
	defer records.mu.Unlock()
	assert.Equal(t, 2, records.caseCalls)
	assert.Equal(t, 2, records.coverCalls)
}

func TestEmptyNumberIsRejected(t *testing.T) {
	t.Parallel()

	service := newTestService(&fakeRecords{}, newFakeClock())

	_, err := service.Case(context.Background(), "n/a", false)
	require.ErrorIs(t, err, ErrEmptyCaseNumber)

	require.ErrorIs(t, service.Invalidate(context.Background(), ""), ErrEmptyCaseNumber)
}

func TestCasesPartitionsHitsAndMisses(t *testing.T) {
	t.Parallel()

	records := &fakeRecords{}
	batch := &fakeBatch{}
	service := newTestService(records, newFakeClock(), WithBatchFetcher(batch))

	// warm one entry so the batch only sees the misses
	_, err := service.Case(context.Background(), "111", false)
	require.NoError(t, err)

	results := service.Cases(context.Background(), []string{"111", "222", "333"})

	require.Len(t, results, 3)
	for _, result := range results {
		require.NoError(t, result.Err)
		require.NotNil(t, result.Case)
	}
	assert.Equal(t, "Court for 111", results[0].Case.Cover.Court, "hit answered from cache")
	assert.Equal(t, "Batch Court", results[1].Case.Cover.Court)

	batch.mu.Lock()
	defer batch.mu.Unlock()
	require.Len(t, batch.calls, 1)
	assert.Equal(t, []domain.CaseNumber{"222", "333"}, batch.calls[0])
}

func TestCasesBatchResultsUseShorterTTL(t *testing.T) {
	t.Parallel()

	records := &fakeRecords{}
	batch := &fakeBatch{}
	clock := newFakeClock()
	service := newTestService(records, clock, WithBatchFetcher(batch), WithTTLs(time.Hour, 30*time.Minute))

	results := service.Cases(context.Background(), []string{"222"})
	require.NoError(t, results[0].Err)

	clock.Advance(29 * time.Minute)
	again := service.Cases(context.Background(), []string{"222"})
	require.NoError(t, again[0].Err)

	batch.mu.Lock()
	calls := len(batch.calls)
	batch.mu.Unlock()
	assert.Equal(t, 1, calls, "within the batch TTL the entry is a hit")

	clock.Advance(2 * time.Minute)
	expired := service.Cases(context.Background(), []string{"222"})
	require.NoError(t, expired[0].Err)

	batch.mu.Lock()
	defer batch.mu.Unlock()
	assert.Equal(t, 2, len(batch.calls), "batch-derived entries expire on the shorter TTL")
}

func TestCasesBatchFailureFallsBackToPerCaseFetches(t *testing.T) {
	t.Parallel()

	records := &fakeRecords{}
	batch := &fakeBatch{err: errors.New("search unavailable")}
	service := newTestService(records, newFakeClock(), WithBatchFetcher(batch))

	results := service.Cases(context.Background(), []string{"111", "222"})

	require.Len(t, results, 2)
	for _, result := range results {
		require.NoError(t, result.Err)
		assert.Contains(t, result.Case.Cover.Court, "Court for")
	}
	assert.Equal(t, 2, records.called())
}

func TestCasesWithoutBatchCapabilityUsesChunks(t *testing.T) {
	t.Parallel()

	records := &fakeRecords{}
	service := newTestService(records, newFakeClock())

	numbers := make([]string, 25)
	for i := range numbers {
		numbers[i] = fmt.Sprintf("%d", 1000+i)
	}

	results := service.Cases(context.Background(), numbers)

	require.Len(t, results, 25)
	for i, result := range results {
		require.NoError(t, result.Err)
		assert.Equal(t, domain.NormalizeCaseNumber(numbers[i]), result.Number, "results keep input order")
	}
	assert.Equal(t, 25, records.called())
}

func TestCasesIsolatesBadNumbers(t *testing.T) {
	t.Parallel()

	records := &fakeRecords{}
	service := newTestService(records, newFakeClock())

	results := service.Cases(context.Background(), []string{"111", "not-a-number", "333"})

	require.Len(t, results, 3)
	require.NoError(t, results[0].Err)
	require.ErrorIs(t, results[1].Err, ErrEmptyCaseNumber)
	require.NoError(t, results[2].Err)
}

func TestStoreReadErrorDegradesToMiss(t *testing.T) {
	t.Parallel()

	records := &fakeRecords{}
	store := &failingStore{CacheStore: memory.NewStore(), getErr: errors.New("store offline")}
	service := NewCaseService(records, store, nil, newFakeClock(), nil)

	record, err := service.Case(context.Background(), "123", false)

	require.NoError(t, err, "a broken store must not break reads")
	assert.Equal(t, domain.CaseNumber("123"), record.Number)
}
