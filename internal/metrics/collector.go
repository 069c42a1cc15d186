package metrics

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/lexhive/juris-cli/internal/domain"
)

// Collector accumulates process-wide counters for every remote attempt.
// Fields are updated independently; cross-field consistency is not promised
// and Snapshot reflects that.
type Collector struct {
	requestsIssued atomic.Uint64
	requestsOK     atomic.Uint64
	requestsDone   atomic.Uint64
	requestNanos   atomic.Uint64

	downloadsOK     atomic.Uint64
	downloadsFailed atomic.Uint64
	downloadNanos   atomic.Uint64

	unauthorized   atomic.Uint64
	notFound       atomic.Uint64
	rateLimited    atomic.Uint64
	serverErrors   atomic.Uint64
	timeouts       atomic.Uint64
	decodeFailures atomic.Uint64
	otherErrors    atomic.Uint64

	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64

	ceilingHits atomic.Uint64
}

func NewCollector() *Collector {
	return &Collector{}
}

// IncIssued counts one wire attempt, retries included.
func (c *Collector) IncIssued() {
	c.requestsIssued.Add(1)
}

// IncError counts one failing attempt under its category sentinel.
func (c *Collector) IncError(category error) {
	switch {
	case errors.Is(category, domain.ErrUnauthorized):
		c.unauthorized.Add(1)
	case errors.Is(category, domain.ErrNotFound):
		c.notFound.Add(1)
	case errors.Is(category, domain.ErrRateLimited):
		c.rateLimited.Add(1)
	case errors.Is(category, domain.ErrServer):
		c.serverErrors.Add(1)
	case errors.Is(category, domain.ErrTimeout):
		c.timeouts.Add(1)
	case errors.Is(category, domain.ErrDecode):
		c.decodeFailures.Add(1)
	default:
		c.otherErrors.Add(1)
	}
}

// ObserveRequest records the terminal outcome of one generic call with its
// total wall time across all attempts.
func (c *Collector) ObserveRequest(elapsed time.Duration, ok bool) {
	c.requestsDone.Add(1)
	c.requestNanos.Add(uint64(elapsed.Nanoseconds()))
	if ok {
		c.requestsOK.Add(1)
	}
}

// ObserveDownload records the terminal outcome of one download call.
func (c *Collector) ObserveDownload(elapsed time.Duration, ok bool) {
	c.downloadNanos.Add(uint64(elapsed.Nanoseconds()))
	if ok {
		c.downloadsOK.Add(1)
	} else {
		c.downloadsFailed.Add(1)
	}
}

func (c *Collector) IncCacheHit() {
	c.cacheHits.Add(1)
}

func (c *Collector) IncCacheMiss() {
	c.cacheMisses.Add(1)
}

func (c *Collector) IncCeilingHit() {
	c.ceilingHits.Add(1)
}

type Snapshot struct {
	RequestsIssued uint64
	RequestsOK     uint64
	RequestsDone   uint64
	RequestNanos   uint64

	DownloadsOK     uint64
	DownloadsFailed uint64
	DownloadNanos   uint64

	Unauthorized   uint64
	NotFound       uint64
	RateLimited    uint64
	ServerErrors   uint64
	Timeouts       uint64
	DecodeFailures uint64
	OtherErrors    uint64

	CacheHits   uint64
	CacheMisses uint64

	CeilingHits uint64
}

func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		RequestsIssued:  c.requestsIssued.Load(),
		RequestsOK:      c.requestsOK.Load(),
		RequestsDone:    c.requestsDone.Load(),
		RequestNanos:    c.requestNanos.Load(),
		DownloadsOK:     c.downloadsOK.Load(),
		DownloadsFailed: c.downloadsFailed.Load(),
		DownloadNanos:   c.downloadNanos.Load(),
		Unauthorized:    c.unauthorized.Load(),
		NotFound:        c.notFound.Load(),
		RateLimited:     c.rateLimited.Load(),
		ServerErrors:    c.serverErrors.Load(),
		Timeouts:        c.timeouts.Load(),
		DecodeFailures:  c.decodeFailures.Load(),
		OtherErrors:     c.otherErrors.Load(),
		CacheHits:       c.cacheHits.Load(),
		CacheMisses:     c.cacheMisses.Load(),
		CeilingHits:     c.ceilingHits.Load(),
	}
}

func (s Snapshot) ErrorsTotal() uint64 {
	return s.Unauthorized + s.NotFound + s.RateLimited + s.ServerErrors +
		s.Timeouts + s.DecodeFailures + s.OtherErrors
}
