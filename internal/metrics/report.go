package metrics

import (
	"fmt"
	"time"
)

type Health string

const (
	HealthUnknown  Health = "unknown"
	HealthHealthy  Health = "healthy"
	HealthWarning  Health = "warning"
	HealthCritical Health = "critical"
)

// BudgetStatus describes one concurrency budget at snapshot time.
type BudgetStatus struct {
	InFlight int64
	Ceiling  int64
	Max      int64
}

type Report struct {
	Snapshot

	SuccessRate  float64
	ErrorRate    float64
	CacheHitRate float64

	AvgRequestTime  time.Duration
	AvgDownloadTime time.Duration

	Generic  BudgetStatus
	Download BudgetStatus

	Health Health
	Alerts []string
}

const (
	criticalAuthServerRatio = 0.10
	warningAuthServerRatio  = 0.05
	highErrorRateThreshold  = 0.20
	maxUnauthorizedAlert    = 5
	maxTimeoutAlert         = 3
	lowCacheHitRate         = 0.50
	minCacheSamplesForAlert = 10
)

// BuildReport derives rates, health and alerts from a snapshot. It is pure:
// accumulation happens in the Collector, interpretation happens here.
func BuildReport(s Snapshot, generic, download BudgetStatus) Report {
	r := Report{
		Snapshot: s,
		Generic:  generic,
		Download: download,
		Health:   HealthUnknown,
	}

	if s.RequestsIssued > 0 {
		errs := s.ErrorsTotal()
		if errs > s.RequestsIssued {
			errs = s.RequestsIssued
		}
		r.ErrorRate = float64(errs) / float64(s.RequestsIssued)
		r.SuccessRate = 1 - r.ErrorRate

		authServerRatio := float64(s.Unauthorized+s.ServerErrors) / float64(s.RequestsIssued)
		switch {
		case authServerRatio > criticalAuthServerRatio:
			r.Health = HealthCritical
		case authServerRatio > warningAuthServerRatio:
			r.Health = HealthWarning
		default:
			r.Health = HealthHealthy
		}
	}

	if s.RequestsDone > 0 {
		r.AvgRequestTime = time.Duration(s.RequestNanos / s.RequestsDone)
	}
	if done := s.DownloadsOK + s.DownloadsFailed; done > 0 {
		r.AvgDownloadTime = time.Duration(s.DownloadNanos / done)
	}

	if lookups := s.CacheHits + s.CacheMisses; lookups > 0 {
		r.CacheHitRate = float64(s.CacheHits) / float64(lookups)
	}

	r.Alerts = buildAlerts(s, r)

	return r
}

func buildAlerts(s Snapshot, r Report) []string {
	var alerts []string

	if s.RequestsIssued > 0 && r.ErrorRate > highErrorRateThreshold {
		alerts = append(alerts, fmt.Sprintf("high error rate: %.0f%% of %d requests", r.ErrorRate*100, s.RequestsIssued))
	}
	if s.Unauthorized > maxUnauthorizedAlert {
		alerts = append(alerts, fmt.Sprintf("repeated authorization failures: %d", s.Unauthorized))
	}
	if s.Timeouts > maxTimeoutAlert {
		alerts = append(alerts, fmt.Sprintf("repeated timeouts: %d", s.Timeouts))
	}
	if s.CeilingHits > 0 {
		alerts = append(alerts, fmt.Sprintf("concurrency ceiling reached %d times", s.CeilingHits))
	}
	if lookups := s.CacheHits + s.CacheMisses; lookups > minCacheSamplesForAlert && r.CacheHitRate < lowCacheHitRate {
		alerts = append(alerts, fmt.Sprintf("low cache hit rate: %.0f%% over %d lookups", r.CacheHitRate*100, lookups))
	}

	return alerts
}
