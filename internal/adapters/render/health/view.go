package health

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/lexhive/juris-cli/internal/metrics"
)

func renderView(report metrics.Report, s styles) string {
	lines := []string{
		s.title.Render("Records Portal Health"),
		lipgloss.JoinHorizontal(lipgloss.Top,
			s.header.Render("status: "),
			s.health(string(report.Health)).Render(string(report.Health)),
		),
	}

	lines = append(lines, s.section.Render(renderRequests(report, s)))
	lines = append(lines, s.section.Render(renderConcurrency(report, s)))
	lines = append(lines, s.section.Render(renderCache(report, s)))
	lines = append(lines, s.section.Render(renderAlerts(report, s)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderRequests(report metrics.Report, s styles) string {
	parts := []string{
		keyValue(s, "requests issued", fmt.Sprintf("%d", report.RequestsIssued)),
		keyValue(s, "success rate", percent(report.SuccessRate)),
		keyValue(s, "error rate", percent(report.ErrorRate)),
		keyValue(s, "avg request time", durationLabel(report.AvgRequestTime)),
		keyValue(s, "downloads", fmt.Sprintf("%d ok / %d failed", report.DownloadsOK, report.DownloadsFailed)),
		keyValue(s, "avg download time", durationLabel(report.AvgDownloadTime)),
	}

	if errs := report.ErrorsTotal(); errs > 0 {
		parts = append(parts, keyValue(s, "errors",
			fmt.Sprintf("401:%d 404:%d 429:%d 5xx:%d timeout:%d decode:%d other:%d",
				report.Unauthorized, report.NotFound, report.RateLimited,
				report.ServerErrors, report.Timeouts, report.DecodeFailures, report.OtherErrors),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderConcurrency(report metrics.Report, s styles) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		keyValue(s, "generic budget", budgetLabel(report.Generic)),
		keyValue(s, "download budget", budgetLabel(report.Download)),
		keyValue(s, "ceiling hits", fmt.Sprintf("%d", report.CeilingHits)),
	)
}

func renderCache(report metrics.Report, s styles) string {
	lookups := report.CacheHits + report.CacheMisses
	if lookups == 0 {
		return keyValue(s, "cache", "no lookups yet")
	}

	return keyValue(s, "cache",
		fmt.Sprintf("%d hits / %d misses (%s hit rate)", report.CacheHits, report.CacheMisses, percent(report.CacheHitRate)),
	)
}

func renderAlerts(report metrics.Report, s styles) string {
	if len(report.Alerts) == 0 {
		return s.empty.Render("no alerts")
	}

	lines := make([]string, 0, len(report.Alerts))
	for _, alert := range report.Alerts {
		lines = append(lines, s.alert.Render("! "+alert))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func keyValue(s styles, key, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		s.key.Render(key+": "),
		s.value.Render(value),
	)
}

func budgetLabel(b metrics.BudgetStatus) string {
	label := fmt.Sprintf("%d in flight, ceiling %d of %d", b.InFlight, b.Ceiling, b.Max)
	if b.Ceiling < b.Max {
		label += " (degraded)"
	}

	return label
}

func percent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

func durationLabel(d time.Duration) string {
	if d == 0 {
		return "n/a"
	}

	return d.Round(time.Millisecond).String()
}
