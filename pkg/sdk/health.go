package staysearch

import (
	"context"

	healthuc "github.com/kailas-cloud/staysearch/internal/usecase/health"
)

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
}

// Health checks the KV and document stores.
func (c *Client) Health(ctx context.Context) HealthStatus {
	return fromInternalReport(c.healthSvc.Check(ctx))
}

func fromInternalReport(report healthuc.Report) HealthStatus {
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}
