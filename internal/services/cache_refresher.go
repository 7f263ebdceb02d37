package services

import (
	"context"
	"time"

	"lead-workflow/internal/logger"
	"lead-workflow/internal/models"
)

// CacheRefresher periodically rewrites the cached forward-candidate lists.
type CacheRefresher struct {
	employees EmployeeService
	interval  time.Duration
	log       logger.Logger
}

func NewCacheRefresher(employees EmployeeService, interval time.Duration, log logger.Logger) *CacheRefresher {
	return &CacheRefresher{
		employees: employees,
		interval:  interval,
		log:       log.With("component", "cache_refresher"),
	}
}

func (cr *CacheRefresher) Start(ctx context.Context) {
	ticker := time.NewTicker(cr.interval)
	go func() {
		cr.RefreshAll(ctx)
		for {
			select {
			case <-ticker.C:
				cr.RefreshAll(ctx)
			case <-ctx.Done():
				cr.log.Info("stopping cache refresher")
				ticker.Stop()
				return
			}
		}
	}()
}

// RefreshAll rewrites the list of every department plus the combined one.
func (cr *CacheRefresher) RefreshAll(ctx context.Context) {
	departments := append([]models.Department{""}, models.AllDepartments...)
	for _, d := range departments {
		if err := cr.employees.RefreshForwardCandidates(ctx, d); err != nil {
			cr.log.Warn("failed to refresh forward candidates", "department", d, "error", err)
		}
	}
	cr.log.Debug("forward candidate caches refreshed")
}
