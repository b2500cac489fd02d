package services

import (
	"route-map-client/internal/domain"
	"strconv"
	"strings"
)

// Reconcile resolves the optimizer's index order against the snapshot the job
// was submitted with. Entries that are not integers or fall outside the
// snapshot are skipped; the rest keep their order. Reconcile has no side
// effects and returns an empty (non-nil) route for a nil result.
func Reconcile(result *domain.OptimizationResult, snap domain.Snapshot) domain.ReconciledRoute {
	if result == nil {
		return domain.ReconciledRoute{}
	}

	route := make(domain.ReconciledRoute, 0, len(result.OptimizedOrder))
	for _, entry := range result.OptimizedOrder {
		i, err := strconv.Atoi(strings.TrimSpace(entry))
		if err != nil {
			continue
		}
		if s, ok := snap.At(i); ok {
			route = append(route, s)
		}
	}
	return route
}
