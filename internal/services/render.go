package services

import (
	"route-map-client/internal/domain"
)

// Render builds map geometry.
//
// Markers are the live stop set (depot first). The path follows the
// reconciled order, but each point is looked up by address in the live set,
// so stops the user has since removed drop out of the path. When an address
// occurs more than once the last occurrence wins. A path that would have
// fewer than two points is returned empty.
func Render(live domain.StopSet, route domain.ReconciledRoute) domain.RenderedRoute {
	markers := live.Ordered()

	out := domain.RenderedRoute{
		Center:  domain.DefaultCenter,
		Markers: markers,
		Path:    []domain.Coordinates{},
	}
	if len(markers) > 0 {
		out.Center = markers[0].Coordinates()
	}

	if len(route) == 0 {
		return out
	}

	byAddress := make(map[string]domain.Stop, len(markers))
	for _, s := range markers {
		byAddress[s.Address] = s
	}

	path := make([]domain.Coordinates, 0, len(route))
	for _, s := range route {
		if found, ok := byAddress[s.Address]; ok {
			path = append(path, found.Coordinates())
		}
	}

	if len(path) >= 2 {
		out.Path = path
	}
	return out
}
