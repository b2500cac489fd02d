package domain

// ReconciledRoute is the optimized visiting order expressed as stops of the
// snapshot that was submitted. Unresolvable indices are already dropped.
type ReconciledRoute []Stop

func (r ReconciledRoute) Addresses() []string {
	out := make([]string, 0, len(r))
	for _, s := range r {
		out = append(out, s.Address)
	}
	return out
}

// Render-ready map geometry.
// Markers reflect the live stop set; Path is the ordered polyline and is
// either empty or has at least two points.
type RenderedRoute struct {
	Center  Coordinates
	Markers []Stop
	Path    []Coordinates
}
