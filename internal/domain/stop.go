package domain

// A geocoded location with an address label.
// The address is the identity used when looking stops up for rendering.
type Stop struct {
	Lat     float64
	Lng     float64
	Address string
}

func (s Stop) Coordinates() Coordinates {
	return Coordinates{Lat: s.Lat, Lng: s.Lng}
}

// StopSet is the user's editable list of locations.
// When a depot is present it occupies position 0 of the ordered view,
// followed by the stops in the order they were given. That ordering is the
// index space optimization results refer to.
type StopSet struct {
	Depot *Stop
	Stops []Stop
}

// Ordered returns depot (if any) followed by the stops.
func (s StopSet) Ordered() []Stop {
	n := len(s.Stops)
	if s.Depot != nil {
		n++
	}

	out := make([]Stop, 0, n)
	if s.Depot != nil {
		out = append(out, *s.Depot)
	}
	out = append(out, s.Stops...)
	return out
}

func (s StopSet) Len() int {
	if s.Depot != nil {
		return len(s.Stops) + 1
	}
	return len(s.Stops)
}

// Snapshot freezes the current ordering.
func (s StopSet) Snapshot() Snapshot {
	return Snapshot{stops: s.Ordered()}
}

// Snapshot is an immutable copy of a StopSet taken when a job is submitted.
// Results for that job are always interpreted against it, never against the
// StopSet as later edited.
type Snapshot struct {
	stops []Stop
}

func NewSnapshot(stops []Stop) Snapshot {
	return Snapshot{stops: append([]Stop(nil), stops...)}
}

func (s Snapshot) Len() int { return len(s.stops) }

// At returns the stop at position i, or false when i is out of range.
func (s Snapshot) At(i int) (Stop, bool) {
	if i < 0 || i >= len(s.stops) {
		return Stop{}, false
	}
	return s.stops[i], true
}

// Stops returns a copy of the frozen ordering.
func (s Snapshot) Stops() []Stop {
	return append([]Stop(nil), s.stops...)
}
