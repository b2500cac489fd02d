package domain

// Immutable geographic coordinates (latitude, longitude).
type Coordinates struct {
	Lat float64
	Lng float64
}

// Default map center used when there are no stops to center on (Obelisco, Buenos Aires).
var DefaultCenter = Coordinates{Lat: -34.6037, Lng: -58.3816}

// Return coordinates as [lat, lng], the order map polylines expect.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lat, c.Lng} }
