package dto

type MarkerResponse struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

// Coordinates are [lat, lng] pairs.
type RouteResponse struct {
	Center  []float64        `json:"center"`
	Markers []MarkerResponse `json:"markers"`
	Path    [][]float64      `json:"path"`
}
