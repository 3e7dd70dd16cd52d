package geo

import "math"

// earthRadiusM is the mean earth radius in meters.
const earthRadiusM = 6371000.0

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is the visible bounding box of the map, as north-east and
// south-west corners.
type Bounds struct {
	NorthEast Coordinate
	SouthWest Coordinate
}

// Viewport is the map viewport reduced to a search input: a center plus an
// estimated radius covering everything visible.
type Viewport struct {
	Center  Coordinate
	RadiusM float64
}

func toRad(d float64) float64 {
	return d * math.Pi / 180.0
}

// HaversineMeters returns the great-circle distance between two points.
func HaversineMeters(a, b Coordinate) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	la1 := toRad(a.Lat)
	la2 := toRad(b.Lat)
	sin1 := math.Sin(dLat / 2)
	sin2 := math.Sin(dLng / 2)
	h := sin1*sin1 + math.Cos(la1)*math.Cos(la2)*sin2*sin2
	return 2 * earthRadiusM * math.Asin(math.Min(1, math.Sqrt(h)))
}

// ViewportFrom derives the search viewport from the map center and its
// visible bounds. The radius is the maximum distance from the center to any
// of the four corners of the box, so the circle always covers the screen.
func ViewportFrom(center Coordinate, b Bounds) Viewport {
	corners := []Coordinate{
		b.NorthEast,
		b.SouthWest,
		{Lat: b.NorthEast.Lat, Lng: b.SouthWest.Lng},
		{Lat: b.SouthWest.Lat, Lng: b.NorthEast.Lng},
	}
	radius := 0.0
	for _, c := range corners {
		if d := HaversineMeters(center, c); d > radius {
			radius = d
		}
	}
	return Viewport{Center: center, RadiusM: math.Round(radius)}
}
