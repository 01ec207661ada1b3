package discovery

import "math"

// EarthRadiusMeters is the mean Earth radius used for every distance in the marketplace.
const EarthRadiusMeters = 6371000.0

// GeoPoint represents a longitude/latitude pair.
type GeoPoint struct {
	Lon float64
	Lat float64
}

// DistanceTo returns the great-circle distance in meters between two points.
func (p GeoPoint) DistanceTo(other GeoPoint) float64 {
	return HaversineMeters(p.Lon, p.Lat, other.Lon, other.Lat)
}

// HaversineMeters computes the great-circle distance between two coordinates.
func HaversineMeters(lon1, lat1, lon2, lat2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	if a > 1 {
		a = 1
	}
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(a))
}
