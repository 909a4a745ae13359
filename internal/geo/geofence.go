package geo

import "math"

const earthRadiusKM = 6371

// HaversineKM returns the great-circle distance between two points in
// kilometers.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	deltaPhi := radians(lat2 - lat1)
	deltaLambda := radians(lon2 - lon1)

	a := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKM * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Fence is a circular geofence around the event area.
type Fence struct {
	CenterLat float64
	CenterLon float64
	RadiusKM  float64
}

func (f Fence) Contains(lat, lon float64) bool {
	return HaversineKM(f.CenterLat, f.CenterLon, lat, lon) <= f.RadiusKM
}
