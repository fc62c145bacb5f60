package service

import "math"

const earthRadiusKm = 6371.0

// haversineKm returns the great-circle distance between two points in kilometers.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// boundingBoxForRadius returns a latitude/longitude box that fully contains the
// radius around the point, used to prefilter stations in SQL before the exact
// haversine pass.
func boundingBoxForRadius(lat, lng, radiusKm float64) (swLat, neLat, swLng, neLng float64) {
	dLat := radiusKm / 110.574
	cosLat := math.Cos(toRadians(lat))
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	dLng := radiusKm / (111.320 * cosLat)
	return lat - dLat, lat + dLat, lng - dLng, lng + dLng
}
