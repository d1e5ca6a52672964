package geospatial

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	return geo.DistanceHaversine(orb.Point{lon1, lat1}, orb.Point{lon2, lat2})
}

// BoundingBox returns a bounding box around a point with the given radius in meters.
func BoundingBox(lat, lon, radiusMeters float64) (minLat, minLon, maxLat, maxLon float64) {
	b := geo.NewBoundAroundPoint(orb.Point{lon, lat}, radiusMeters)
	return b.Min.Lat(), b.Min.Lon(), b.Max.Lat(), b.Max.Lon()
}

// NormalizeBounds orders two corners so that min <= max on both axes.
func NormalizeBounds(lat1, lon1, lat2, lon2 float64) (minLat, minLon, maxLat, maxLon float64) {
	b := orb.MultiPoint{{lon1, lat1}, {lon2, lat2}}.Bound()
	return b.Min.Lat(), b.Min.Lon(), b.Max.Lat(), b.Max.Lon()
}
