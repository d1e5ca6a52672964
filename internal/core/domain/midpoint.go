package domain

import (
	"math"
	"sort"
)

// GridCellDegrees is the side of a coarsening cell, about 200 m of latitude.
const GridCellDegrees = 0.002

// Coarsen snaps a raw coordinate to the south-west corner of its grid cell.
// Each axis is floored independently; the result cannot be reversed.
func Coarsen(p GeoPoint) GeoPoint {
	return GeoPoint{
		Lat: snap(p.Lat),
		Lng: snap(p.Lng),
	}
}

func snap(v float64) float64 {
	cell := math.Floor(v / GridCellDegrees)
	// Round away float noise so that equal cells compare equal.
	return math.Round(cell*GridCellDegrees*1e6) / 1e6
}

// Midpoint returns the per-axis median of points, or nil when there are none.
func Midpoint(points []GeoPoint) *GeoPoint {
	if len(points) == 0 {
		return nil
	}
	lats := make([]float64, len(points))
	lngs := make([]float64, len(points))
	for i, p := range points {
		lats[i] = p.Lat
		lngs[i] = p.Lng
	}
	return &GeoPoint{Lat: median(lats), Lng: median(lngs)}
}

func median(vals []float64) float64 {
	sort.Float64s(vals)
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return (vals[n/2-1] + vals[n/2]) / 2
}
