package geospatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine_OneDegreeLatitude(t *testing.T) {
	d := Haversine(37.0, 127.0, 38.0, 127.0)
	assert.InDelta(t, 111_300, d, 300)
}

func TestHaversine_SamePoint(t *testing.T) {
	assert.Zero(t, Haversine(37.5665, 126.978, 37.5665, 126.978))
}

func TestHaversine_ShortHop(t *testing.T) {
	// ~0.0005 deg of latitude is ~55 m
	d := Haversine(37.5665, 126.978, 37.5670, 126.978)
	assert.Greater(t, d, 50.0)
	assert.Less(t, d, 60.0)
}

func TestBoundingBox_ContainsCenter(t *testing.T) {
	minLat, minLon, maxLat, maxLon := BoundingBox(37.5665, 126.978, 1000)
	assert.Less(t, minLat, 37.5665)
	assert.Less(t, minLon, 126.978)
	assert.Greater(t, maxLat, 37.5665)
	assert.Greater(t, maxLon, 126.978)
}

func TestNormalizeBounds_SwapsCorners(t *testing.T) {
	minLat, minLon, maxLat, maxLon := NormalizeBounds(37.6, 127.1, 37.5, 126.9)
	assert.Equal(t, 37.5, minLat)
	assert.Equal(t, 126.9, minLon)
	assert.Equal(t, 37.6, maxLat)
	assert.Equal(t, 127.1, maxLon)
}
