package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// Validate checks the coordinate is on the globe.
func (p GeoPoint) Validate() error {
	if p.Lat < -90 || p.Lat > 90 {
		return Invalid("lat must be between -90 and 90")
	}
	if p.Lng < -180 || p.Lng > 180 {
		return Invalid("lng must be between -180 and 180")
	}
	return nil
}
